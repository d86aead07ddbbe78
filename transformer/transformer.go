// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package transformer provides the encoder-decoder Transformer for
// sequence-to-sequence translation.
//
// Example:
//
//	backend := cpu.New()
//	hp := transformer.DefaultHyperParam()
//	model, err := transformer.New(srcVocab, tgtVocab, hp, backend, transformer.WithSeed(1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.Eval()
//
//	batch, err := transformer.BatchFromIDs(src, tgt, backend)
//	logits, err := model.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
package transformer

import (
	"github.com/born-ml/seq2seq/internal/tensor"
	"github.com/born-ml/seq2seq/internal/transformer"
)

// Errors returned by construction and forward passes.
var (
	ErrConfig             = transformer.ErrConfig
	ErrPositionOutOfRange = transformer.ErrPositionOutOfRange
	ErrDimensionMismatch  = transformer.ErrDimensionMismatch
	ErrTokenOutOfRange    = transformer.ErrTokenOutOfRange
)

// HyperParam is the model configuration.
type HyperParam = transformer.HyperParam

// Opt holds optimizer settings for a training harness.
type Opt = transformer.Opt

// Infer holds beam search settings for an inference harness.
type Infer = transformer.Infer

// DefaultHyperParam returns the base configuration (d_model 512, 6+6 layers, 8 heads).
func DefaultHyperParam() HyperParam {
	return transformer.DefaultHyperParam()
}

// LoadHyperParam reads a YAML file over the defaults and validates it.
func LoadHyperParam(path string) (HyperParam, error) {
	return transformer.LoadHyperParam(path)
}

// Transformer is the full encoder-decoder model.
type Transformer[B tensor.Backend] = transformer.Transformer[B]

// Encoder is the embedding plus encoder layer stack.
type Encoder[B tensor.Backend] = transformer.Encoder[B]

// Decoder is the embedding plus decoder layer stack.
type Decoder[B tensor.Backend] = transformer.Decoder[B]

// EncoderLayer is self-attention followed by a feed-forward sublayer.
type EncoderLayer[B tensor.Backend] = transformer.EncoderLayer[B]

// DecoderLayer is self-attention, cross-attention and a feed-forward sublayer.
type DecoderLayer[B tensor.Backend] = transformer.DecoderLayer[B]

// Attention holds per-layer attention weights from ForwardWithAttention.
type Attention[B tensor.Backend] = transformer.Attention[B]

// NamedParameter pairs a parameter with its hierarchical name.
type NamedParameter[B tensor.Backend] = transformer.NamedParameter[B]

// Option configures New.
type Option = transformer.Option

// New builds a Transformer.
func New[B tensor.Backend](srcVocab, tgtVocab int, hp HyperParam, backend B, opts ...Option) (*Transformer[B], error) {
	return transformer.New(srcVocab, tgtVocab, hp, backend, opts...)
}

// WithTargetProjectionSharing ties the output projection to the target embedding (default true).
func WithTargetProjectionSharing(share bool) Option {
	return transformer.WithTargetProjectionSharing(share)
}

// WithSourceTargetSharing ties the source and target embeddings (default false).
func WithSourceTargetSharing(share bool) Option {
	return transformer.WithSourceTargetSharing(share)
}

// WithSeed makes initialization and dropout deterministic.
func WithSeed(seed uint64) Option {
	return transformer.WithSeed(seed)
}

// Batch is a padded source/target pair with positions.
type Batch[B tensor.Backend] = transformer.Batch[B]

// BatchFromIDs pads ragged id sequences and derives their positions.
func BatchFromIDs[B tensor.Backend](src, tgt [][]int32, backend B) (*Batch[B], error) {
	return transformer.BatchFromIDs(src, tgt, backend)
}

// Positions returns 1-based positions for seq, with 0 at padding slots.
func Positions[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[int32, B] {
	return transformer.Positions(seq)
}

// Package tokenizer maps text to model ids and back.
//
// Ids 0 to 3 are reserved (padding, unknown, begin and end of sequence);
// subword ids start at MinID.
//
// Example usage:
//
//	import "github.com/born-ml/seq2seq/tokenizer"
//
//	tok, err := tokenizer.Load("cl100k_base", tokenizer.WithBosEos(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := tok.Decode(ids)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/born-ml/seq2seq/internal/tokenizer"
)

// Reserved ids.
const (
	PadID        = tokenizer.PadID
	UnkID        = tokenizer.UnkID
	BosID        = tokenizer.BosID
	EosID        = tokenizer.EosID
	DefaultMinID = tokenizer.DefaultMinID
)

// Tokenizer is the text-to-id contract.
type Tokenizer = tokenizer.Tokenizer

// SubwordModel is a raw subword vocabulary with ids starting at 0.
type SubwordModel = tokenizer.SubwordModel

// Reserved adapts a SubwordModel to Tokenizer.
type Reserved = tokenizer.Reserved

// ReservedOption configures NewReserved and Load.
type ReservedOption = tokenizer.ReservedOption

// NewReserved wraps model so its ids start at MinID.
func NewReserved(model SubwordModel, opts ...ReservedOption) *Reserved {
	return tokenizer.NewReserved(model, opts...)
}

// WithMinID sets the first subword id.
func WithMinID(minID int32) ReservedOption {
	return tokenizer.WithMinID(minID)
}

// WithBosEos wraps every encoded sequence in BosID ... EosID.
func WithBosEos(wrap bool) ReservedOption {
	return tokenizer.WithBosEos(wrap)
}

// NewTikToken creates a subword model from a tiktoken encoding.
//
// Supported encodings: "cl100k_base", "p50k_base", "r50k_base".
func NewTikToken(encodingName string) (SubwordModel, error) {
	model, err := tokenizer.NewTikToken(encodingName)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// LoadHuggingFace loads a subword model from a tokenizer.json file.
func LoadHuggingFace(path string) (SubwordModel, error) {
	model, err := tokenizer.LoadHuggingFace(path)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Load builds a Tokenizer from a tokenizer.json path, a directory holding
// one, a tiktoken encoding name or an OpenAI model name.
func Load(pathOrName string, opts ...ReservedOption) (*Reserved, error) {
	return tokenizer.Load(pathOrName, opts...)
}

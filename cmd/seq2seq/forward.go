package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/transformer"
)

// runForward runs one evaluation-mode forward pass and prints the logits
// shape and the arg-max id at every target position.
func runForward(args []string) error {
	fs := flag.NewFlagSet("forward", flag.ExitOnError)
	mf := addModelFlags(fs)
	src := fs.String("src", "2 17 9 3", "Source ids, space separated")
	tgt := fs.String("tgt", "2 4 3", "Target ids, space separated")
	attn := fs.Bool("attention", false, "Also print attention weight shapes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srcIDs, err := parseIDs(*src)
	if err != nil {
		return err
	}
	tgtIDs, err := parseIDs(*tgt)
	if err != nil {
		return err
	}
	if len(srcIDs) == 0 || len(tgtIDs) == 0 {
		return errors.New("--src and --tgt must not be empty")
	}

	model, err := mf.build()
	if err != nil {
		return err
	}
	model.Eval()

	batch, err := transformer.BatchFromIDs([][]int32{srcIDs}, [][]int32{tgtIDs}, cpu.New())
	if err != nil {
		return err
	}

	logits, weights, err := model.ForwardWithAttention(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	if err != nil {
		return err
	}

	fmt.Printf("logits: %v\n", logits.Shape())
	_, vocab := model.VocabSizes()
	data := logits.Data()
	for row := range logits.Shape()[0] {
		best := 0
		for j := 1; j < vocab; j++ {
			if data[row*vocab+j] > data[row*vocab+best] {
				best = j
			}
		}
		fmt.Printf("  position %d: argmax %d (%.4f)\n", row+1, best, data[row*vocab+best])
	}

	if *attn {
		for i := range weights.EncoderSelf {
			fmt.Printf("encoder layer %d self: %v\n", i, weights.EncoderSelf[i].Shape())
		}
		for i := range weights.DecoderSelf {
			fmt.Printf("decoder layer %d self: %v cross: %v\n", i,
				weights.DecoderSelf[i].Shape(), weights.DecoderCross[i].Shape())
		}
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/transformer"
)

// modelFlags are shared by the commands that build a model.
type modelFlags struct {
	config   *string
	weights  *string
	srcVocab *int
	tgtVocab *int
	shareSrc *bool
	sharePrj *bool
	seed     *uint64
}

func addModelFlags(fs *flag.FlagSet) *modelFlags {
	return &modelFlags{
		config:   fs.String("config", "", "HyperParam YAML file (defaults when empty)"),
		weights:  fs.String("weights", "", "SafeTensors file written by params --save"),
		srcVocab: fs.Int("src-vocab", 32768, "Source vocabulary size"),
		tgtVocab: fs.Int("tgt-vocab", 32768, "Target vocabulary size"),
		shareSrc: fs.Bool("share-src-tgt", false, "Share source and target embeddings"),
		sharePrj: fs.Bool("share-projection", true, "Tie the output projection to the target embedding"),
		seed:     fs.Uint64("seed", 1, "Initialization seed"),
	}
}

func (f *modelFlags) build() (*transformer.Transformer[*cpu.CPUBackend], error) {
	hp := transformer.DefaultHyperParam()
	if *f.config != "" {
		var err error
		if hp, err = transformer.LoadHyperParam(*f.config); err != nil {
			return nil, err
		}
	}

	model, err := transformer.New(*f.srcVocab, *f.tgtVocab, hp, cpu.New(),
		transformer.WithSourceTargetSharing(*f.shareSrc),
		transformer.WithTargetProjectionSharing(*f.sharePrj),
		transformer.WithSeed(*f.seed),
	)
	if err != nil {
		return nil, err
	}
	if *f.weights != "" {
		if err := model.Load(*f.weights); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// parseIDs parses "2 17 9 3" into ids.
func parseIDs(s string) ([]int32, error) {
	fields := strings.Fields(s)
	ids := make([]int32, len(fields))
	for i, f := range fields {
		id, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", f, err)
		}
		ids[i] = int32(id)
	}
	return ids, nil
}

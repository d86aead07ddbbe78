package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Load builds a Tokenizer from pathOrName, trying in order:
//  1. a tokenizer.json file, or a directory containing one
//  2. a tiktoken encoding name ("cl100k_base")
//  3. an OpenAI model name ("gpt-4")
func Load(pathOrName string, opts ...ReservedOption) (*Reserved, error) {
	model, err := loadModel(pathOrName)
	if err != nil {
		return nil, err
	}
	return NewReserved(model, opts...), nil
}

func loadModel(pathOrName string) (SubwordModel, error) {
	if info, err := os.Stat(pathOrName); err == nil {
		path := pathOrName
		if info.IsDir() {
			path = filepath.Join(pathOrName, "tokenizer.json")
		}
		hf, err := LoadHuggingFace(path)
		if err != nil {
			return nil, err
		}
		return hf, nil
	}

	if model, err := NewTikToken(pathOrName); err == nil {
		return model, nil
	}
	if model, err := NewTikTokenForModel(pathOrName); err == nil {
		return model, nil
	}
	return nil, fmt.Errorf("failed to load tokenizer from %q", pathOrName)
}

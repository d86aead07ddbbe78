package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// encodingCL100kBase is the encoding name for GPT-4 and GPT-3.5-turbo.
	encodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the encoding name for GPT-3.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the encoding name for older GPT-3 models.
	encodingR50kBase = "r50k_base"
)

// TikToken is a SubwordModel backed by an OpenAI BPE encoding.
//
// Supported encodings:
//   - cl100k_base
//   - p50k_base
//   - r50k_base
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken loads the named encoding. The BPE ranks are fetched on first
// use and cached by tiktoken-go.
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// NewTikTokenForModel loads the encoding used by an OpenAI model name, e.g. "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &TikToken{encoding: encoding, name: modelName}, nil
}

// Encode converts text to piece ids. Special-token text is encoded as
// ordinary text.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)

	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}
	return result, nil
}

// Decode converts piece ids back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}
	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the number of ordinary pieces in the encoding.
func (t *TikToken) VocabSize() int {
	// tiktoken-go doesn't expose the rank table size.
	switch t.name {
	case encodingCL100kBase:
		return 100256
	case encodingP50kBase:
		return 50281
	case encodingR50kBase:
		return 50256
	default:
		return 100256
	}
}

// Name returns the encoding or model name.
func (t *TikToken) Name() string {
	return t.name
}

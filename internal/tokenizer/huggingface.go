package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFModelType identifies the model section of a tokenizer.json file.
type HFModelType string

// Model types understood by the HuggingFace loader.
const (
	HFTypeBPE       HFModelType = "BPE"
	HFTypeWordPiece HFModelType = "WordPiece"
	HFTypeWordLevel HFModelType = "WordLevel"
	HFTypeUnigram   HFModelType = "Unigram"
)

// HFMetadata summarizes a tokenizer.json without building the tokenizer.
type HFMetadata struct {
	Type          HFModelType
	VocabSize     int
	SpecialTokens []string
}

type hfFile struct {
	Model struct {
		Type  string          `json:"type"`
		Vocab json.RawMessage `json:"vocab"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

// InspectHF reads the model type, base vocabulary size and special tokens
// of a tokenizer.json.
func InspectHF(path string) (*HFMetadata, error) {
	//nolint:gosec // Loading tokenizer from user-specified path is intentional.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var file hfFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	meta := &HFMetadata{Type: HFModelType(file.Model.Type)}
	switch meta.Type {
	case HFTypeBPE, HFTypeWordPiece, HFTypeWordLevel:
		var vocab map[string]int
		if err := json.Unmarshal(file.Model.Vocab, &vocab); err != nil {
			return nil, fmt.Errorf("failed to parse %s vocab: %w", meta.Type, err)
		}
		meta.VocabSize = len(vocab)
	case HFTypeUnigram:
		// Unigram vocab is a list of [piece, score] pairs.
		var vocab []json.RawMessage
		if err := json.Unmarshal(file.Model.Vocab, &vocab); err != nil {
			return nil, fmt.Errorf("failed to parse Unigram vocab: %w", err)
		}
		meta.VocabSize = len(vocab)
	default:
		return nil, fmt.Errorf("unsupported tokenizer model type %q", file.Model.Type)
	}

	for _, tok := range file.AddedTokens {
		if tok.Special {
			meta.SpecialTokens = append(meta.SpecialTokens, tok.Content)
		}
	}
	return meta, nil
}

// HuggingFace is a SubwordModel loaded from a HuggingFace tokenizer.json.
type HuggingFace struct {
	tok  *tk.Tokenizer
	meta *HFMetadata
}

// LoadHuggingFace loads a tokenizer.json file.
func LoadHuggingFace(path string) (*HuggingFace, error) {
	meta, err := InspectHF(path)
	if err != nil {
		return nil, err
	}

	tok, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}
	return &HuggingFace{tok: tok, meta: meta}, nil
}

// Encode converts text to piece ids without the file's post-processing
// special tokens.
func (h *HuggingFace) Encode(text string) ([]int32, error) {
	enc, err := h.tok.EncodeSingle(text, false)
	if err != nil {
		return nil, err
	}

	ids := make([]int32, len(enc.Ids))
	for i, id := range enc.Ids {
		ids[i] = int32(id) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}
	return ids, nil
}

// Decode converts piece ids back to text, skipping the file's special tokens.
func (h *HuggingFace) Decode(tokens []int32) (string, error) {
	ids := make([]int, len(tokens))
	for i, id := range tokens {
		ids[i] = int(id)
	}
	return h.tok.Decode(ids, true), nil
}

// VocabSize returns the vocabulary size including added tokens.
func (h *HuggingFace) VocabSize() int {
	return h.tok.GetVocabSize(true)
}

// Metadata returns what InspectHF read from the file.
func (h *HuggingFace) Metadata() *HFMetadata {
	return h.meta
}

package tokenizer

import "fmt"

// Reserved adapts a SubwordModel to Tokenizer by offsetting its ids by MinID.
type Reserved struct {
	model  SubwordModel
	minID  int32
	bosEos bool
}

// ReservedOption configures NewReserved.
type ReservedOption func(*Reserved)

// WithMinID sets the first subword id. It must be at least DefaultMinID.
func WithMinID(minID int32) ReservedOption {
	return func(r *Reserved) { r.minID = minID }
}

// WithBosEos wraps every encoded sequence in BosID ... EosID.
func WithBosEos(wrap bool) ReservedOption {
	return func(r *Reserved) { r.bosEos = wrap }
}

// NewReserved wraps model. Panics if WithMinID is below DefaultMinID.
func NewReserved(model SubwordModel, opts ...ReservedOption) *Reserved {
	r := &Reserved{model: model, minID: DefaultMinID}
	for _, opt := range opts {
		opt(r)
	}
	if r.minID < DefaultMinID {
		panic(fmt.Sprintf("tokenizer: min id %d overlaps the reserved ids", r.minID))
	}
	return r
}

// Encode converts text to ids in [MinID, VocabSize), optionally wrapped in
// BosID and EosID.
func (r *Reserved) Encode(text string) ([]int32, error) {
	pieces, err := r.model.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode: %w", err)
	}

	n := len(pieces)
	if r.bosEos {
		n += 2
	}
	ids := make([]int32, 0, n)
	if r.bosEos {
		ids = append(ids, BosID)
	}
	for _, p := range pieces {
		ids = append(ids, p+r.minID)
	}
	if r.bosEos {
		ids = append(ids, EosID)
	}
	return ids, nil
}

// Decode converts ids back to text. Ids below MinID are dropped; ids at or
// beyond VocabSize are an error.
func (r *Reserved) Decode(tokens []int32) (string, error) {
	vocab := r.VocabSize()
	pieces := make([]int32, 0, len(tokens))
	for _, id := range tokens {
		switch {
		case id < 0 || int(id) >= vocab:
			return "", fmt.Errorf("token id %d out of range [0, %d)", id, vocab)
		case id < r.minID:
			continue
		}
		pieces = append(pieces, id-r.minID)
	}

	text, err := r.model.Decode(pieces)
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}
	return text, nil
}

// VocabSize returns the subword vocabulary size plus MinID.
func (r *Reserved) VocabSize() int {
	return r.model.VocabSize() + int(r.minID)
}

// MinID returns the smallest subword id.
func (r *Reserved) MinID() int32 {
	return r.minID
}

// Model returns the wrapped subword model.
func (r *Reserved) Model() SubwordModel {
	return r.model
}

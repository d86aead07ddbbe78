package tokenizer

// Reserved ids shared by every tokenizer. PadID doubles as the padding
// index of the embeddings and masks.
const (
	PadID int32 = 0
	UnkID int32 = 1
	BosID int32 = 2
	EosID int32 = 3

	// DefaultMinID is the first id available to subword pieces.
	DefaultMinID int32 = 4
)

// Surface forms of the reserved ids.
const (
	PadWord = "<blank>"
	UnkWord = "<unk>"
	BosWord = "<s>"
	EosWord = "</s>"
)

// Tokenizer is the text-to-id contract used by the data pipeline.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text. Reserved ids are dropped.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size, reserved ids included.
	VocabSize() int

	// MinID returns the smallest id a subword piece can take.
	MinID() int32
}

// SubwordModel is a raw subword vocabulary with ids starting at 0.
type SubwordModel interface {
	Encode(text string) ([]int32, error)
	Decode(tokens []int32) (string, error)
	VocabSize() int
}

// IsReserved reports whether id is one of the reserved ids.
func IsReserved(id int32) bool {
	return id >= PadID && id <= EosID
}

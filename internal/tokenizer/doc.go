// Package tokenizer maps text to the integer ids consumed by the
// transformer and back.
//
// Ids 0 to 3 are reserved for padding, unknown, begin and end of sequence.
// A subword model (tiktoken or a HuggingFace tokenizer.json) produces ids
// from 0, and Reserved shifts them past the reserved block:
//
//	model, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tok := tokenizer.NewReserved(model, tokenizer.WithBosEos(true))
//
//	ids, err := tok.Encode("Hello, world!") // [2, ..., 3]
//	text, err := tok.Decode(ids)            // "Hello, world!"
package tokenizer

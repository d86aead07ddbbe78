package tokenizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// letters maps 'a'..'z' to 0..25.
type letters struct{}

func (letters) Encode(text string) ([]int32, error) {
	ids := make([]int32, 0, len(text))
	for _, r := range text {
		if r < 'a' || r > 'z' {
			return nil, errors.New("not a letter")
		}
		ids = append(ids, r-'a')
	}
	return ids, nil
}

func (letters) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	for _, id := range tokens {
		sb.WriteRune('a' + id)
	}
	return sb.String(), nil
}

func (letters) VocabSize() int { return 26 }

func TestReserved_Encode(t *testing.T) {
	tests := []struct {
		name string
		opts []ReservedOption
		want []int32
	}{
		{"plain", nil, []int32{4, 5, 6}},
		{"wrapped", []ReservedOption{WithBosEos(true)}, []int32{BosID, 4, 5, 6, EosID}},
		{"min id", []ReservedOption{WithMinID(10)}, []int32{10, 11, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewReserved(letters{}, tt.opts...)
			ids, err := tok.Encode("abc")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)

			text, err := tok.Decode(ids)
			require.NoError(t, err)
			assert.Equal(t, "abc", text)
		})
	}
}

func TestReserved_Vocab(t *testing.T) {
	var tok Tokenizer = NewReserved(letters{})
	assert.Equal(t, 30, tok.VocabSize())
	assert.Equal(t, DefaultMinID, tok.MinID())

	assert.Equal(t, 36, NewReserved(letters{}, WithMinID(10)).VocabSize())
	assert.Panics(t, func() { NewReserved(letters{}, WithMinID(2)) })
}

func TestReserved_Decode(t *testing.T) {
	tok := NewReserved(letters{})

	text, err := tok.Decode([]int32{BosID, 11, PadID, UnkID, 8, EosID, PadID})
	require.NoError(t, err)
	assert.Equal(t, "he", text)

	_, err = tok.Decode([]int32{30})
	assert.Error(t, err)
	_, err = tok.Decode([]int32{-1})
	assert.Error(t, err)
}

func TestReserved_EncodeError(t *testing.T) {
	_, err := NewReserved(letters{}).Encode("ABC")
	assert.Error(t, err)
}

func TestIsReserved(t *testing.T) {
	for _, id := range []int32{PadID, UnkID, BosID, EosID} {
		assert.True(t, IsReserved(id))
	}
	assert.False(t, IsReserved(DefaultMinID))
	assert.False(t, IsReserved(-1))
}

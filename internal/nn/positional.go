package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// SinusoidTable is the fixed sinusoidal positional encoding table from
// "Attention is All You Need" (Vaswani et al., 2017).
//
//	T[pos][i] = sin(pos / 10000^(2*(i/2)/d))  for even i
//	T[pos][i] = cos(pos / 10000^(2*(i/2)/d))  for odd i
//
// The row at the padding position is the zero vector. The table is looked up
// by position id like an embedding but it is not a Parameter: it is computed
// once and exposes no way to modify it.
//
// Example:
//
//	pe := nn.NewSinusoidTable(maxLen+1, 512, nn.PadIndex, backend)
//	enc, err := pe.Lookup(positions) // [batch, seq] -> [batch, seq, 512]
type SinusoidTable[B tensor.Backend] struct {
	table      *tensor.Tensor[float32, B] // [n_position, d_hid]
	nPosition  int
	dHid       int
	paddingIdx int
}

// NewSinusoidTable pre-computes the table for positions [0, nPosition).
// paddingIdx may be NoPadding.
func NewSinusoidTable[B tensor.Backend](nPosition, dHid, paddingIdx int, backend B) *SinusoidTable[B] {
	if nPosition <= 0 {
		panic(fmt.Sprintf("SinusoidTable: nPosition must be positive, got %d", nPosition))
	}
	if dHid <= 0 {
		panic(fmt.Sprintf("SinusoidTable: dHid must be positive, got %d", dHid))
	}

	table := tensor.Zeros[float32](tensor.Shape{nPosition, dHid}, backend)
	data := table.Data()
	for pos := 0; pos < nPosition; pos++ {
		if pos == paddingIdx {
			continue
		}
		for i := 0; i < dHid; i++ {
			data[pos*dHid+i] = float32(sinusoid(pos, i, dHid))
		}
	}

	return &SinusoidTable[B]{
		table:      table,
		nPosition:  nPosition,
		dHid:       dHid,
		paddingIdx: paddingIdx,
	}
}

func sinusoid(pos, i, dHid int) float64 {
	angle := float64(pos) / math.Pow(10000, float64(2*(i/2))/float64(dHid))
	if i%2 == 0 {
		return math.Sin(angle)
	}
	return math.Cos(angle)
}

// Lookup gathers the rows for the given position ids.
//
// Returns ErrPositionOutOfRange if any id lies outside [0, NPosition).
func (s *SinusoidTable[B]) Lookup(positions *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	for _, p := range positions.Data() {
		if p < 0 || int(p) >= s.nPosition {
			return nil, fmt.Errorf("position %d not in [0, %d): %w", p, s.nPosition, ErrPositionOutOfRange)
		}
	}
	return tensor.Embedding(s.table, positions), nil
}

// At returns T[pos][i].
func (s *SinusoidTable[B]) At(pos, i int) float32 {
	return s.table.At(pos, i)
}

// Row returns a copy of the encoding for pos.
func (s *SinusoidTable[B]) Row(pos int) []float32 {
	if pos < 0 || pos >= s.nPosition {
		panic(fmt.Sprintf("SinusoidTable: position %d out of range [0, %d)", pos, s.nPosition))
	}
	row := make([]float32, s.dHid)
	copy(row, s.table.Data()[pos*s.dHid:])
	return row
}

// NPosition returns the number of rows (maximum position id + 1).
func (s *SinusoidTable[B]) NPosition() int {
	return s.nPosition
}

// Dim returns the encoding width.
func (s *SinusoidTable[B]) Dim() int {
	return s.dHid
}

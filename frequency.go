package textpress

import (
	"fmt"
	"math"
	"sort"
)

// Symbol is one unit of input text. Symbols are bytes, so any string
// round-trips exactly; ties are broken by byte value.
type Symbol = byte

// FrequencyTable maps every symbol of a text to its occurrence count. It is
// the only side channel an artifact carries: the encoding tree is rebuilt
// from it on decode.
//
// Encoded as JSON, keys are decimal byte values: {"97":5,"98":2}.
type FrequencyTable map[Symbol]int

// Analyze counts symbol occurrences in text. It returns the table together
// with the symbol sequence in original order.
func Analyze(text string) (FrequencyTable, []Symbol, error) {
	if len(text) == 0 {
		return nil, nil, ErrEmptyInput
	}

	seq := []Symbol(text)
	table := make(FrequencyTable)
	for _, s := range seq {
		table[s]++
	}
	return table, seq, nil
}

// Validate checks that the table is non-empty and every count is positive.
func (t FrequencyTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no symbols", ErrMalformedFrequencyTable)
	}

	total := 0
	for _, s := range t.Symbols() {
		count := t[s]
		if count <= 0 {
			return fmt.Errorf("%w: symbol %d has count %d", ErrMalformedFrequencyTable, s, count)
		}
		if total > math.MaxInt-count {
			return fmt.Errorf("%w: total count overflows", ErrMalformedFrequencyTable)
		}
		total += count
	}
	return nil
}

// Symbols returns the table's symbols in ascending order.
func (t FrequencyTable) Symbols() []Symbol {
	symbols := make([]Symbol, 0, len(t))
	for s := range t {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return symbols
}

// Total returns the sum of all counts, which is the length of the text the
// table was built from.
func (t FrequencyTable) Total() int {
	total := 0
	for _, count := range t {
		total += count
	}
	return total
}

// Equal reports whether both tables hold the same symbols and counts.
func (t FrequencyTable) Equal(other FrequencyTable) bool {
	if len(t) != len(other) {
		return false
	}
	for s, count := range t {
		if c, ok := other[s]; !ok || c != count {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of t.
func (t FrequencyTable) Clone() FrequencyTable {
	out := make(FrequencyTable, len(t))
	for s, count := range t {
		out[s] = count
	}
	return out
}

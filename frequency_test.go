package textpress

import (
	"errors"
	"math"
	"testing"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  FrequencyTable
		total int
	}{
		{"single", "a", FrequencyTable{'a': 1}, 1},
		{"repeated", "aaaa", FrequencyTable{'a': 4}, 4},
		{"abracadabra", "abracadabra", FrequencyTable{'a': 5, 'b': 2, 'r': 2, 'c': 1, 'd': 1}, 11},
		{"binary", "\x00\xff\x00", FrequencyTable{0x00: 2, 0xff: 1}, 3},
		{"multibyte", "é", FrequencyTable{0xc3: 1, 0xa9: 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, seq, err := Analyze(tt.text)
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if !table.Equal(tt.want) {
				t.Errorf("Expected table %v, got %v", tt.want, table)
			}
			if table.Total() != tt.total {
				t.Errorf("Expected total %d, got %d", tt.total, table.Total())
			}
			if string(seq) != tt.text {
				t.Errorf("Sequence %q does not match text %q", seq, tt.text)
			}
		})
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	_, _, err := Analyze("")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestFrequencyTableValidate(t *testing.T) {
	tests := []struct {
		name  string
		table FrequencyTable
		ok    bool
	}{
		{"valid", FrequencyTable{'a': 1, 'b': 3}, true},
		{"nil", nil, false},
		{"empty", FrequencyTable{}, false},
		{"zero count", FrequencyTable{'a': 1, 'b': 0}, false},
		{"negative count", FrequencyTable{'a': -2}, false},
		{"overflow", FrequencyTable{'a': math.MaxInt, 'b': 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.ok && err != nil {
				t.Errorf("Expected valid table, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformedFrequencyTable) {
				t.Errorf("Expected ErrMalformedFrequencyTable, got %v", err)
			}
		})
	}
}

func TestFrequencyTableSymbols(t *testing.T) {
	table := FrequencyTable{'r': 2, 'a': 5, 'd': 1, 'b': 2, 'c': 1}
	got := string(table.Symbols())
	if got != "abcdr" {
		t.Errorf("Expected ascending symbols abcdr, got %q", got)
	}
}

func TestFrequencyTableClone(t *testing.T) {
	table := FrequencyTable{'a': 1}
	clone := table.Clone()
	clone['a'] = 7
	clone['b'] = 1
	if table['a'] != 1 || len(table) != 1 {
		t.Errorf("Clone shares storage with original: %v", table)
	}
}

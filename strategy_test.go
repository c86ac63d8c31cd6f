package textpress

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSelectPrimary(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		want       Strategy
	}{
		{
			name: "shortest wins",
			candidates: []Candidate{
				{Strategy: StrategyHuffman, Length: 30},
				{Strategy: StrategyRunLength, Length: 12},
				{Strategy: StrategyBlockSort, Length: 20},
			},
			want: StrategyRunLength,
		},
		{
			name: "tie goes to lowest id",
			candidates: []Candidate{
				{Strategy: StrategyBlockSort, Length: 10},
				{Strategy: StrategyRunLength, Length: 10},
				{Strategy: StrategyMoveToFront, Length: 10},
			},
			want: StrategyRunLength,
		},
		{
			name: "tie regardless of order",
			candidates: []Candidate{
				{Strategy: StrategyMoveToFront, Length: 4},
				{Strategy: StrategyHuffman, Length: 4},
			},
			want: StrategyHuffman,
		},
		{
			name:       "single",
			candidates: []Candidate{{Strategy: StrategyMoveToFront, Length: 99}},
			want:       StrategyMoveToFront,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, err := SelectPrimary(tt.candidates)
			if err != nil {
				t.Fatalf("SelectPrimary failed: %v", err)
			}
			if best.Strategy != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, best.Strategy)
			}
		})
	}
}

func TestSelectPrimaryEmpty(t *testing.T) {
	if _, err := SelectPrimary(nil); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
}

func TestStrategyNames(t *testing.T) {
	for _, s := range Strategies() {
		parsed, err := ParseStrategy(s.String())
		if err != nil {
			t.Fatalf("ParseStrategy(%q) failed: %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("Expected %d, got %d", s, parsed)
		}
	}

	if s, err := ParseStrategy("2"); err != nil || s != StrategyBlockSort {
		t.Errorf("Expected block-sort for id 2, got %v, %v", s, err)
	}
	for _, bad := range []string{"", "lzw", "4", "-1"} {
		if _, err := ParseStrategy(bad); !errors.Is(err, ErrUnknownStrategy) {
			t.Errorf("ParseStrategy(%q): expected ErrUnknownStrategy, got %v", bad, err)
		}
	}
	if got := Strategy(9).String(); got != "strategy(9)" {
		t.Errorf("Expected strategy(9), got %s", got)
	}
}

func TestEveryStrategyRoundTrip(t *testing.T) {
	texts := []string{
		"a",
		"aaaa",
		"ab",
		"abracadabra",
		"mississippi",
		"aaaaabbbbbbbbbbcccccccccccccccccccc",
		"\x00\x00\x00\xff",
	}

	for _, s := range Strategies() {
		for _, text := range texts {
			table, seq, _ := Analyze(text)
			tree, _ := BuildTree(table)

			cand, err := encodeCandidate(s, seq, table, tree, tree.Codes())
			if err != nil {
				t.Fatalf("%s %q: encode failed: %v", s, text, err)
			}
			if cand.Length != len(cand.Bits) {
				t.Errorf("%s %q: Length %d does not match %d bits", s, text, cand.Length, len(cand.Bits))
			}

			got, err := levels[s].decode(newBitReader(cand.Bits), table, tree)
			if err != nil {
				t.Fatalf("%s %q: decode failed: %v", s, text, err)
			}
			if string(got) != text {
				t.Errorf("%s: expected %q, got %q", s, text, got)
			}
		}
	}
}

func TestRunLengthEncoding(t *testing.T) {
	// One symbol, one run: code "0" plus gamma(4) = "00100".
	table, seq, _ := Analyze("aaaa")
	tree, _ := BuildTree(table)
	cand, err := encodeCandidate(StrategyRunLength, seq, table, tree, tree.Codes())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if cand.Bits != "000100" {
		t.Errorf("Expected 000100, got %s", cand.Bits)
	}
}

func TestDecodeOverrunsTable(t *testing.T) {
	// A run of 3 against a table total of 2.
	table := FrequencyTable{'a': 2}
	tree, _ := BuildTree(table)
	_, err := levels[StrategyRunLength].decode(newBitReader("0011"), table, tree)
	if !errors.Is(err, ErrBitstreamDesync) {
		t.Errorf("Expected ErrBitstreamDesync, got %v", err)
	}

	_, err = levels[StrategyHuffman].decode(newBitReader("000"), table, tree)
	if !errors.Is(err, ErrBitstreamDesync) {
		t.Errorf("Expected ErrBitstreamDesync, got %v", err)
	}
}

func TestDecodeLongRunCanceled(t *testing.T) {
	// One run of 1<<40 symbols, which the table admits.
	table := FrequencyTable{'a': 1 << 40}
	tree, _ := BuildTree(table)
	bits := "0" + strings.Repeat("0", 40) + "1" + strings.Repeat("0", 40)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, s := range []Strategy{StrategyRunLength, StrategyBlockSort} {
		in := bits
		if s == StrategyBlockSort {
			in = "1" + bits // row 0
		}
		r := newBitReader(in)
		r.ctx = ctx
		if _, err := levels[s].decode(r, table, tree); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", s, err)
		}
	}
}

func TestEncodeCandidateUnknown(t *testing.T) {
	table, seq, _ := Analyze("ab")
	tree, _ := BuildTree(table)
	if _, err := encodeCandidate(Strategy(7), seq, table, tree, tree.Codes()); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
}

func TestLimitAdd(t *testing.T) {
	l := limit{max: 5}
	if err := l.add(3); err != nil {
		t.Fatalf("add(3) failed: %v", err)
	}
	if err := l.add(2); err != nil {
		t.Fatalf("add(2) failed: %v", err)
	}
	if err := l.add(1); !errors.Is(err, ErrBitstreamDesync) {
		t.Errorf("Expected ErrBitstreamDesync past the limit, got %v", err)
	}
}

package textpress

import (
	"strings"
	"testing"
)

func TestBuildTreeAbracadabra(t *testing.T) {
	table, seq, _ := Analyze("abracadabra")
	tree, err := BuildTree(table)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}

	want := CodeTable{'a': "0", 'c': "100", 'd': "101", 'b': "110", 'r': "111"}
	codes := tree.Codes()
	for s, code := range want {
		if codes[s] != code {
			t.Errorf("Symbol %q: expected code %s, got %s", s, code, codes[s])
		}
	}
	if n := codes.Length(seq); n != 23 {
		t.Errorf("Expected 23 bits, got %d", n)
	}
	if tree.Leaves() != 5 {
		t.Errorf("Expected 5 leaves, got %d", tree.Leaves())
	}
	if tree.Weight() != 11 {
		t.Errorf("Expected root weight 11, got %d", tree.Weight())
	}
}

func TestBuildTreeDeterministic(t *testing.T) {
	tables := []FrequencyTable{
		{'a': 1, 'b': 1, 'c': 1, 'd': 1},
		{'x': 3, 'y': 3, 'z': 3, 'w': 1, 'v': 1},
		{0: 10, 1: 10, 2: 5, 3: 5, 4: 5, 5: 5, 255: 20},
	}

	for _, table := range tables {
		first, err := BuildTree(table)
		if err != nil {
			t.Fatalf("BuildTree failed: %v", err)
		}
		for i := 0; i < 20; i++ {
			again, _ := BuildTree(table.Clone())
			if again.String() != first.String() {
				t.Fatalf("Tree differs between builds:\n%s\n%s", first, again)
			}
		}
	}
}

func TestBuildTreeTieBreak(t *testing.T) {
	// All weights equal: leaves pair up by symbol value before any
	// internal node is used.
	tree, _ := BuildTree(FrequencyTable{'d': 1, 'c': 1, 'b': 1, 'a': 1})
	if got, want := tree.String(), "(('a':1 'b':1) ('c':1 'd':1))"; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	// A leaf of equal weight is taken before an internal node.
	tree, _ = BuildTree(FrequencyTable{'a': 1, 'b': 1, 'c': 2})
	if got, want := tree.String(), "('c':2 ('a':1 'b':1))"; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestBuildTreeSingleSymbol(t *testing.T) {
	tree, err := BuildTree(FrequencyTable{'a': 4})
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	codes := tree.Codes()
	if codes['a'] != "0" {
		t.Errorf("Expected single symbol code 0, got %q", codes['a'])
	}
	if tree.Leaves() != 1 {
		t.Errorf("Expected 1 leaf, got %d", tree.Leaves())
	}
}

func TestCodesPrefixFree(t *testing.T) {
	table := make(FrequencyTable)
	for i := 0; i < 256; i++ {
		table[Symbol(i)] = 1 + (i*i)%97
	}
	tree, err := BuildTree(table)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	codes := tree.Codes()
	if len(codes) != 256 {
		t.Fatalf("Expected 256 codes, got %d", len(codes))
	}

	for a, ca := range codes {
		if ca == "" {
			t.Fatalf("Symbol %d has an empty code", a)
		}
		for b, cb := range codes {
			if a != b && strings.HasPrefix(cb, ca) {
				t.Fatalf("Code %s of %d is a prefix of %s of %d", ca, a, cb, b)
			}
		}
	}
}

func TestCodeTableLength(t *testing.T) {
	codes := CodeTable{'a': "0", 'b': "10"}
	if n := codes.Length([]Symbol("abba")); n != 6 {
		t.Errorf("Expected 6 bits, got %d", n)
	}
	if n := codes.Length([]Symbol("abc")); n != -1 {
		t.Errorf("Expected -1 for a missing symbol, got %d", n)
	}
}

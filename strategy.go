package textpress

import "fmt"

// Candidate is one strategy's encoding of the input. Only the winner
// survives compression.
type Candidate struct {
	Strategy Strategy
	Bits     string
	Length   int
}

// levelCodec is the encode/decode pair behind a Strategy. Both sides see
// the same frequency table and the tree built from it.
type levelCodec struct {
	encode func(seq []Symbol, table FrequencyTable, tree *Tree, codes CodeTable) (string, error)
	decode func(r *bitReader, table FrequencyTable, tree *Tree) ([]Symbol, error)
}

var levels = [numStrategies]levelCodec{
	StrategyHuffman:     {encode: encodeHuffman, decode: decodeHuffman},
	StrategyRunLength:   {encode: encodeRunLength, decode: decodeRunLength},
	StrategyBlockSort:   {encode: encodeBlockSort, decode: decodeBlockSort},
	StrategyMoveToFront: {encode: encodeMoveToFront, decode: decodeMoveToFront},
}

// encodeCandidate runs one strategy to completion.
func encodeCandidate(s Strategy, seq []Symbol, table FrequencyTable, tree *Tree, codes CodeTable) (Candidate, error) {
	if !s.Valid() {
		return Candidate{}, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
	bits, err := levels[s].encode(seq, table, tree, codes)
	if err != nil {
		return Candidate{}, fmt.Errorf("%s: %w", s, err)
	}
	return Candidate{Strategy: s, Bits: bits, Length: len(bits)}, nil
}

// SelectPrimary returns the shortest candidate. Equal lengths go to the
// lowest strategy id regardless of slice order.
func SelectPrimary(candidates []Candidate) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, fmt.Errorf("%w: no candidates", ErrUnknownStrategy)
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Length < best.Length || (c.Length == best.Length && c.Strategy < best.Strategy) {
			best = c
		}
	}
	return best, nil
}

// limit caps decoded output at the table total; no valid stream decodes to
// more symbols than the text held.
type limit struct {
	max, n int
}

func (l *limit) add(k int) error {
	if k > l.max-l.n {
		return fmt.Errorf("%w: decoded more than the %d symbols the table holds", ErrBitstreamDesync, l.max)
	}
	l.n += k
	return nil
}

func encodeHuffman(seq []Symbol, _ FrequencyTable, _ *Tree, codes CodeTable) (string, error) {
	return Pack(seq, codes)
}

func decodeHuffman(r *bitReader, table FrequencyTable, tree *Tree) ([]Symbol, error) {
	lim := limit{max: table.Total()}
	var seq []Symbol
	for r.remaining() > 0 {
		s, err := r.readSymbol(tree)
		if err != nil {
			return nil, err
		}
		if err := lim.add(1); err != nil {
			return nil, err
		}
		seq = append(seq, s)
	}
	return seq, nil
}

func writeRuns(w *bitWriter, seq []Symbol, codes CodeTable) error {
	for _, rn := range mergeRuns(seq) {
		if err := w.writeSymbol(codes, rn.symbol); err != nil {
			return err
		}
		w.writeGamma(rn.length)
	}
	return nil
}

// expandChunk is how many run symbols are emitted between cancellation
// checks.
const expandChunk = 1 << 16

func readRuns(r *bitReader, tree *Tree, lim *limit) ([]Symbol, error) {
	var seq []Symbol
	for r.remaining() > 0 {
		s, err := r.readSymbol(tree)
		if err != nil {
			return nil, err
		}
		n, err := r.readGamma()
		if err != nil {
			return nil, err
		}
		if err := lim.add(n); err != nil {
			return nil, err
		}
		for n > 0 {
			if err := r.canceled(); err != nil {
				return nil, err
			}
			k := min(n, expandChunk)
			for i := 0; i < k; i++ {
				seq = append(seq, s)
			}
			n -= k
		}
	}
	return seq, nil
}

func encodeRunLength(seq []Symbol, _ FrequencyTable, _ *Tree, codes CodeTable) (string, error) {
	var w bitWriter
	if err := writeRuns(&w, seq, codes); err != nil {
		return "", err
	}
	return w.String(), nil
}

func decodeRunLength(r *bitReader, table FrequencyTable, tree *Tree) ([]Symbol, error) {
	lim := limit{max: table.Total()}
	return readRuns(r, tree, &lim)
}

func encodeBlockSort(seq []Symbol, _ FrequencyTable, _ *Tree, codes CodeTable) (string, error) {
	last, row := blockSort(seq)
	var w bitWriter
	w.writeGamma(row + 1)
	if err := writeRuns(&w, last, codes); err != nil {
		return "", err
	}
	return w.String(), nil
}

func decodeBlockSort(r *bitReader, table FrequencyTable, tree *Tree) ([]Symbol, error) {
	row, err := r.readGamma()
	if err != nil {
		return nil, err
	}
	lim := limit{max: table.Total()}
	last, err := readRuns(r, tree, &lim)
	if err != nil {
		return nil, err
	}
	return unblockSort(last, row-1)
}

// Move-to-front indexes are gamma coded rather than tree coded: the table
// describes the text's symbols, not the index alphabet.
func encodeMoveToFront(seq []Symbol, table FrequencyTable, _ *Tree, _ CodeTable) (string, error) {
	last, row := blockSort(seq)
	indexes, err := moveToFront(last, table.Symbols())
	if err != nil {
		return "", err
	}
	var w bitWriter
	w.writeGamma(row + 1)
	for _, i := range indexes {
		w.writeGamma(i + 1)
	}
	return w.String(), nil
}

func decodeMoveToFront(r *bitReader, table FrequencyTable, _ *Tree) ([]Symbol, error) {
	row, err := r.readGamma()
	if err != nil {
		return nil, err
	}
	lim := limit{max: table.Total()}
	var indexes []int
	for r.remaining() > 0 {
		i, err := r.readGamma()
		if err != nil {
			return nil, err
		}
		if err := lim.add(1); err != nil {
			return nil, err
		}
		indexes = append(indexes, i-1)
	}
	last, err := undoMoveToFront(indexes, table.Symbols())
	if err != nil {
		return nil, err
	}
	return unblockSort(last, row-1)
}

package textpress

import (
	"context"
	"fmt"
	"math/bits"
	"strings"
)

// Pack concatenates the code of every symbol of seq, in order, into a bit
// string of '0'/'1' characters.
func Pack(seq []Symbol, codes CodeTable) (string, error) {
	var w bitWriter
	for _, s := range seq {
		if err := w.writeSymbol(codes, s); err != nil {
			return "", err
		}
	}
	return w.String(), nil
}

// Unpack walks tree once per symbol, consuming one bit per edge, until the
// bit string is exhausted. Bits left over without reaching a leaf, or any
// character other than '0' and '1', yield ErrBitstreamDesync.
func Unpack(bitstring string, tree *Tree) ([]Symbol, error) {
	r := newBitReader(bitstring)
	seq := make([]Symbol, 0, len(bitstring)/2+1)
	for r.remaining() > 0 {
		s, err := r.readSymbol(tree)
		if err != nil {
			return nil, err
		}
		seq = append(seq, s)
	}
	return seq, nil
}

// bitWriter accumulates a bit string. Besides tree codes it writes
// Elias-gamma integers, used for run lengths, BWT rows and MTF indexes.
type bitWriter struct {
	sb strings.Builder
}

func (w *bitWriter) writeSymbol(codes CodeTable, s Symbol) error {
	code, ok := codes[s]
	if !ok {
		return fmt.Errorf("%w: no code for symbol %d", ErrMalformedFrequencyTable, s)
	}
	w.sb.WriteString(code)
	return nil
}

// writeGamma writes n >= 1 as floor(log2 n) zeros followed by n in binary.
func (w *bitWriter) writeGamma(n int) {
	if n < 1 {
		panic("textpress: gamma code of non-positive value")
	}
	width := bits.Len(uint(n))
	for i := 1; i < width; i++ {
		w.sb.WriteByte('0')
	}
	for i := width - 1; i >= 0; i-- {
		w.sb.WriteByte('0' + byte(n>>uint(i)&1))
	}
}

func (w *bitWriter) Len() int { return w.sb.Len() }

func (w *bitWriter) String() string { return w.sb.String() }

// gammaLength is the number of bits writeGamma emits for n.
func gammaLength(n int) int {
	return 2*bits.Len(uint(n)) - 1
}

// maxGammaWidth bounds the prefix of zeros readGamma accepts, keeping
// decoded values inside an int.
const maxGammaWidth = 62

type bitReader struct {
	bits string
	pos  int
	ctx  context.Context
}

func newBitReader(s string) *bitReader {
	return &bitReader{bits: s}
}

func (r *bitReader) remaining() int { return len(r.bits) - r.pos }

// canceled reports the reader's context error, if it has one.
func (r *bitReader) canceled() error {
	if r.ctx == nil {
		return nil
	}
	return r.ctx.Err()
}

func (r *bitReader) readBit() (int, error) {
	if r.pos >= len(r.bits) {
		return 0, fmt.Errorf("%w: unexpected end of bits at offset %d", ErrBitstreamDesync, r.pos)
	}
	c := r.bits[r.pos]
	switch c {
	case '0':
		r.pos++
		return 0, nil
	case '1':
		r.pos++
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: invalid bit %q at offset %d", ErrBitstreamDesync, c, r.pos)
	}
}

// readSymbol decodes one symbol by walking tree from the root.
func (r *bitReader) readSymbol(tree *Tree) (Symbol, error) {
	start := r.pos
	n := tree.root()
	if tree.nodes[n].leaf {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if b != 0 {
			return 0, fmt.Errorf("%w: no code starts with 1 at offset %d", ErrBitstreamDesync, start)
		}
		return tree.nodes[n].symbol, nil
	}

	for !tree.nodes[n].leaf {
		b, err := r.readBit()
		if err != nil {
			if r.pos >= len(r.bits) {
				return 0, fmt.Errorf("%w: code starting at offset %d ends mid-code", ErrBitstreamDesync, start)
			}
			return 0, err
		}
		if b == 0 {
			n = tree.nodes[n].left
		} else {
			n = tree.nodes[n].right
		}
	}
	return tree.nodes[n].symbol, nil
}

// readGamma decodes one Elias-gamma integer.
func (r *bitReader) readGamma() (int, error) {
	start := r.pos
	zeros := 0
	for {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > maxGammaWidth {
			return 0, fmt.Errorf("%w: integer at offset %d overflows", ErrBitstreamDesync, start)
		}
	}

	n := 1
	for i := 0; i < zeros; i++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		n = n<<1 | b
	}
	return n, nil
}

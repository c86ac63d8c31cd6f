package textpress

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Artifact is the complete compressed form of a text. It carries no state
// beyond these three fields.
type Artifact struct {
	// Compressed holds one '0' or '1' character per bit.
	Compressed string `json:"compressed"`

	// PrimaryIndex is the id of the winning Strategy.
	PrimaryIndex int `json:"primaryIndex"`

	// FrequencyTable counts every symbol of the original text.
	FrequencyTable FrequencyTable `json:"frequencyTable"`
}

// Strategy returns the strategy named by PrimaryIndex.
func (a *Artifact) Strategy() Strategy {
	return Strategy(a.PrimaryIndex)
}

// BitLength returns the compressed size in bits.
func (a *Artifact) BitLength() int {
	return len(a.Compressed)
}

// OriginalLength returns the length of the text the artifact encodes.
func (a *Artifact) OriginalLength() int {
	return a.FrequencyTable.Total()
}

// Binary layout, version 1:
//
//	magic    "TXPZ"
//	version  1 byte
//	strategy 1 byte
//	nsym     uvarint, 1..256
//	nsym ×   symbol byte, count uvarint (ascending symbols)
//	nbits    uvarint
//	payload  ceil(nbits/8) bytes, most significant bit first, zero padded
const (
	artifactMagic   = "TXPZ"
	artifactVersion = 1
)

// MarshalBinary packs the artifact, eight bits per byte.
func (a *Artifact) MarshalBinary() ([]byte, error) {
	if err := a.FrequencyTable.Validate(); err != nil {
		return nil, err
	}
	if a.PrimaryIndex < 0 || a.PrimaryIndex > 0xff {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, a.PrimaryIndex)
	}

	symbols := a.FrequencyTable.Symbols()
	nbits := len(a.Compressed)
	buf := make([]byte, 0, len(artifactMagic)+2+3*len(symbols)+binary.MaxVarintLen64+(nbits+7)/8)

	buf = append(buf, artifactMagic...)
	buf = append(buf, artifactVersion, byte(a.PrimaryIndex))
	buf = binary.AppendUvarint(buf, uint64(len(symbols)))
	for _, s := range symbols {
		buf = append(buf, s)
		buf = binary.AppendUvarint(buf, uint64(a.FrequencyTable[s]))
	}
	buf = binary.AppendUvarint(buf, uint64(nbits))

	var cur byte
	for i := 0; i < nbits; i++ {
		switch a.Compressed[i] {
		case '0':
		case '1':
			cur |= 0x80 >> uint(i%8)
		default:
			return nil, fmt.Errorf("%w: invalid bit %q at offset %d", ErrBitstreamDesync, a.Compressed[i], i)
		}
		if i%8 == 7 {
			buf = append(buf, cur)
			cur = 0
		}
	}
	if nbits%8 != 0 {
		buf = append(buf, cur)
	}
	return buf, nil
}

// UnmarshalBinary restores an artifact written by MarshalBinary.
func (a *Artifact) UnmarshalBinary(data []byte) error {
	if len(data) < len(artifactMagic)+2 || string(data[:len(artifactMagic)]) != artifactMagic {
		return fmt.Errorf("%w: bad magic", ErrCorruptedArchive)
	}
	data = data[len(artifactMagic):]
	if data[0] != artifactVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptedArchive, data[0])
	}
	primary := int(data[1])
	data = data[2:]

	nsym, data, err := readUvarint(data, "symbol count")
	if err != nil {
		return err
	}
	if nsym == 0 || nsym > 256 {
		return fmt.Errorf("%w: symbol count %d", ErrCorruptedArchive, nsym)
	}

	table := make(FrequencyTable, nsym)
	prev := -1
	for i := uint64(0); i < nsym; i++ {
		if len(data) == 0 {
			return fmt.Errorf("%w: truncated frequency table", ErrCorruptedArchive)
		}
		s := data[0]
		if int(s) <= prev {
			return fmt.Errorf("%w: symbol %d out of order", ErrCorruptedArchive, s)
		}
		prev = int(s)
		var count uint64
		count, data, err = readUvarint(data[1:], "symbol count")
		if err != nil {
			return err
		}
		if count == 0 || count > math.MaxInt {
			return fmt.Errorf("%w: symbol %d has count %d", ErrCorruptedArchive, s, count)
		}
		table[s] = int(count)
	}

	nbits, data, err := readUvarint(data, "bit length")
	if err != nil {
		return err
	}
	want := nbits / 8
	if nbits%8 != 0 {
		want++
	}
	if uint64(len(data)) != want {
		return fmt.Errorf("%w: payload holds %d bytes, want %d", ErrCorruptedArchive, len(data), want)
	}
	if rem := nbits % 8; rem != 0 && data[len(data)-1]&(0xff>>rem) != 0 {
		return fmt.Errorf("%w: non-zero padding", ErrCorruptedArchive)
	}

	bits := make([]byte, nbits)
	for i := range bits {
		if data[i/8]&(0x80>>uint(i%8)) != 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}

	*a = Artifact{
		Compressed:     string(bits),
		PrimaryIndex:   primary,
		FrequencyTable: table,
	}
	return nil
}

func readUvarint(data []byte, what string) (uint64, []byte, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, nil, fmt.Errorf("%w: bad %s", ErrCorruptedArchive, what)
	}
	return v, data[n:], nil
}

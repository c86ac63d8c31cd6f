package textpress

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestArtifactJSON(t *testing.T) {
	a, err := Compress("abracadabra")
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"compressed":"01101110100010101101110","primaryIndex":0,` +
		`"frequencyTable":{"100":1,"114":2,"97":5,"98":2,"99":1}}`
	if string(data) != want {
		t.Errorf("Expected %s\ngot      %s", want, data)
	}

	var back Artifact
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	text, err := Decompress(back.Compressed, back.PrimaryIndex, back.FrequencyTable)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if text != "abracadabra" {
		t.Errorf("Expected abracadabra, got %q", text)
	}
}

func TestArtifactBinary(t *testing.T) {
	for _, text := range roundTripTexts {
		a, err := Compress(text)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}

		data, err := a.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		if want := (a.BitLength() + 7) / 8; len(data) < want {
			t.Errorf("Binary form %d bytes, shorter than the %d byte payload", len(data), want)
		}

		var back Artifact
		if err := back.UnmarshalBinary(data); err != nil {
			t.Fatalf("UnmarshalBinary failed: %v", err)
		}
		if back.Compressed != a.Compressed || back.PrimaryIndex != a.PrimaryIndex ||
			!back.FrequencyTable.Equal(a.FrequencyTable) {
			t.Fatalf("%.20q: binary round trip changed the artifact", text)
		}
		if back.OriginalLength() != len(text) {
			t.Errorf("Expected original length %d, got %d", len(text), back.OriginalLength())
		}
	}
}

func TestArtifactBinaryLayout(t *testing.T) {
	a := &Artifact{
		Compressed:     "1010000011",
		PrimaryIndex:   2,
		FrequencyTable: FrequencyTable{'a': 3, 'b': 300},
	}
	data, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	want := []byte{
		'T', 'X', 'P', 'Z', 1, 2,
		2,               // symbols
		'a', 3,          // a:3
		'b', 0xac, 0x02, // b:300
		10,              // bits
		0xa0, 0xc0,      // 10100000 11000000
	}
	if string(data) != string(want) {
		t.Errorf("Expected % x\ngot      % x", want, data)
	}
}

func TestArtifactMarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		a    Artifact
		want error
	}{
		{"empty table", Artifact{Compressed: "0", FrequencyTable: FrequencyTable{}}, ErrMalformedFrequencyTable},
		{"bad bit", Artifact{Compressed: "0a", FrequencyTable: FrequencyTable{'a': 1}}, ErrBitstreamDesync},
		{"bad index", Artifact{Compressed: "0", PrimaryIndex: 300, FrequencyTable: FrequencyTable{'a': 1}}, ErrUnknownStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.a.MarshalBinary(); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestArtifactUnmarshalCorrupted(t *testing.T) {
	a, _ := Compress("abracadabra")
	good, _ := a.MarshalBinary()

	corrupt := func(f func([]byte) []byte) []byte {
		return f(append([]byte(nil), good...))
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", corrupt(func(b []byte) []byte { b[0] = 'X'; return b })},
		{"bad version", corrupt(func(b []byte) []byte { b[4] = 9; return b })},
		{"truncated", good[:len(good)-1]},
		{"trailing byte", append(append([]byte(nil), good...), 0)},
		{"zero symbols", []byte{'T', 'X', 'P', 'Z', 1, 0, 0}},
		{"zero count", []byte{'T', 'X', 'P', 'Z', 1, 0, 1, 'a', 0, 1, 0}},
		{"unsorted symbols", []byte{'T', 'X', 'P', 'Z', 1, 0, 2, 'b', 1, 'a', 1, 1, 0}},
		{"duplicate symbols", []byte{'T', 'X', 'P', 'Z', 1, 0, 2, 'a', 1, 'a', 1, 1, 0}},
		{"non-zero padding", []byte{'T', 'X', 'P', 'Z', 1, 0, 1, 'a', 1, 1, 0x01}},
		{"bad varint", []byte{'T', 'X', 'P', 'Z', 1, 0, 0xff}},
		{"huge bit length", []byte{'T', 'X', 'P', 'Z', 1, 0, 1, 'a', 1,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
		{"bit length past payload", []byte{'T', 'X', 'P', 'Z', 1, 0, 1, 'a', 1, 17, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var back Artifact
			if err := back.UnmarshalBinary(tt.data); !errors.Is(err, ErrCorruptedArchive) {
				t.Errorf("Expected ErrCorruptedArchive, got %v", err)
			}
		})
	}
}

package textpress

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// ArtifactExtension marks a stored artifact before any container extension.
const ArtifactExtension = ".txp"

// Extension mapping
var extensionMap = map[Algorithm]string{
	AlgorithmGzip:   ".gz",
	AlgorithmZstd:   ".zst",
	AlgorithmLZ4:    ".lz4",
	AlgorithmBrotli: ".br",
	AlgorithmSnappy: ".sz",
}

// Reverse extension mapping (extension -> algorithm)
var reverseExtensionMap = map[string]Algorithm{
	".gz":     AlgorithmGzip,
	".gzip":   AlgorithmGzip,
	".zst":    AlgorithmZstd,
	".zstd":   AlgorithmZstd,
	".lz4":    AlgorithmLZ4,
	".br":     AlgorithmBrotli,
	".sz":     AlgorithmSnappy,
	".snappy": AlgorithmSnappy,
}

// Magic bytes for format detection. Brotli streams carry no magic.
var magicBytes = []struct {
	algo  Algorithm
	magic []byte
}{
	{AlgorithmGzip, []byte{0x1f, 0x8b}},
	{AlgorithmZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{AlgorithmLZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
	{AlgorithmSnappy, []byte{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59}},
	{AlgorithmNone, []byte(artifactMagic)},
}

// GetExtension returns the file extension for an algorithm
func GetExtension(algo Algorithm) string {
	return extensionMap[algo]
}

// DetectAlgorithmFromExtension detects the algorithm from file extension
func DetectAlgorithmFromExtension(name string) (Algorithm, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if algo, ok := reverseExtensionMap[ext]; ok {
		return algo, true
	}
	if ext == ArtifactExtension {
		return AlgorithmNone, true
	}
	return "", false
}

// DetectAlgorithm detects the container algorithm from magic bytes. It
// returns "" when nothing matches.
func DetectAlgorithm(r io.Reader) (Algorithm, error) {
	buf := make([]byte, 10)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	algo, _ := IsCompressed(buf[:n])
	return algo, nil
}

// AddExtension returns the stored name of an artifact: name plus
// ArtifactExtension plus the algorithm's extension, e.g. "notes.txp.zst".
func AddExtension(name string, algo Algorithm) string {
	if !strings.HasSuffix(name, ArtifactExtension) {
		name += ArtifactExtension
	}
	return name + GetExtension(algo)
}

// StripExtension reverses AddExtension. ok is false when name does not look
// like a stored artifact.
func StripExtension(name string) (base string, algo Algorithm, ok bool) {
	algo = AlgorithmNone
	ext := strings.ToLower(filepath.Ext(name))
	if a, found := reverseExtensionMap[ext]; found {
		algo = a
		name = name[:len(name)-len(ext)]
	}
	if !strings.HasSuffix(name, ArtifactExtension) {
		return name, "", false
	}
	return strings.TrimSuffix(name, ArtifactExtension), algo, true
}

// HasCompressionExtension checks if filename has a container extension
func HasCompressionExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := reverseExtensionMap[ext]
	return ok
}

// IsCompressed reports the container algorithm whose magic bytes prefix
// data. A bare binary artifact reports AlgorithmNone.
func IsCompressed(data []byte) (Algorithm, bool) {
	for _, m := range magicBytes {
		if bytes.HasPrefix(data, m.magic) {
			return m.algo, true
		}
	}
	return "", false
}

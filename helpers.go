package textpress

import (
	"errors"
	"fmt"
)

// Preset configurations for common use cases

// FastestConfig returns a configuration optimized for speed: candidates are
// evaluated concurrently and archives use lz4.
func FastestConfig() *Config {
	return &Config{
		Parallel:  true,
		Algorithm: AlgorithmLZ4,
		Level:     0,
	}
}

// BestCompressionConfig returns a configuration optimized for archive size.
// Use for write-once/read-many archives.
func BestCompressionConfig() *Config {
	return &Config{
		Parallel:  true,
		Algorithm: AlgorithmBrotli,
		Level:     11,
	}
}

// ArchiveConfig returns a configuration using gzip for maximum compatibility
// with external tools.
func ArchiveConfig() *Config {
	return &Config{
		Algorithm: AlgorithmGzip,
		Level:     9,
	}
}

// PackArtifact encodes a to its binary form and wraps it in the container
// algorithm. AlgorithmNone returns the bare binary form.
func PackArtifact(a *Artifact, algo Algorithm, level int) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrMalformedFrequencyTable)
	}
	raw, err := a.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if algo == "" || algo == AlgorithmNone {
		return raw, nil
	}
	return compressBytes(raw, algo, level)
}

// UnpackArtifact reverses PackArtifact. The container is detected from its
// magic bytes; data with no recognizable magic is tried as brotli.
func UnpackArtifact(data []byte) (*Artifact, error) {
	algo, ok := IsCompressed(data)
	if !ok {
		algo = AlgorithmBrotli
	}

	a, err := unpackWith(data, algo)
	if err != nil && ok && algo != AlgorithmNone {
		// A brotli stream can start with another format's magic.
		if b, berr := unpackWith(data, AlgorithmBrotli); berr == nil {
			return b, nil
		}
	}
	return a, err
}

func unpackWith(data []byte, algo Algorithm) (*Artifact, error) {
	raw := data
	if algo != AlgorithmNone {
		var err error
		raw, err = decompressBytes(data, algo)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedArchive, algo, err)
		}
	}
	a := new(Artifact)
	if err := a.UnmarshalBinary(raw); err != nil {
		if !errors.Is(err, ErrCorruptedArchive) {
			err = fmt.Errorf("%w: %v", ErrCorruptedArchive, err)
		}
		return nil, err
	}
	return a, nil
}

// DetectCompressionAlgorithm detects the container algorithm from data
func DetectCompressionAlgorithm(data []byte) (Algorithm, bool) {
	return IsCompressed(data)
}

// GetCompressionRatio returns the size of a bitLen-bit encoding relative to
// a textLen-byte text. Lower is better; 0.5 means half the original size.
func GetCompressionRatio(textLen, bitLen int) float64 {
	if textLen == 0 {
		return 0
	}
	return float64(bitLen) / float64(textLen*8)
}

// GetCompressionPercentage returns the percentage of space saved (0-100
// for encodings that shrink the text, negative when it grows).
func GetCompressionPercentage(textLen, bitLen int) float64 {
	if textLen == 0 {
		return 0
	}
	return (1 - GetCompressionRatio(textLen, bitLen)) * 100
}

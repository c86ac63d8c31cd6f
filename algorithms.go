package textpress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm is the container compression wrapped around a binary artifact
// when it is exported or stored.
type Algorithm string

const (
	AlgorithmNone   Algorithm = "none"
	AlgorithmGzip   Algorithm = "gzip"
	AlgorithmZstd   Algorithm = "zstd"
	AlgorithmLZ4    Algorithm = "lz4"
	AlgorithmBrotli Algorithm = "brotli"
	AlgorithmSnappy Algorithm = "snappy"
)

// Algorithms lists the supported container algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmNone, AlgorithmGzip, AlgorithmZstd, AlgorithmLZ4, AlgorithmBrotli, AlgorithmSnappy}
}

// Valid reports whether a is a supported container algorithm.
func (a Algorithm) Valid() bool {
	for _, algo := range Algorithms() {
		if a == algo {
			return true
		}
	}
	return false
}

// createCompressor creates a compressor for the specified algorithm
func createCompressor(algo Algorithm, w io.Writer, level int) (io.WriteCloser, error) {
	switch algo {
	case AlgorithmNone:
		return nopWriteCloser{w}, nil
	case AlgorithmGzip:
		return createGzipCompressor(w, level)
	case AlgorithmZstd:
		return createZstdCompressor(w, level)
	case AlgorithmLZ4:
		return createLZ4Compressor(w, level)
	case AlgorithmBrotli:
		return createBrotliCompressor(w, level)
	case AlgorithmSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
}

// createDecompressor creates a decompressor for the specified algorithm
func createDecompressor(algo Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch algo {
	case AlgorithmNone:
		return io.NopCloser(r), nil
	case AlgorithmGzip:
		return gzip.NewReader(r)
	case AlgorithmZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case AlgorithmLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case AlgorithmBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case AlgorithmSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
}

// Gzip implementation using standard library
func createGzipCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	zw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip level %d", ErrInvalidLevel, level)
	}
	return zw, nil
}

func createZstdCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	if level < 0 || level > 22 {
		return nil, fmt.Errorf("%w: zstd level %d", ErrInvalidLevel, level)
	}
	opts := []zstd.EOption{}
	if level != 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	return zstd.NewWriter(w, opts...)
}

func createLZ4Compressor(w io.Writer, level int) (io.WriteCloser, error) {
	if level < 0 || level > 9 {
		return nil, fmt.Errorf("%w: lz4 level %d", ErrInvalidLevel, level)
	}
	zw := lz4.NewWriter(w)
	if level != 0 {
		// Level1 is 1<<9, each following level doubles.
		if err := zw.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(1 << (8 + level)))); err != nil {
			return nil, err
		}
	}
	return zw, nil
}

func createBrotliCompressor(w io.Writer, level int) (io.WriteCloser, error) {
	if level < 0 || level > brotli.BestCompression {
		return nil, fmt.Errorf("%w: brotli level %d", ErrInvalidLevel, level)
	}
	if level == 0 {
		level = brotli.DefaultCompression
	}
	return brotli.NewWriterLevel(w, level), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressBytes runs data through the algorithm's compressor.
func compressBytes(data []byte, algo Algorithm, level int) ([]byte, error) {
	var buf bytes.Buffer
	compressor, err := createCompressor(algo, &buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := compressor.Write(data); err != nil {
		compressor.Close()
		return nil, err
	}
	if err := compressor.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maxUnpackedSize caps what decompressBytes will inflate, so a small
// archive cannot expand without bound.
var maxUnpackedSize int64 = 1 << 30

// decompressBytes reverses compressBytes.
func decompressBytes(data []byte, algo Algorithm) ([]byte, error) {
	decompressor, err := createDecompressor(algo, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer decompressor.Close()

	out, err := io.ReadAll(io.LimitReader(decompressor, maxUnpackedSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > maxUnpackedSize {
		return nil, fmt.Errorf("%w: %s stream inflates past %d bytes", ErrCorruptedArchive, algo, maxUnpackedSize)
	}
	return out, nil
}

package textpress

import (
	"math"
	"testing"
)

func TestPresetConfigs(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"Default", DefaultConfig()},
		{"Fastest", FastestConfig()},
		{"BestCompression", BestCompressionConfig()},
		{"Archive", ArchiveConfig()},
	}

	text := "She sells sea shells by the sea shore. "
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.config == nil {
				t.Fatal("Config is nil")
			}
			if !tt.config.Algorithm.Valid() {
				t.Errorf("Algorithm %q not valid", tt.config.Algorithm)
			}

			codec, err := New(tt.config)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			a, err := codec.Compress(text)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}

			data, err := PackArtifact(a, tt.config.Algorithm, tt.config.Level)
			if err != nil {
				t.Fatalf("PackArtifact failed: %v", err)
			}
			if algo, _ := DetectCompressionAlgorithm(data); tt.config.Algorithm != AlgorithmBrotli && algo != tt.config.Algorithm {
				t.Errorf("Expected %s archive, detected %q", tt.config.Algorithm, algo)
			}

			back, err := UnpackArtifact(data)
			if err != nil {
				t.Fatalf("UnpackArtifact failed: %v", err)
			}
			got, err := codec.DecompressArtifact(back)
			if err != nil || got != text {
				t.Errorf("Expected %q, got %q (%v)", text, got, err)
			}
		})
	}
}

func TestPackArtifactNil(t *testing.T) {
	if _, err := PackArtifact(nil, AlgorithmZstd, 0); err == nil {
		t.Error("Expected error for nil artifact")
	}
}

func TestGetCompressionRatio(t *testing.T) {
	tests := []struct {
		textLen, bitLen int
		ratio, percent  float64
	}{
		{0, 0, 0, 0},
		{11, 23, 23.0 / 88, (1 - 23.0/88) * 100},
		{1, 8, 1, 0},
		{2, 32, 2, -100},
		{100, 0, 0, 100},
	}

	for _, tt := range tests {
		if r := GetCompressionRatio(tt.textLen, tt.bitLen); math.Abs(r-tt.ratio) > 1e-9 {
			t.Errorf("GetCompressionRatio(%d, %d): expected %f, got %f", tt.textLen, tt.bitLen, tt.ratio, r)
		}
		if p := GetCompressionPercentage(tt.textLen, tt.bitLen); math.Abs(p-tt.percent) > 1e-9 {
			t.Errorf("GetCompressionPercentage(%d, %d): expected %f, got %f", tt.textLen, tt.bitLen, tt.percent, p)
		}
	}
}

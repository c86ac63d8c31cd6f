package textpress

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("textpress")

// Strategy identifies one compression level: an optional pre-transform of
// the symbol sequence paired with a coding scheme. The ordinal of the
// winning Strategy is the artifact's primaryIndex.
type Strategy int

const (
	// StrategyHuffman codes the raw symbol sequence with the canonical tree.
	StrategyHuffman Strategy = iota
	// StrategyRunLength merges runs of equal symbols; each run is the
	// symbol's code followed by an Elias-gamma run length.
	StrategyRunLength
	// StrategyBlockSort applies the Burrows-Wheeler transform and then
	// codes the result like StrategyRunLength.
	StrategyBlockSort
	// StrategyMoveToFront applies the Burrows-Wheeler transform followed by
	// move-to-front; indexes are Elias-gamma coded.
	StrategyMoveToFront

	numStrategies
)

var strategyNames = [numStrategies]string{
	StrategyHuffman:     "huffman",
	StrategyRunLength:   "run-length",
	StrategyBlockSort:   "block-sort",
	StrategyMoveToFront: "move-to-front",
}

// String returns the strategy name, e.g. "run-length".
func (s Strategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// Valid reports whether s is one of the implemented strategies.
func (s Strategy) Valid() bool {
	return s >= 0 && s < numStrategies
}

// Strategies returns every implemented strategy in id order.
func Strategies() []Strategy {
	all := make([]Strategy, 0, numStrategies)
	for s := StrategyHuffman; s < numStrategies; s++ {
		all = append(all, s)
	}
	return all
}

// ParseStrategy resolves a strategy by name or decimal id.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return Strategy(s), nil
		}
	}
	if id, err := strconv.Atoi(name); err == nil {
		if s := Strategy(id); s.Valid() {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Config holds codec configuration
type Config struct {
	// Candidate strategies evaluated by Compress (default: all)
	// Decompress always accepts every implemented strategy.
	Strategies []Strategy

	// Maximum input size in bytes, checked before any work (0 = unlimited)
	MaxInputSize int

	// Evaluate candidate strategies concurrently
	Parallel bool

	// Container algorithm for binary archives (default: zstd)
	Algorithm Algorithm

	// Container compression level (algorithm-specific)
	// gzip: 1-9 (6 default)
	// zstd: 1-22 (3 default)
	// lz4: 1-9 (fast default)
	// brotli: 0-11 (6 default)
	// snappy, none: ignored
	Level int
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Strategies:   nil,
		MaxInputSize: 0,
		Parallel:     false,
		Algorithm:    AlgorithmZstd,
		Level:        3,
	}
}

// Stats holds codec and store statistics
type Stats struct {
	TextsCompressed   int64
	TextsDecompressed int64
	Failures          int64

	SymbolsIn int64
	BitsOut   int64

	ArtifactsSaved  int64
	ArtifactsLoaded int64
	BytesStored     int64
	BytesLoaded     int64

	StrategyCounts  sync.Map // map[Strategy]*int64
	AlgorithmCounts sync.Map // map[Algorithm]*int64
}

// GetStrategyCount returns how often a strategy won selection.
func (s *Stats) GetStrategyCount(strategy Strategy) int64 {
	if val, ok := s.StrategyCounts.Load(strategy); ok {
		return atomic.LoadInt64(val.(*int64))
	}
	return 0
}

// IncrementStrategyCount increments the count for a specific strategy
func (s *Stats) IncrementStrategyCount(strategy Strategy) {
	val, _ := s.StrategyCounts.LoadOrStore(strategy, new(int64))
	atomic.AddInt64(val.(*int64), 1)
}

// GetAlgorithmCount returns the count for a specific container algorithm
func (s *Stats) GetAlgorithmCount(algo Algorithm) int64 {
	if val, ok := s.AlgorithmCounts.Load(algo); ok {
		return atomic.LoadInt64(val.(*int64))
	}
	return 0
}

// IncrementAlgorithmCount increments the count for a specific algorithm
func (s *Stats) IncrementAlgorithmCount(algo Algorithm) {
	val, _ := s.AlgorithmCounts.LoadOrStore(algo, new(int64))
	atomic.AddInt64(val.(*int64), 1)
}

// TotalCompressionRatio returns bits emitted per input bit over all
// compressed texts. Lower is better.
func (s *Stats) TotalCompressionRatio() float64 {
	symbols := atomic.LoadInt64(&s.SymbolsIn)
	if symbols == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&s.BitsOut)) / float64(symbols*8)
}

// snapshot copies s; counters are read atomically.
func (s *Stats) snapshot() *Stats {
	out := &Stats{
		TextsCompressed:   atomic.LoadInt64(&s.TextsCompressed),
		TextsDecompressed: atomic.LoadInt64(&s.TextsDecompressed),
		Failures:          atomic.LoadInt64(&s.Failures),
		SymbolsIn:         atomic.LoadInt64(&s.SymbolsIn),
		BitsOut:           atomic.LoadInt64(&s.BitsOut),
		ArtifactsSaved:    atomic.LoadInt64(&s.ArtifactsSaved),
		ArtifactsLoaded:   atomic.LoadInt64(&s.ArtifactsLoaded),
		BytesStored:       atomic.LoadInt64(&s.BytesStored),
		BytesLoaded:       atomic.LoadInt64(&s.BytesLoaded),
	}
	s.StrategyCounts.Range(func(k, v any) bool {
		n := atomic.LoadInt64(v.(*int64))
		out.StrategyCounts.Store(k, &n)
		return true
	})
	s.AlgorithmCounts.Range(func(k, v any) bool {
		n := atomic.LoadInt64(v.(*int64))
		out.AlgorithmCounts.Store(k, &n)
		return true
	})
	return out
}

func (s *Stats) reset() {
	atomic.StoreInt64(&s.TextsCompressed, 0)
	atomic.StoreInt64(&s.TextsDecompressed, 0)
	atomic.StoreInt64(&s.Failures, 0)
	atomic.StoreInt64(&s.SymbolsIn, 0)
	atomic.StoreInt64(&s.BitsOut, 0)
	atomic.StoreInt64(&s.ArtifactsSaved, 0)
	atomic.StoreInt64(&s.ArtifactsLoaded, 0)
	atomic.StoreInt64(&s.BytesStored, 0)
	atomic.StoreInt64(&s.BytesLoaded, 0)
	s.StrategyCounts.Range(func(k, _ any) bool { s.StrategyCounts.Delete(k); return true })
	s.AlgorithmCounts.Range(func(k, _ any) bool { s.AlgorithmCounts.Delete(k); return true })
}

var (
	ErrEmptyInput              = errors.New("textpress: empty input")
	ErrMalformedFrequencyTable = errors.New("textpress: malformed frequency table")
	ErrUnknownStrategy         = errors.New("textpress: unknown strategy")
	ErrBitstreamDesync         = errors.New("textpress: bitstream desynchronized")
	ErrInputTooLarge           = errors.New("textpress: input exceeds maximum size")
	ErrUnsupportedAlgorithm    = errors.New("textpress: unsupported container algorithm")
	ErrInvalidLevel            = errors.New("textpress: invalid compression level")
	ErrCorruptedArchive        = errors.New("textpress: corrupted archive")
	ErrArtifactNotFound        = errors.New("textpress: artifact not found")
)

// Codec compresses and decompresses text. A Codec carries only its
// configuration and statistics, so one value may serve any number of
// concurrent calls.
type Codec struct {
	config     *Config
	strategies []Strategy
	stats      Stats
	mu         sync.RWMutex
}

// New creates a codec. A nil config selects DefaultConfig.
func New(config *Config) (*Codec, error) {
	if config == nil {
		config = DefaultConfig()
	}

	strategies, err := normalizeStrategies(config.Strategies)
	if err != nil {
		return nil, err
	}
	if config.MaxInputSize < 0 {
		return nil, fmt.Errorf("textpress: negative MaxInputSize %d", config.MaxInputSize)
	}
	if config.Algorithm != "" && !config.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, config.Algorithm)
	}

	return &Codec{
		config:     config,
		strategies: strategies,
	}, nil
}

// normalizeStrategies validates the candidate set and returns it sorted and
// deduplicated. An empty set means all strategies.
func normalizeStrategies(in []Strategy) ([]Strategy, error) {
	if len(in) == 0 {
		return Strategies(), nil
	}
	seen := make(map[Strategy]bool, len(in))
	out := make([]Strategy, 0, len(in))
	for _, s := range in {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Config returns the codec configuration.
func (c *Codec) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetStats returns current statistics
func (c *Codec) GetStats() *Stats {
	return c.stats.snapshot()
}

// ResetStats resets statistics to zero
func (c *Codec) ResetStats() {
	c.stats.reset()
}

// SetStrategies changes the candidate strategy set
func (c *Codec) SetStrategies(strategies ...Strategy) error {
	normalized, err := normalizeStrategies(strategies)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategies = normalized
	return nil
}

func (c *Codec) candidateSet() []Strategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strategies
}

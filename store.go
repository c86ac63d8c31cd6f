package textpress

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/absfs/absfs"
)

// Store keeps packed artifacts on an absfs.Filer. Artifacts are written as
// <name>.txp plus the container extension of the configured algorithm, so
// "notes" saved with zstd becomes "notes.txp.zst".
type Store struct {
	base   absfs.Filer
	config *Config
	codec  *Codec
	mu     sync.RWMutex
}

// NewStore creates a store over base. A nil config selects DefaultConfig.
func NewStore(base absfs.Filer, config *Config) (*Store, error) {
	if base == nil {
		return nil, errors.New("textpress: base filesystem cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Algorithm == "" {
		config.Algorithm = AlgorithmZstd
	}

	codec, err := New(config)
	if err != nil {
		return nil, err
	}
	return &Store{base: base, config: config, codec: codec}, nil
}

// Codec returns the codec the store compresses text with. Its statistics
// include the store counters.
func (s *Store) Codec() *Codec {
	return s.codec
}

// Save packs a and writes it under name, replacing any artifact already
// stored under that name with another algorithm.
func (s *Store) Save(name string, a *Artifact) error {
	s.mu.RLock()
	algo, level := s.config.Algorithm, s.config.Level
	s.mu.RUnlock()

	data, err := PackArtifact(a, algo, level)
	if err != nil {
		atomic.AddInt64(&s.codec.stats.Failures, 1)
		return err
	}

	actual := AddExtension(name, algo)
	if err := s.writeFile(actual, data); err != nil {
		atomic.AddInt64(&s.codec.stats.Failures, 1)
		return err
	}
	for _, other := range Algorithms() {
		if other == algo {
			continue
		}
		stale := AddExtension(name, other)
		if err := s.base.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			atomic.AddInt64(&s.codec.stats.Failures, 1)
			return fmt.Errorf("removing %s: %w", stale, err)
		}
	}

	atomic.AddInt64(&s.codec.stats.ArtifactsSaved, 1)
	atomic.AddInt64(&s.codec.stats.BytesStored, int64(len(data)))
	s.codec.stats.IncrementAlgorithmCount(algo)
	log.Infof("saved %s: %d bits in %d bytes (%s)", actual, a.BitLength(), len(data), algo)
	return nil
}

func (s *Store) writeFile(name string, data []byte) error {
	f, err := s.base.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads the artifact stored under name. The container algorithm is
// taken from the file contents, not the configuration.
func (s *Store) Load(name string) (*Artifact, error) {
	actual, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := s.base.ReadFile(actual)
	if err != nil {
		atomic.AddInt64(&s.codec.stats.Failures, 1)
		return nil, err
	}
	a, err := UnpackArtifact(data)
	if err != nil {
		atomic.AddInt64(&s.codec.stats.Failures, 1)
		return nil, fmt.Errorf("%s: %w", actual, err)
	}

	atomic.AddInt64(&s.codec.stats.ArtifactsLoaded, 1)
	atomic.AddInt64(&s.codec.stats.BytesLoaded, int64(len(data)))
	log.Infof("loaded %s: %d bytes", actual, len(data))
	return a, nil
}

// resolve finds the stored file for name, trying the configured algorithm
// first.
func (s *Store) resolve(name string) (string, error) {
	if _, _, ok := StripExtension(name); ok {
		if _, err := s.base.Stat(name); err == nil {
			return name, nil
		}
	}

	s.mu.RLock()
	preferred := s.config.Algorithm
	s.mu.RUnlock()

	for _, algo := range append([]Algorithm{preferred}, Algorithms()...) {
		candidate := AddExtension(name, algo)
		if _, err := s.base.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
}

// Put compresses text and saves the result under name.
func (s *Store) Put(name, text string) (*Artifact, error) {
	a, err := s.codec.Compress(text)
	if err != nil {
		return nil, err
	}
	if err := s.Save(name, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get loads the artifact stored under name and decompresses it.
func (s *Store) Get(name string) (string, error) {
	a, err := s.Load(name)
	if err != nil {
		return "", err
	}
	return s.codec.DecompressArtifact(a)
}

// Remove deletes the artifact stored under name.
func (s *Store) Remove(name string) error {
	actual, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := s.base.Remove(actual); err != nil {
		return err
	}
	log.Infof("removed %s", actual)
	return nil
}

// List returns the names of the artifacts stored in dir, without their
// extensions, sorted.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := s.base.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, _, ok := StripExtension(entry.Name()); ok {
			names = append(names, path.Join(dir, base))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Stat returns file information for the stored artifact.
func (s *Store) Stat(name string) (fs.FileInfo, error) {
	actual, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.base.Stat(actual)
}

// Mkdir creates a directory in the underlying filesystem.
func (s *Store) Mkdir(name string, perm fs.FileMode) error {
	return s.base.Mkdir(name, perm)
}

// GetStats returns current statistics
func (s *Store) GetStats() *Stats {
	return s.codec.GetStats()
}

// ResetStats resets statistics to zero
func (s *Store) ResetStats() {
	s.codec.ResetStats()
}

// SetAlgorithm changes the container algorithm for future saves
func (s *Store) SetAlgorithm(algo Algorithm) error {
	if !algo.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Algorithm = algo
	return nil
}

// SetLevel changes the container compression level for future saves
func (s *Store) SetLevel(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Level = level
}

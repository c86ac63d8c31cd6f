package textpress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

var defaultCodec = mustNew(nil)

func mustNew(config *Config) *Codec {
	c, err := New(config)
	if err != nil {
		panic(err)
	}
	return c
}

// Compress compresses text with every strategy and the default
// configuration.
func Compress(text string) (*Artifact, error) {
	return defaultCodec.Compress(text)
}

// Decompress reverses Compress.
func Decompress(compressed string, primaryIndex int, table FrequencyTable) (string, error) {
	return defaultCodec.Decompress(compressed, primaryIndex, table)
}

// Compress runs every configured strategy over text and keeps the
// shortest result.
func (c *Codec) Compress(text string) (*Artifact, error) {
	return c.CompressContext(context.Background(), text)
}

// CompressContext is Compress with cancellation checked between pipeline
// steps and between candidate strategies.
func (c *Codec) CompressContext(ctx context.Context, text string) (*Artifact, error) {
	candidates, table, err := c.candidates(ctx, text)
	if err != nil {
		atomic.AddInt64(&c.stats.Failures, 1)
		return nil, err
	}

	best, err := SelectPrimary(candidates)
	if err != nil {
		atomic.AddInt64(&c.stats.Failures, 1)
		return nil, err
	}
	log.Debugf("selected %s: %d bits for %d symbols", best.Strategy, best.Length, len(text))

	artifact := &Artifact{
		Compressed:     best.Bits,
		PrimaryIndex:   int(best.Strategy),
		FrequencyTable: table,
	}

	atomic.AddInt64(&c.stats.TextsCompressed, 1)
	atomic.AddInt64(&c.stats.SymbolsIn, int64(len(text)))
	atomic.AddInt64(&c.stats.BitsOut, int64(best.Length))
	c.stats.IncrementStrategyCount(best.Strategy)
	return artifact, nil
}

// Candidates returns every configured strategy's encoding of text in
// strategy order, without selecting one.
func (c *Codec) Candidates(text string) ([]Candidate, error) {
	candidates, _, err := c.candidates(context.Background(), text)
	return candidates, err
}

func (c *Codec) candidates(ctx context.Context, text string) ([]Candidate, FrequencyTable, error) {
	if limit := c.Config().MaxInputSize; limit > 0 && len(text) > limit {
		log.Warningf("rejecting %d byte input, limit is %d", len(text), limit)
		return nil, nil, fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(text), limit)
	}

	table, seq, err := Analyze(text)
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("analyzed: %d symbols, %d distinct", len(seq), len(table))
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	tree, err := BuildTree(table)
	if err != nil {
		return nil, nil, err
	}
	codes := tree.Codes()
	log.Debugf("trees built: %d leaves", tree.Leaves())
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	strategies := c.candidateSet()
	candidates := make([]Candidate, len(strategies))
	errs := make([]error, len(strategies))

	if c.Config().Parallel && len(strategies) > 1 {
		var wg sync.WaitGroup
		for i, s := range strategies {
			wg.Add(1)
			go func(i int, s Strategy) {
				defer wg.Done()
				if errs[i] = ctx.Err(); errs[i] != nil {
					return
				}
				candidates[i], errs[i] = encodeCandidate(s, seq, table, tree, codes)
			}(i, s)
		}
		wg.Wait()
	} else {
		for i, s := range strategies {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			candidates[i], errs[i] = encodeCandidate(s, seq, table, tree, codes)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, cand := range candidates {
		log.Debugf("candidate %s: %d bits", cand.Strategy, cand.Length)
	}
	return candidates, table, nil
}

// Decompress rebuilds the tree from table and reverses the strategy named
// by primaryIndex.
func (c *Codec) Decompress(compressed string, primaryIndex int, table FrequencyTable) (string, error) {
	return c.DecompressContext(context.Background(), compressed, primaryIndex, table)
}

// DecompressArtifact is Decompress for an Artifact value.
func (c *Codec) DecompressArtifact(a *Artifact) (string, error) {
	if a == nil {
		return "", fmt.Errorf("%w: nil artifact", ErrMalformedFrequencyTable)
	}
	return c.Decompress(a.Compressed, a.PrimaryIndex, a.FrequencyTable)
}

// DecompressContext is Decompress with cancellation checked between steps
// and while long runs are expanded. Tables whose total exceeds
// Config.MaxInputSize are rejected before decoding.
func (c *Codec) DecompressContext(ctx context.Context, compressed string, primaryIndex int, table FrequencyTable) (string, error) {
	text, err := c.decompress(ctx, compressed, primaryIndex, table)
	if err != nil {
		atomic.AddInt64(&c.stats.Failures, 1)
		log.Debugf("decompress failed: %v", err)
		return "", err
	}
	atomic.AddInt64(&c.stats.TextsDecompressed, 1)
	return text, nil
}

func (c *Codec) decompress(ctx context.Context, compressed string, primaryIndex int, table FrequencyTable) (string, error) {
	if err := table.Validate(); err != nil {
		return "", err
	}
	if limit := c.Config().MaxInputSize; limit > 0 && table.Total() > limit {
		return "", fmt.Errorf("%w: table holds %d symbols, limit %d", ErrInputTooLarge, table.Total(), limit)
	}

	tree, err := BuildTree(table)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	strategy := Strategy(primaryIndex)
	if !strategy.Valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownStrategy, primaryIndex)
	}

	r := newBitReader(compressed)
	r.ctx = ctx
	seq, err := levels[strategy].decode(r, table, tree)
	if err != nil {
		return "", err
	}
	if len(seq) == 0 {
		return "", fmt.Errorf("%w: no symbols decoded", ErrBitstreamDesync)
	}
	log.Debugf("unpacked %d symbols with %s", len(seq), strategy)
	return string(seq), nil
}

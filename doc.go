// Package textpress compresses text by trying several encodings and keeping
// the shortest.
//
// Every strategy shares one Huffman tree built from the text's symbol
// frequencies. Ties during construction are broken by symbol value, so the
// same frequency table always yields the same tree and the decoder needs
// nothing beyond the table to rebuild it.
//
// # Strategies
//
//   - huffman (0): the symbols themselves
//   - run-length (1): runs of a symbol, as its code plus an Elias-gamma length
//   - block-sort (2): Burrows-Wheeler transform, then run-length
//   - move-to-front (3): Burrows-Wheeler transform, then move-to-front indexes
//
// The id of the winning strategy is the artifact's primary index. Equal
// lengths go to the lower id.
//
// # Quick Start
//
//	a, err := textpress.Compress("abracadabra")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(a.Compressed, a.PrimaryIndex)
//
//	text, err := textpress.Decompress(a.Compressed, a.PrimaryIndex, a.FrequencyTable)
//
// # Archives
//
// An Artifact marshals to JSON with the fields compressed, primaryIndex and
// frequencyTable, or to a compact binary form ("TXPZ") that packs eight bits
// per byte. PackArtifact wraps the binary form in a container algorithm:
//
//   - General Purpose: Zstd (level 3)
//   - Maximum Speed: LZ4 or Snappy
//   - Maximum Compression: Brotli (level 9-11)
//   - Maximum Compatibility: Gzip
//
// A Store keeps packed artifacts on any absfs.Filer:
//
//	store, _ := textpress.NewStore(textpress.NewMemFS(), nil)
//	store.Put("notes", text)       // writes notes.txp.zst
//	text, _ = store.Get("notes")
//
// # Errors
//
// Failures are reported with the sentinel errors ErrEmptyInput,
// ErrMalformedFrequencyTable, ErrUnknownStrategy and ErrBitstreamDesync,
// possibly wrapped; test with errors.Is. A corrupted bitstream either fails
// with ErrBitstreamDesync or decodes to different text, never to a panic.
package textpress

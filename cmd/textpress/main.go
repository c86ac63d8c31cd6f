package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/absfs/textpress"
	"github.com/op/go-logging"
)

const progName = "textpress"
const usageMessageRaw = `
Usage: textpress [-debug] [-max-size N] [-levels LIST] [-parallel] SUBCOMMAND...

Subcommands:
  compress
    Read text on standard input and write the JSON artifact
    {"compressed","primaryIndex","frequencyTable"} on standard output.

  decompress
    Read a JSON artifact on standard input and write the text.

  auto
    Decompress if standard input is a JSON artifact, otherwise compress.

  pack [-algo ALGO] [-level N]
    Read text on standard input and write a binary archive. ALGO is one
    of none, gzip, zstd, lz4, brotli or snappy (default zstd).

  unpack
    Read a binary archive on standard input and write the text.

  inspect
    Read text on standard input and list every strategy's encoded
    length, marking the one compress would choose.

Options:
  -debug, -d     log pipeline steps to standard error
  -max-size N    reject inputs longer than N bytes, and artifacts that
                 would decode to more than N bytes (0 = unlimited)
  -levels LIST   comma-separated strategies to try, by name or id
  -parallel      evaluate strategies concurrently
`

type nullWriter struct{}

func (n *nullWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

var ourFlags *flag.FlagSet

func usageMessage() string {
	return strings.TrimLeft(usageMessageRaw, "\n")
}

func usageErrorf(detailFmt string, detailArgs ...interface{}) {
	detail := fmt.Sprintf(detailFmt, detailArgs...)
	fmt.Fprintf(os.Stderr, "%s: %s\n%s", progName, detail, usageMessage())
	os.Exit(64)
}

func exitError(err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", progName, err.Error())
	os.Exit(1)
}

var argI int = 0

func nextArg(expected string) string {
	if !(argI < ourFlags.NArg()) {
		usageErrorf("not enough arguments; expected %s", expected)
	}
	arg := ourFlags.Arg(argI)
	argI++
	return arg
}

func remainingArgs() []string {
	slice := ourFlags.Args()[argI:]
	argI = ourFlags.NArg()
	return slice
}

func endOfArgs() {
	if argI < ourFlags.NArg() {
		usageErrorf("too many arguments at %d (\"%s\")", argI, ourFlags.Arg(argI))
	}
}

var leveledLogBackend logging.Leveled

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{level:8s} %{module:-20s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.INFO, "")
	logging.SetBackend(leveled)
	leveledLogBackend = leveled
}

func parseLevels(list string) ([]textpress.Strategy, error) {
	if list == "" {
		return nil, nil
	}
	var strategies []textpress.Strategy
	for _, name := range strings.Split(list, ",") {
		s, err := textpress.ParseStrategy(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

func readInput() []byte {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitError(err)
	}
	return data
}

func writeJSON(a *textpress.Artifact) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(a)
}

func compressText(codec *textpress.Codec, text []byte) error {
	a, err := codec.Compress(string(text))
	if err != nil {
		return err
	}
	return writeJSON(a)
}

func decompressJSON(codec *textpress.Codec, data []byte) error {
	var a textpress.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}
	text, err := codec.DecompressArtifact(&a)
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, text)
	return err
}

// looksLikeArtifact reports whether data is a JSON object carrying a
// compressed field.
func looksLikeArtifact(data []byte) bool {
	var probe map[string]json.RawMessage
	if json.Unmarshal(bytes.TrimSpace(data), &probe) != nil {
		return false
	}
	_, ok := probe["compressed"]
	return ok
}

// packLevel returns the container level for pack. The configured level
// belongs to the configured algorithm, so switching -algo without -level
// falls back to the new algorithm's default.
func packLevel(subFlags *flag.FlagSet, algo textpress.Algorithm, config *textpress.Config, level int) int {
	explicit := false
	subFlags.Visit(func(f *flag.Flag) {
		if f.Name == "level" {
			explicit = true
		}
	})
	if !explicit && algo != config.Algorithm {
		return 0
	}
	return level
}

func packFromArgs(config *textpress.Config) (func(*textpress.Codec) error, error) {
	subFlags := flag.NewFlagSet(progName, flag.ContinueOnError)
	subFlags.Usage = func() {}
	subFlags.SetOutput(&nullWriter{})

	algoPtr := subFlags.String("algo", string(config.Algorithm), "")
	levelPtr := subFlags.Int("level", config.Level, "")

	argErr := subFlags.Parse(remainingArgs())
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	ourFlags = subFlags
	argI = 0
	endOfArgs()

	algo := textpress.Algorithm(*algoPtr)
	if !algo.Valid() {
		usageErrorf("unknown algorithm \"%s\"", *algoPtr)
	}
	level := packLevel(subFlags, algo, config, *levelPtr)

	return func(codec *textpress.Codec) error {
		a, err := codec.Compress(string(readInput()))
		if err != nil {
			return err
		}
		data, err := textpress.PackArtifact(a, algo, level)
		if err != nil {
			return err
		}
		log.Infof("packed %d bits into %d bytes with %s", a.BitLength(), len(data), algo)
		_, err = os.Stdout.Write(data)
		return err
	}, nil
}

func unpack(codec *textpress.Codec) error {
	a, err := textpress.UnpackArtifact(readInput())
	if err != nil {
		return err
	}
	text, err := codec.DecompressArtifact(a)
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, text)
	return err
}

func inspect(codec *textpress.Codec) error {
	text := string(readInput())
	candidates, err := codec.Candidates(text)
	if err != nil {
		return err
	}
	best, err := textpress.SelectPrimary(candidates)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		mark := " "
		if c.Strategy == best.Strategy {
			mark = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %d %-14s %8d bits  %6.2f%% saved\n",
			mark, int(c.Strategy), c.Strategy, c.Length,
			textpress.GetCompressionPercentage(len(text), c.Length))
	}
	return nil
}

var log = logging.MustGetLogger(progName)

func main() {
	startLogging()

	ourFlags = flag.NewFlagSet(progName, flag.ContinueOnError)
	ourFlags.Usage = func() {}
	ourFlags.SetOutput(&nullWriter{})

	var debugLogging, parallel bool
	var maxSize int
	var levels string
	ourFlags.BoolVar(&debugLogging, "debug", false, "")
	ourFlags.BoolVar(&debugLogging, "d", false, "")
	ourFlags.IntVar(&maxSize, "max-size", 0, "")
	ourFlags.StringVar(&levels, "levels", "", "")
	ourFlags.BoolVar(&parallel, "parallel", false, "")

	argErr := ourFlags.Parse(os.Args[1:])
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	if debugLogging {
		leveledLogBackend.SetLevel(logging.DEBUG, "")
	}

	strategies, err := parseLevels(levels)
	if err != nil {
		usageErrorf("%s", err.Error())
	}
	if maxSize < 0 {
		usageErrorf("-max-size must not be negative")
	}

	config := textpress.DefaultConfig()
	config.Strategies = strategies
	config.MaxInputSize = maxSize
	config.Parallel = parallel

	var requestedCommand func(*textpress.Codec) error
	subcommandArg := nextArg("SUBCOMMAND")
	switch subcommandArg {
	default:
		usageErrorf("unrecognized subcommand \"%s\"", subcommandArg)
	case "compress":
		endOfArgs()
		requestedCommand = func(c *textpress.Codec) error { return compressText(c, readInput()) }
	case "decompress":
		endOfArgs()
		requestedCommand = func(c *textpress.Codec) error { return decompressJSON(c, readInput()) }
	case "auto":
		endOfArgs()
		requestedCommand = func(c *textpress.Codec) error {
			data := readInput()
			if looksLikeArtifact(data) {
				return decompressJSON(c, data)
			}
			return compressText(c, data)
		}
	case "pack":
		requestedCommand, err = packFromArgs(config)
	case "unpack":
		endOfArgs()
		requestedCommand = unpack
	case "inspect":
		endOfArgs()
		requestedCommand = inspect
	}

	if err != nil {
		exitError(err)
	}

	codec, err := textpress.New(config)
	if err != nil {
		exitError(err)
	}

	err = requestedCommand(codec)
	if err != nil {
		exitError(err)
	}
}

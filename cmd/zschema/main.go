// Command zschema validates JSON and YAML files against schema definition
// files, exports them as JSON Schema and generates Go types for them.
//
//	zschema [-config zschema.yaml] validate -schema order.yaml a.json b.yaml
//	zschema jsonschema -schema order.yaml
//	zschema gen -schema order.yaml -type Order -pkg shop -o order_gen.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reoring/zschema/schemafile"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const usage = `zschema validates data against schema definition files.

Usage:
  zschema [-config file] [-v] <command> [flags]

Commands:
  validate    validate JSON or YAML files
  jsonschema  print the JSON Schema of a definition file
  gen         generate Go types and a bound constructor
`

// run executes the command line and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "config file (default ./"+defaultConfigFile+" when present)")
	verbose := fs.Bool("v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	log := newLogger(stderr, *verbose)
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error("config", zap.Error(err))
		fmt.Fprintf(stderr, "zschema: %v\n", err)
		return exitUsage
	}
	log.Debug("config loaded",
		zap.Int("max_depth", cfg.MaxDepth),
		zap.Int("workers", cfg.Workers),
		zap.String("color", cfg.Color))

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var code int
	switch cmd {
	case "validate":
		code, err = validateCmd(rest, cfg, log, stdout, stderr)
	case "jsonschema":
		code, err = jsonSchemaCmd(rest, stdout, stderr)
	case "gen":
		code, err = genCmd(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "zschema: unknown command %q\n\n", cmd)
		fs.Usage()
		return exitUsage
	}
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "zschema %s: %v\n", cmd, err)
		}
		return exitUsage
	}
	return code
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

func loadSchema(path string) (*schemafile.Document, error) {
	if path == "" {
		return nil, errors.New("-schema is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := schemafile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/zschema"
)

// fileResult is the outcome of validating one input file.
type fileResult struct {
	path   string
	issues zschema.Issues
	err    error // read failure
}

func validateCmd(args []string, cfg config, log *zap.Logger, stdout, stderr io.Writer) (int, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "schema definition file")
	format := fs.String("format", "", "input format: json or yaml (default by extension)")
	workers := fs.Int("workers", cfg.Workers, "files validated concurrently")
	maxDepth := fs.Int("max-depth", cfg.MaxDepth, "maximum nesting depth (0 = library default)")
	allowDup := fs.Bool("allow-duplicate-keys", false, "let the last duplicate object key win")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	if fs.NArg() == 0 {
		return exitUsage, fmt.Errorf("no input files")
	}
	if *format != "" && *format != "json" && *format != "yaml" {
		return exitUsage, fmt.Errorf("unknown format %q", *format)
	}
	if *workers < 1 {
		return exitUsage, fmt.Errorf("-workers must be positive")
	}
	doc, err := loadSchema(*schemaPath)
	if err != nil {
		return exitUsage, err
	}

	opt := zschema.ParseOpt{MaxDepth: *maxDepth, OnDuplicateKey: zschema.Error}
	if *allowDup {
		opt.OnDuplicateKey = zschema.Ignore
	}
	results, err := validateFiles(context.Background(), doc.Schema(), fs.Args(), *format, opt, *workers, log)
	if err != nil {
		return exitUsage, err
	}

	p := newPrinter(stdout, cfg.colorEnabled(stdout))
	code := exitOK
	for _, r := range results {
		if !p.result(r) {
			code = exitInvalid
		}
	}
	return code, nil
}

// validateFiles validates every path against s with at most workers files
// in flight. Results keep the order of paths.
func validateFiles(ctx context.Context, s zschema.Schema[any], paths []string, format string, opt zschema.ParseOpt, workers int, log *zap.Logger) ([]fileResult, error) {
	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				results[i] = fileResult{path: path, err: err}
				return nil
			}
			res := zschema.SafeParseFrom(ctx, s, source(path, format, data), opt)
			if res.Issues == nil && res.Err() != nil {
				return fmt.Errorf("%s: %w", path, res.Err())
			}
			log.Debug("validated", zap.String("file", path), zap.Int("issues", len(res.Issues)))
			results[i] = fileResult{path: path, issues: res.Issues}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func source(path, format string, data []byte) zschema.Source {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = "yaml"
		}
	}
	if format == "yaml" {
		return zschema.YAMLBytes(data)
	}
	return zschema.JSONBytes(data)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type printer struct {
	w                    io.Writer
	ok, fail, path, code *color.Color
}

func newPrinter(w io.Writer, colored bool) *printer {
	p := &printer{
		w:    w,
		ok:   color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		path: color.New(color.FgCyan),
		code: color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.path, p.code} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// result prints r and reports whether it passed.
func (p *printer) result(r fileResult) bool {
	switch {
	case r.err != nil:
		fmt.Fprintf(p.w, "%s %s: %v\n", p.fail.Sprint("FAIL"), r.path, r.err)
		return false
	case len(r.issues) == 0:
		fmt.Fprintf(p.w, "%s   %s\n", p.ok.Sprint("ok"), r.path)
		return true
	}
	fmt.Fprintf(p.w, "%s %s (%d issues)\n", p.fail.Sprint("FAIL"), r.path, len(r.issues))
	p.issues(r.issues, "  ")
	return false
}

func (p *printer) issues(iss zschema.Issues, indent string) {
	for _, it := range iss {
		fmt.Fprintf(p.w, "%s%s %s %s\n", indent, p.path.Sprint(it.Path.Pointer()), p.code.Sprint(it.Code), it.Message)
		for i, a := range it.Attempts {
			fmt.Fprintf(p.w, "%s  variant %d:\n", indent, i)
			p.issues(a, indent+"    ")
		}
	}
}

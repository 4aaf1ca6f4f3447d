package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/reoring/zschema/internal/gen"
)

func jsonSchemaCmd(args []string, stdout, stderr io.Writer) (int, error) {
	fs := flag.NewFlagSet("jsonschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "schema definition file")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	doc, err := loadSchema(*schemaPath)
	if err != nil {
		return exitUsage, err
	}
	out, err := doc.Schema().JSONSchema()
	if err != nil {
		return exitUsage, err
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return exitUsage, err
	}
	fmt.Fprintf(stdout, "%s\n", b)
	return exitOK, nil
}

func genCmd(args []string, stdout, stderr io.Writer) (int, error) {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "schema definition file")
	typeName := fs.String("type", "", "name of the root Go type")
	pkg := fs.String("pkg", "model", "package clause of the generated file")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	if *typeName == "" {
		return exitUsage, fmt.Errorf("-type is required")
	}
	doc, err := loadSchema(*schemaPath)
	if err != nil {
		return exitUsage, err
	}
	src, err := gen.Render(*pkg, *typeName, doc)
	if err != nil {
		return exitUsage, err
	}
	if *out == "" {
		_, err = stdout.Write(src)
		return exitOK, err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return exitUsage, err
	}
	return exitOK, os.WriteFile(*out, src, 0o644)
}

package zschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/zschema/internal/engine"
)

// Source decodes raw input into the value tree the engine validates. Decode
// failures are reported as Issues (parse_error, duplicate_key, too_deep,
// truncated).
type Source interface {
	Decode(opt ParseOpt) (any, error)
}

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return jsonSource{data: b} }

// JSONReader wraps an io.Reader as a JSON Source. The reader is consumed on
// Decode, up to ParseOpt.MaxBytes when set.
func JSONReader(r io.Reader) Source { return jsonSource{r: r} }

type jsonSource struct {
	data []byte
	r    io.Reader
}

func (s jsonSource) Decode(opt ParseOpt) (any, error) {
	data, err := readCapped(s.data, s.r, opt.MaxBytes)
	if err != nil {
		return nil, err
	}
	if err := eng.CheckSyntax(data); err != nil {
		return nil, sourceIssues(err, opt)
	}
	dup := eng.DupIgnore
	if opt.OnDuplicateKey == Error {
		dup = eng.DupError
	}
	src := eng.WrapWithEnforcement(eng.NewJSONBytes(data), eng.EnforceOptions{
		OnDuplicate: dup,
		MaxDepth:    opt.maxDepth(),
	})
	v, err := eng.DecodeDocument(src)
	if err != nil {
		return nil, sourceIssues(err, opt)
	}
	return v, nil
}

func readCapped(data []byte, r io.Reader, maxBytes int64) ([]byte, error) {
	if r != nil {
		limit := r
		if maxBytes > 0 {
			limit = io.LimitReader(r, maxBytes+1)
		}
		b, err := io.ReadAll(limit)
		if err != nil {
			return nil, Issues{{Path: Path{}, Code: CodeParseError, Message: err.Error()}}
		}
		data = b
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		params := map[string]any{"maxBytes": maxBytes}
		return nil, Issues{{Path: Path{}, Code: CodeTruncated, Message: message(CodeTruncated, "", params), Params: params}}
	}
	return data, nil
}

func sourceIssues(err error, opt ParseOpt) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		var params map[string]any
		switch ie.Code {
		case CodeDuplicateKey:
			params = map[string]any{"key": ie.Key}
		case CodeTooDeep:
			params = map[string]any{"maxDepth": opt.maxDepth()}
		}
		return Issues{{Path: ParsePointer(ie.Path), Code: ie.Code, Message: message(ie.Code, "", params), Params: params}}
	}
	return Issues{{Path: Path{}, Code: CodeParseError, Message: err.Error()}}
}

// YAMLBytes wraps a YAML document as a Source. Mapping keys are rendered as
// strings; aliases are expanded.
func YAMLBytes(b []byte) Source { return yamlSource{data: b} }

type yamlSource struct{ data []byte }

func (s yamlSource) Decode(opt ParseOpt) (any, error) {
	if _, err := readCapped(s.data, nil, opt.MaxBytes); err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(s.data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, Issues{{Path: Path{}, Code: CodeParseError, Message: err.Error()}}
	}
	d := &yamlDecoder{opt: opt, budget: yamlNodeBudget(len(s.data))}
	return d.value(&doc, Path{}, 0)
}

// yamlNodeBudget bounds the nodes produced by expanding aliases, so a small
// document cannot fan out exponentially.
func yamlNodeBudget(size int) int { return 64*size + 1024 }

type yamlDecoder struct {
	opt    ParseOpt
	budget int
	nodes  int
}

func (d *yamlDecoder) value(n *yaml.Node, path Path, depth int) (any, error) {
	if n.Kind != yaml.DocumentNode && n.Kind != yaml.AliasNode {
		if d.nodes++; d.nodes > d.budget {
			return nil, d.issue(path, CodeTruncated, "", map[string]any{"type": "alias", "maxNodes": d.budget})
		}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.value(n.Content[0], path, depth)
	case yaml.AliasNode:
		return d.value(n.Alias, path, depth)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, d.issue(path, CodeParseError, fmt.Sprintf("line %d: %v", n.Line, err), nil)
		}
		return v, nil
	case yaml.SequenceNode:
		if depth >= d.opt.maxDepth() {
			return nil, d.tooDeep(path)
		}
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := d.value(c, path.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		if depth >= d.opt.maxDepth() {
			return nil, d.tooDeep(path)
		}
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn := n.Content[i]
			if kn.Kind == yaml.AliasNode {
				kn = kn.Alias
			}
			key := kn.Value
			if _, dup := out[key]; dup && d.opt.OnDuplicateKey == Error {
				return nil, d.issue(path.Key(key), CodeDuplicateKey, "", map[string]any{"key": key})
			}
			v, err := d.value(n.Content[i+1], path.Key(key), depth+1)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	}
	return nil, nil
}

func (d *yamlDecoder) tooDeep(path Path) error {
	return d.issue(path, CodeTooDeep, "", map[string]any{"maxDepth": d.opt.maxDepth()})
}

func (d *yamlDecoder) issue(path Path, code, msg string, params map[string]any) error {
	return Issues{{Path: path, Code: code, Message: message(code, msg, params), Params: params}}
}

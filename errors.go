package zschema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType         = "invalid_type"
	CodeRequired            = "required"
	CodeUnrecognizedKey     = "unrecognized_key"
	CodeTooSmall            = "too_small"
	CodeTooBig              = "too_big"
	CodeNotMultipleOf       = "not_multiple_of"
	CodeInvalidStringFormat = "invalid_string_format"
	CodeInvalidEnumValue    = "invalid_enum_value"
	CodeNoUnionMatch        = "no_union_match"
	CodeCustom              = "custom"
	// Input guards (nesting depth and cyclic values)
	CodeTooDeep = "too_deep"
	// Source layer (decoding bytes into a value tree)
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// ErrNilSchema is returned when parsing with a zero Schema value.
var ErrNilSchema = errors.New("zschema: schema has no node")

// Issue represents a single validation entry.
type Issue struct {
	Path    Path   `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// Params carries structured parameters (e.g., {"minimum":1, "inclusive":true})
	// for i18n and observability.
	Params map[string]any `json:"params,omitempty"`
	// Attempts holds the issues of every union variant for no_union_match.
	Attempts []Issues `json:"attempts,omitempty"`
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path.Pointer())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Codes lists the issue codes in order.
func (iss Issues) Codes() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

// FieldErrors groups messages by JSON Pointer. Union attempts are not expanded.
func (iss Issues) FieldErrors() map[string][]string {
	out := make(map[string][]string, len(iss))
	for _, it := range iss {
		p := it.Path.Pointer()
		out[p] = append(out[p], it.Message)
	}
	return out
}

// Flatten returns the issues with every no_union_match replaced by the
// issues of its attempts, depth first.
func (iss Issues) Flatten() Issues {
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		if it.Code != CodeNoUnionMatch || len(it.Attempts) == 0 {
			out = append(out, it)
			continue
		}
		for _, a := range it.Attempts {
			out = append(out, a.Flatten()...)
		}
	}
	return out
}

// Paths returns the distinct pointers carrying issues, sorted.
func (iss Issues) Paths() []string {
	seen := make(map[string]struct{}, len(iss))
	out := make([]string, 0, len(iss))
	for _, it := range iss {
		p := it.Path.Pointer()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

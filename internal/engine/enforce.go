package engine

import (
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupError
)

// EnforceOptions configures WrapWithEnforcement.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	// MaxDepth bounds open objects and arrays; zero disables the check.
	MaxDepth int
}

// IssueError reports a structural problem found while tokens streamed
// through. Path is a JSON Pointer ("/" for the document root).
type IssueError struct {
	Code    string
	Path    string
	Key     string
	Message string
}

func (e IssueError) Error() string { return e.Message + " at " + e.Path }

// scope is one open container.
type scope struct {
	pointer string
	array   bool
	next    int                 // index of the next array element
	key     string              // last key read in an object
	keys    map[string]struct{} // keys already read in an object
}

// WrapWithEnforcement returns a TokenSource that fails with an IssueError on
// a duplicate key (under DupError) or when nesting exceeds MaxDepth. Both
// are detected before the offending value is read.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcer{inner: inner, opt: opt}
}

type enforcer struct {
	inner  TokenSource
	opt    EnforceOptions
	scopes []scope
}

func (e *enforcer) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	switch tok.Kind {
	case KindKey:
		if err := e.key(tok.String); err != nil {
			return Token{}, err
		}
	case KindBeginObject, KindBeginArray:
		ptr := e.valuePointer()
		if e.opt.MaxDepth > 0 && len(e.scopes) >= e.opt.MaxDepth {
			return Token{}, IssueError{Code: "too_deep", Path: orRoot(ptr), Message: "max depth exceeded"}
		}
		sc := scope{pointer: ptr, array: tok.Kind == KindBeginArray}
		if !sc.array {
			sc.keys = make(map[string]struct{})
		}
		e.scopes = append(e.scopes, sc)
	case KindEndObject, KindEndArray:
		if n := len(e.scopes); n > 0 {
			e.scopes = e.scopes[:n-1]
		}
	default:
		e.valuePointer()
	}
	return tok, nil
}

func (e *enforcer) key(k string) error {
	n := len(e.scopes)
	if n == 0 {
		return nil
	}
	top := &e.scopes[n-1]
	if _, dup := top.keys[k]; dup && e.opt.OnDuplicate == DupError {
		return IssueError{
			Code:    "duplicate_key",
			Path:    top.pointer + "/" + escape(k),
			Key:     k,
			Message: "key " + strconv.Quote(k) + " duplicated",
		}
	}
	top.keys[k] = struct{}{}
	top.key = k
	return nil
}

// valuePointer returns the pointer of the value starting at the current
// token and advances the enclosing array index.
func (e *enforcer) valuePointer() string {
	n := len(e.scopes)
	if n == 0 {
		return ""
	}
	top := &e.scopes[n-1]
	if top.array {
		i := top.next
		top.next++
		return top.pointer + "/" + strconv.Itoa(i)
	}
	return top.pointer + "/" + escape(top.key)
}

func (e *enforcer) Location() int64 { return e.inner.Location() }

func orRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var escaper = strings.NewReplacer("~", "~0", "/", "~1")

func escape(s string) string { return escaper.Replace(s) }

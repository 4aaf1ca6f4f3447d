package zschema

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Segment is one step of a Path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path locates a value inside the input, outermost segment first.
type Path []Segment

// PathOf builds a Path from strings (keys) and ints (indexes).
func PathOf(parts ...any) Path {
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case int:
			p = append(p, Segment{Index: v, IsIndex: true})
		case string:
			p = append(p, Segment{Key: v})
		default:
			p = append(p, Segment{Key: fmt.Sprint(v)})
		}
	}
	return p
}

// Key returns a new path extended with an object key.
func (p Path) Key(k string) Path { return p.with(Segment{Key: k}) }

// Index returns a new path extended with an array index.
func (p Path) Index(i int) Path { return p.with(Segment{Index: i, IsIndex: true}) }

// Concat returns a new path with q appended.
func (p Path) Concat(q Path) Path {
	if len(q) == 0 {
		return p
	}
	out := make(Path, len(p), len(p)+len(q))
	copy(out, p)
	return append(out, q...)
}

func (p Path) with(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Equal reports whether both paths have identical segments.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Pointer renders the path as an RFC 6901 JSON Pointer; the root is "/".
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		if s.IsIndex {
			b.WriteString(strconv.Itoa(s.Index))
			continue
		}
		b.WriteString(pointerEscaper.Replace(s.Key))
	}
	return b.String()
}

// String renders the path in dotted form, e.g. items[2].price.
func (p Path) String() string {
	b := &strings.Builder{}
	for i, s := range p {
		if s.IsIndex {
			fmt.Fprintf(b, "[%d]", s.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// MarshalJSON encodes the path as its JSON Pointer.
func (p Path) MarshalJSON() ([]byte, error) { return json.Marshal(p.Pointer()) }

// UnmarshalJSON decodes a JSON Pointer string.
func (p *Path) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*p = ParsePointer(s)
	return nil
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// ParsePointer converts a JSON Pointer into a Path. Segments made of digits
// become indexes.
func ParsePointer(s string) Path {
	if s == "" || s == "/" {
		return Path{}
	}
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if i, err := strconv.Atoi(part); err == nil && i >= 0 && part == strconv.Itoa(i) {
			p = append(p, Segment{Index: i, IsIndex: true})
			continue
		}
		p = append(p, Segment{Key: pointerUnescaper.Replace(part)})
	}
	return p
}

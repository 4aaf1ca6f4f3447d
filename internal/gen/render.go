// Package gen renders Go declarations for a schema file: one struct per
// object definition and a constructor that loads the embedded file and binds
// it to the root struct.
package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/reoring/zschema/schemafile"
)

// ErrUnsupported reports a root definition that cannot become a struct.
var ErrUnsupported = errors.New("gen: unsupported definition")

// TypeDef is one generated struct.
type TypeDef struct {
	Name   string
	Doc    string
	Fields []FieldDef
}

// FieldDef is one generated struct field.
type FieldDef struct {
	Name string
	Type string
	Key  string
	Doc  string
}

// File is the input of the file template.
type File struct {
	Package string
	Root    string
	Types   []TypeDef
	Source  string
}

var fileTmpl = template.Must(template.New("file").Funcs(template.FuncMap{"lower": lowerFirst}).Parse(`// Code generated by zschema gen. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
	"github.com/reoring/zschema/schemafile"
)
{{range .Types}}
{{if .Doc}}// {{.Name}} {{.Doc}}
{{end}}type {{.Name}} struct {
{{- range .Fields}}
	{{if .Doc}}// {{.Doc}}
	{{end}}{{.Name}} {{.Type}} ` + "`json:\"{{.Key}}\"`" + `
{{- end}}
}
{{end}}
const {{.Root | lower}}Source = {{.Source}}

// New{{.Root}}Schema loads the embedded schema file and binds it to {{.Root}}.
func New{{.Root}}Schema() (zschema.Schema[{{.Root}}], error) {
	doc, err := schemafile.Parse([]byte({{.Root | lower}}Source))
	if err != nil {
		return zschema.Schema[{{.Root}}]{}, err
	}
	obj, err := doc.Object()
	if err != nil {
		return zschema.Schema[{{.Root}}]{}, err
	}
	return g.Bind[{{.Root}}](obj)
}
`))

// Render emits a gofmt'ed Go file declaring typeName for the root of doc.
// Named definitions that are objects become structs of the same name.
func Render(pkg, typeName string, doc *schemafile.Document) ([]byte, error) {
	r := &renderer{doc: doc, emitted: map[string]bool{}, expanding: map[string]bool{}}
	root := doc.Root
	if root.Type != schemafile.TypeObject || root.Optional || root.Nullable {
		return nil, fmt.Errorf("%w: root must be a required object, got %s", ErrUnsupported, root.Type)
	}
	if err := r.object(typeName, root); err != nil {
		return nil, err
	}
	for _, name := range doc.Names() {
		def := doc.Definitions[name]
		if def.Type == schemafile.TypeObject && !r.emitted[exported(name)] {
			if err := r.object(exported(name), def); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	err := fileTmpl.Execute(&buf, File{
		Package: pkg,
		Root:    typeName,
		Types:   r.types,
		Source:  strconv.Quote(string(doc.Source)),
	})
	if err != nil {
		return nil, fmt.Errorf("gen: template: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format: %w", err)
	}
	return out, nil
}

type renderer struct {
	doc       *schemafile.Document
	types     []TypeDef
	emitted   map[string]bool
	expanding map[string]bool // refs being inlined, to stop at cycles
}

func (r *renderer) object(name string, def *schemafile.Definition) error {
	r.emitted[name] = true
	td := TypeDef{Name: name, Doc: oneLine(def.Description)}
	// append first so nested types follow their parent
	idx := len(r.types)
	r.types = append(r.types, td)
	seen := map[string]string{}
	for _, f := range def.Fields {
		fd := f.Def
		if def.Partial && !fd.HasDefault && !fd.Optional {
			c := *fd
			c.Optional = true
			fd = &c
		}
		goName := exported(f.Name)
		if prev, dup := seen[goName]; dup {
			return fmt.Errorf("%w: %s: keys %q and %q both map to %s", ErrUnsupported, name, prev, f.Name, goName)
		}
		seen[goName] = f.Name
		typ, err := r.goType(name+goName, fd, false)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		td.Fields = append(td.Fields, FieldDef{Name: goName, Type: typ, Key: f.Name, Doc: oneLine(fd.Description)})
	}
	r.types[idx] = td
	return nil
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }

// goType returns the field type for def. Optional and nullable values and
// direct references to objects become pointers; slices, maps and any stay
// as they are.
func (r *renderer) goType(hint string, def *schemafile.Definition, inContainer bool) (string, error) {
	base, err := r.baseType(hint, def, inContainer)
	if err != nil {
		return "", err
	}
	pointer := def.Optional || def.Nullable || (def.Type == schemafile.TypeRef && !inContainer && r.isObjectRef(def.Ref))
	if pointer && !strings.HasPrefix(base, "*") && !strings.HasPrefix(base, "[]") && !strings.HasPrefix(base, "map[") && base != "any" {
		return "*" + base, nil
	}
	return base, nil
}

func (r *renderer) baseType(hint string, def *schemafile.Definition, inContainer bool) (string, error) {
	switch def.Type {
	case schemafile.TypeNumber:
		return "float64", nil
	case schemafile.TypeInteger:
		return "int64", nil
	case schemafile.TypeString:
		return "string", nil
	case schemafile.TypeBoolean:
		return "bool", nil
	case schemafile.TypeEnum, schemafile.TypeLiteral:
		return enumType(def.Enum), nil
	case schemafile.TypeObject:
		if len(def.Fields) == 0 {
			return "map[string]any", nil
		}
		if r.emitted[hint] {
			return "", fmt.Errorf("%w: type %s generated twice", ErrUnsupported, hint)
		}
		if err := r.object(hint, def); err != nil {
			return "", err
		}
		return hint, nil
	case schemafile.TypeArray:
		elem, err := r.goType(hint+"Item", def.Items, true)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case schemafile.TypeRecord:
		elem, err := r.goType(hint+"Value", def.Values, true)
		if err != nil {
			return "", err
		}
		return "map[string]" + elem, nil
	case schemafile.TypeUnion:
		return "any", nil
	case schemafile.TypeRef:
		target, ok := r.doc.Definitions[def.Ref]
		if !ok {
			return "", fmt.Errorf("%w: undefined ref %q", ErrUnsupported, def.Ref)
		}
		if target.Type == schemafile.TypeObject && len(target.Fields) > 0 {
			return exported(def.Ref), nil
		}
		if r.expanding[def.Ref] {
			return "any", nil
		}
		r.expanding[def.Ref] = true
		defer delete(r.expanding, def.Ref)
		return r.goType(exported(def.Ref), target, inContainer)
	}
	return "", fmt.Errorf("%w: type %q", ErrUnsupported, def.Type)
}

func (r *renderer) isObjectRef(name string) bool {
	d, ok := r.doc.Definitions[name]
	return ok && d.Type == schemafile.TypeObject && len(d.Fields) > 0
}

// enumType picks the Go type shared by all values, or any.
func enumType(values []any) string {
	typ := ""
	for _, v := range values {
		var t string
		switch reflect.ValueOf(v).Kind() {
		case reflect.String:
			t = "string"
		case reflect.Bool:
			t = "bool"
		case reflect.Int, reflect.Int64, reflect.Uint64:
			t = "int64"
		case reflect.Float64:
			t = "float64"
		default:
			return "any"
		}
		if typ != "" && typ != t {
			return "any"
		}
		typ = t
	}
	if typ == "" {
		return "any"
	}
	return typ
}

var initialisms = map[string]string{
	"id": "ID", "url": "URL", "uuid": "UUID", "ip": "IP", "http": "HTTP",
	"api": "API", "json": "JSON", "uri": "URI", "html": "HTML",
}

// exported converts a key such as "created_at" or "user-id" into an exported
// Go identifier ("CreatedAt", "UserID").
func exported(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		if up, ok := initialisms[strings.ToLower(p)]; ok {
			b.WriteString(up)
			continue
		}
		rs := []rune(p)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	out := b.String()
	if out == "" {
		return "Field"
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "F" + out
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	rs := []rune(s)
	rs[0] = unicode.ToLower(rs[0])
	return string(rs)
}

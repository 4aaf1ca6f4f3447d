package zschema

// DefaultMaxDepth bounds container nesting when ParseOpt.MaxDepth is zero.
const DefaultMaxDepth = 512

// Severity expresses how a source treats duplicate object keys.
type Severity int

const (
	Ignore Severity = iota // Last occurrence wins.
	Error                  // Fail with duplicate_key.
)

// ParseOpt bundles parsing options.
type ParseOpt struct {
	// MaxDepth bounds nested objects and arrays; zero means DefaultMaxDepth.
	MaxDepth int
	// OnDuplicateKey applies to sources decoding raw bytes.
	OnDuplicateKey Severity
	// MaxBytes caps the raw input read by a source; zero means unlimited.
	MaxBytes int64
}

func (o ParseOpt) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

func resolveOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return ParseOpt{}
	}
	return opts[len(opts)-1]
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined marks an absent value. Objects pass it to the schema of a missing
// field; callers may pass it to validate absence directly.
var Undefined any = undefined{}

// IsUndefined reports whether v is the absent marker.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

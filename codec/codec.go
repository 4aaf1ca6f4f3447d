// Package codec provides schemas that decode wire strings into Go domain
// values. Each one validates a string and then parses it; a parse failure
// becomes one custom issue at the value.
package codec

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
)

// TimeRFC3339 decodes RFC 3339 timestamps, with or without fractional
// seconds.
func TimeRFC3339() zschema.Schema[time.Time] { return Time(time.RFC3339Nano) }

// Time decodes timestamps in layout.
func Time(layout string) zschema.Schema[time.Time] {
	return g.TransformErr(g.String(), func(s string) (time.Time, error) {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q, expected layout %s", s, layout)
		}
		return t, nil
	})
}

// Date decodes calendar dates such as 2024-02-29.
func Date() zschema.Schema[time.Time] { return Time(time.DateOnly) }

// Duration decodes Go duration strings such as "1h30m".
func Duration() zschema.Schema[time.Duration] {
	return g.TransformErr(g.String(), func(s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return d, nil
	})
}

// UUID decodes canonical UUID strings.
func UUID() zschema.Schema[uuid.UUID] {
	return g.TransformErr(g.String().UUID(), func(s string) (uuid.UUID, error) {
		return uuid.Parse(s)
	})
}

// Int decodes base-10 integers carried as strings, as in query parameters.
func Int() zschema.Schema[int64] {
	return g.TransformErr(g.String(), func(s string) (int64, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", s)
		}
		return n, nil
	})
}

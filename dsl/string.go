package dsl

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/reoring/zschema"
)

// formats is shared; validator.Validate is safe for concurrent use.
var formats = validator.New()

// StringSchema is a string schema with chainable checks. Lengths count
// runes, not bytes.
type StringSchema struct {
	zschema.Schema[string]
	checks []zschema.Check
}

// String returns a schema accepting strings.
func String() StringSchema { return StringSchema{}.with() }

func (s StringSchema) with(c ...zschema.Check) StringSchema {
	checks := append(slices.Clone(s.checks), c...)
	return StringSchema{Schema: zschema.New[string](zschema.StringNode(checks...), nil), checks: checks}
}

// Min requires at least n characters.
func (s StringSchema) Min(n int, message ...string) StringSchema {
	return s.with(minLength(n, message, false))
}

// Max allows at most n characters.
func (s StringSchema) Max(n int, message ...string) StringSchema {
	return s.with(maxLength(n, message, false))
}

// Length requires exactly n characters.
func (s StringSchema) Length(n int, message ...string) StringSchema {
	return s.with(minLength(n, message, true), maxLength(n, message, true))
}

// NonEmpty requires at least one character.
func (s StringSchema) NonEmpty(message ...string) StringSchema { return s.Min(1, message...) }

func minLength(n int, message []string, exact bool) zschema.Check {
	return zschema.Check{
		Name:    zschema.CheckMin,
		Code:    zschema.CodeTooSmall,
		Message: first(message),
		Params:  map[string]any{"minimum": n, "inclusive": true, "exact": exact},
		Test:    func(v any) bool { return utf8.RuneCountInString(v.(string)) >= n },
	}
}

func maxLength(n int, message []string, exact bool) zschema.Check {
	return zschema.Check{
		Name:    zschema.CheckMax,
		Code:    zschema.CodeTooBig,
		Message: first(message),
		Params:  map[string]any{"maximum": n, "inclusive": true, "exact": exact},
		Test:    func(v any) bool { return utf8.RuneCountInString(v.(string)) <= n },
	}
}

// Email requires an email address.
func (s StringSchema) Email(message ...string) StringSchema {
	return s.with(formatCheck("email", message, tagTest("email")))
}

// URL requires an absolute URL.
func (s StringSchema) URL(message ...string) StringSchema {
	return s.with(formatCheck("url", message, tagTest("url")))
}

// IP requires an IPv4 or IPv6 address.
func (s StringSchema) IP(message ...string) StringSchema {
	return s.with(formatCheck("ip", message, tagTest("ip")))
}

// UUID requires an RFC 4122 UUID.
func (s StringSchema) UUID(message ...string) StringSchema {
	return s.with(formatCheck("uuid", message, func(v string) bool {
		_, err := uuid.Parse(v)
		return err == nil
	}))
}

// Regex requires a match of re.
func (s StringSchema) Regex(re *regexp.Regexp, message ...string) StringSchema {
	c := formatCheck("regex", message, re.MatchString)
	c.Name = zschema.CheckRegex
	c.Params["pattern"] = re.String()
	return s.with(c)
}

// StartsWith requires the prefix p.
func (s StringSchema) StartsWith(p string, message ...string) StringSchema {
	return s.with(affixCheck(zschema.CheckStartsWith, p, message, strings.HasPrefix))
}

// EndsWith requires the suffix p.
func (s StringSchema) EndsWith(p string, message ...string) StringSchema {
	return s.with(affixCheck(zschema.CheckEndsWith, p, message, strings.HasSuffix))
}

// Includes requires the substring p.
func (s StringSchema) Includes(p string, message ...string) StringSchema {
	return s.with(affixCheck(zschema.CheckIncludes, p, message, strings.Contains))
}

func tagTest(tag string) func(string) bool {
	return func(v string) bool { return formats.Var(v, tag) == nil }
}

func formatCheck(format string, message []string, test func(string) bool) zschema.Check {
	return zschema.Check{
		Name:    zschema.CheckFormat,
		Code:    zschema.CodeInvalidStringFormat,
		Message: first(message),
		Params:  map[string]any{"format": format},
		Test:    func(v any) bool { return test(v.(string)) },
	}
}

func affixCheck(name, p string, message []string, test func(s, p string) bool) zschema.Check {
	return zschema.Check{
		Name:    name,
		Code:    zschema.CodeInvalidStringFormat,
		Message: first(message),
		Params:  map[string]any{"format": name, "value": p},
		Test:    func(v any) bool { return test(v.(string), p) },
	}
}

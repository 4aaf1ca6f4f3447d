package zschema

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strconv"
)

type intStatus int

const (
	intExact intStatus = iota
	intFraction
	intOverflow
)

// exactInt reads v as an integer magnitude and sign without going through
// float64. f is v as float64 and serves float inputs.
func exactInt(v any, f float64) (mag uint64, neg bool, st intStatus) {
	if n, ok := v.(json.Number); ok {
		return numberInt(string(n))
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		i := rv.Int()
		if i < 0 {
			return uint64(-(i + 1)) + 1, true, intExact
		}
		return uint64(i), false, intExact
	case rv.CanUint():
		return rv.Uint(), false, intExact
	}
	if f != math.Trunc(f) {
		return 0, false, intFraction
	}
	a := math.Abs(f)
	if a >= 0x1p64 {
		return 0, f < 0, intOverflow
	}
	return uint64(a), f < 0 && a > 0, intExact
}

func numberInt(s string) (uint64, bool, intStatus) {
	neg := len(s) > 0 && s[0] == '-'
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if i < 0 {
			return uint64(-(i + 1)) + 1, true, intExact
		}
		return uint64(i), false, intExact
	}
	if !neg {
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return u, false, intExact
		}
	}
	// fractions, exponents and magnitudes beyond 64 bits
	bf, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
	if err != nil || !bf.IsInt() {
		return 0, false, intFraction
	}
	bf.Abs(bf)
	u, acc := bf.Uint64()
	if acc != big.Exact {
		return 0, neg, intOverflow
	}
	return u, neg && u > 0, intExact
}

// integer range checks an integral input against k and returns it exactly.
// intReported skips the fraction issue a failed Int check already raised.
func (s *state) integer(k IntKind, v any, f float64, path Path, intReported bool) any {
	mag, neg, st := exactInt(v, f)
	switch {
	case st == intFraction:
		if !intReported {
			s.fail(path, CodeInvalidType, "", map[string]any{"expected": "integer", "received": "float"})
		}
		return nil
	case neg && (st == intOverflow || mag > k.minMagnitude()):
		s.fail(path, CodeTooSmall, "", intBound("minimum", k.Min(), "greater than or equal to"))
		return nil
	case !neg && (st == intOverflow || mag > k.Max()):
		s.fail(path, CodeTooBig, "", intBound("maximum", k.Max(), "less than or equal to"))
		return nil
	}
	if k.Unsigned {
		return mag
	}
	if neg {
		return -int64(mag-1) - 1
	}
	return int64(mag)
}

// minMagnitude is the magnitude of Min.
func (k IntKind) minMagnitude() uint64 {
	if k.Unsigned {
		return 0
	}
	return k.max() + 1
}

func hasCheck(checks []Check, name string) bool {
	for _, c := range checks {
		if c.Name == name {
			return true
		}
	}
	return false
}

func intBound(key string, bound any, cmp string) map[string]any {
	return map[string]any{key: bound, "inclusive": true, "comparator": cmp, "type": "number"}
}

package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "minimum"). When data["type"] is set, a type specific
// template ("too_small.string") is preferred over the generic one, and
// data["inclusive"] == "false" selects an ".exclusive" variant if present.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogues = map[string]map[string]string{
	"en": {
		"invalid_type":          "expected {expected}, received {received}",
		"required":              "required",
		"unrecognized_key":      "unrecognized key {key}",
		"too_small":             "value is too small",
		"too_small.number":      "number must be {comparator} {minimum}",
		"too_small.string":      "string must contain at least {minimum} character(s)",
		"too_small.array":       "array must contain at least {minimum} element(s)",
		"too_big":               "value is too big",
		"too_big.number":        "number must be {comparator} {maximum}",
		"too_big.string":        "string must contain at most {maximum} character(s)",
		"too_big.array":         "array must contain at most {maximum} element(s)",
		"not_multiple_of":       "number must be a multiple of {multipleOf}",
		"invalid_string_format": "invalid {format}",
		"invalid_enum_value":    "invalid enum value, expected one of {options}",
		"no_union_match":        "input matched no union variant",
		"custom":                "invalid input",
		"too_deep":              "input nesting exceeds {maxDepth}",
		"too_deep.cycle":        "input contains a cycle",
		"parse_error":           "parse error",
		"duplicate_key":         "duplicate key {key}",
		"truncated":             "input exceeds {maxBytes} bytes",
		"truncated.alias":       "alias expansion exceeds {maxNodes} nodes",
	},
	"ja": {
		"invalid_type":               "型が不正です ({expected} が必要ですが {received} でした)",
		"required":                   "必須です",
		"unrecognized_key":           "未知のキーです: {key}",
		"too_small":                  "小さすぎます",
		"too_small.number":           "{minimum} 以上である必要があります",
		"too_small.number.exclusive": "{minimum} より大きい必要があります",
		"too_small.string":           "{minimum} 文字以上である必要があります",
		"too_small.array":            "{minimum} 個以上の要素が必要です",
		"too_big":                    "大きすぎます",
		"too_big.number":             "{maximum} 以下である必要があります",
		"too_big.number.exclusive":   "{maximum} 未満である必要があります",
		"too_big.string":             "{maximum} 文字以下である必要があります",
		"too_big.array":              "要素は {maximum} 個以下である必要があります",
		"not_multiple_of":            "{multipleOf} の倍数である必要があります",
		"invalid_string_format":      "{format} の形式が不正です",
		"invalid_enum_value":         "許可されていない値です ({options})",
		"no_union_match":             "どの候補にも一致しません",
		"custom":                     "入力が不正です",
		"too_deep":                   "入れ子が深すぎます ({maxDepth})",
		"too_deep.cycle":             "入力が循環しています",
		"parse_error":                "解析エラー",
		"duplicate_key":              "キーが重複しています: {key}",
		"truncated":                  "入力が {maxBytes} バイトを超えています",
		"truncated.alias":            "エイリアスの展開が {maxNodes} ノードを超えています",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	dict := catalogues[t.lang]
	tmpl, ok := "", false
	if typ := data["type"]; typ != "" {
		if data["inclusive"] == "false" {
			tmpl, ok = dict[code+"."+typ+".exclusive"]
		}
		if !ok {
			tmpl, ok = dict[code+"."+typ]
		}
	}
	if !ok {
		tmpl, ok = dict[code]
	}
	if !ok {
		return code
	}
	return interpolate(tmpl, data)
}

func interpolate(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogues[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}

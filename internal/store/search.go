package store

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// matcher tests records for a case-insensitive substring. Both sides are
// lowercased, not case-folded, so "ss" does not match "ß". A cases.Caser
// carries state, so each search builds its own.
type matcher struct {
	lower cases.Caser
	query string
}

func newMatcher(query string) *matcher {
	lower := cases.Lower(language.Und)
	return &matcher{lower: lower, query: lower.String(query)}
}

// matchRecord reports whether any named field of record contains the query.
// Fields are looked up by their JSON names. Empty, zero, false and null
// values never match.
func (m *matcher) matchRecord(record any, fields []string) (bool, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return false, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, err
	}
	for _, field := range fields {
		text, ok := stringify(doc[field])
		if !ok {
			continue
		}
		if strings.Contains(m.lower.String(text), m.query) {
			return true, nil
		}
	}
	return false, nil
}

// stringify renders a decoded JSON value as text. It reports false for
// values that count as empty: null, "", 0 and false.
func stringify(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		if v == "" {
			return "", false
		}
	case bool:
		if !v {
			return "", false
		}
	case float64:
		if v == 0 {
			return "", false
		}
	}
	return render(v), true
}

func render(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = render(e)
		}
		return strings.Join(parts, ",")
	}
	return "[object Object]"
}

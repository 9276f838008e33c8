package provider

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MatchTimeLayout is the DD/MM/YYYY HH:MM format the API uses for fixture dates.
// Single-digit days, months and hours are accepted as well.
const MatchTimeLayout = "2/1/2006 15:04"

// NoResultSentinel marks a fixture without a recorded score once spaces are
// stripped and the text is lower-cased ("Sin resultado", "SIN RESULTADO", ...).
const NoResultSentinel = "sinresultado"

var (
	markupTextRegex = regexp.MustCompile(`>\s*([^<]+)\s*<`)
	fixtureIDRegex  = regexp.MustCompile(`this,'(\d+)'`)
)

// ToInt normalizes an integer value from the loose representations the API
// emits: JSON numbers, numeric strings with surrounding blanks, floats (which
// are truncated) and booleans.
//
// Returns ok=false for nil, blanks, NaN and anything that is not an integer
// literal ("12.5" as a string, "n/a", "-").
func ToInt(val any) (int, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		if f, err := v.Float64(); err == nil {
			return ToInt(f)
		}
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// IntPtr is ToInt with the failure case mapped to nil (SQL NULL).
func IntPtr(val any) *int {
	n, ok := ToInt(val)
	if !ok {
		return nil
	}
	return &n
}

// ToString renders a raw value as text. nil becomes "".
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// CleanString pulls the text out of a markup wrapper such as
// "<span>Club Barcelona</span>". Values without a wrapper pass through
// unchanged.
func CleanString(s string) string {
	m := markupTextRegex.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return strings.TrimSpace(m[1])
}

// ExtractFixtureID returns the numeric literal from a click handler like
// "verDetalle(this,'1234')". ok is false when the handler carries no usable id
// (no match, or the placeholder "0").
func ExtractFixtureID(handler string) (string, bool) {
	m := fixtureIDRegex.FindStringSubmatch(handler)
	if m == nil {
		return "", false
	}
	id := m[1]
	if id == "" || id == "0" || strings.EqualFold(id, "nan") {
		return "", false
	}
	return id, true
}

// ParseMatchTime parses a DD/MM/YYYY HH:MM value in loc. Unparseable or
// non-string input yields nil.
func ParseMatchTime(val any, loc *time.Location) *time.Time {
	s, ok := val.(string)
	if !ok {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(MatchTimeLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return nil
	}
	return &t
}

// NormalizeName lower-cases s and drops every space, so "Lliga 14" and
// "lliga14" compare equal.
func NormalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// HasNoResult reports whether a fixture's result text is the "no result"
// placeholder.
func HasNoResult(resultText string) bool {
	return strings.Contains(NormalizeName(resultText), NoResultSentinel)
}

// EncodeID converts an identifier to the base64 token the API expects.
func EncodeID(id string) string {
	return base64.StdEncoding.EncodeToString([]byte(id))
}

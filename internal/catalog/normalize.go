package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UnknownSentinel is the literal placeholder the source dataset (and the
// disambiguation service) use for absent values. It is never staged and
// never becomes an entity.
const UnknownSentinel = "unknown"

// stripMarks decomposes to NFD, drops combining marks and invisible format
// runes (zero-width spaces show up in the source data), and recomposes.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.In(unicode.Cf)),
	norm.NFC,
)

// NaturalKey derives the deduplication key for a raw source value: collapse
// whitespace, strip diacritics, lowercase. Deterministic and total — it
// never fails, it only produces "" for blank input.
func NaturalKey(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		return ""
	}
	if stripped, _, err := transform.String(stripMarks, collapsed); err == nil {
		collapsed = stripped
	}
	return strings.ToLower(strings.TrimSpace(collapsed))
}

// DisplayValue collapses whitespace but preserves case and diacritics; it is
// what gets stored as the entity's human-readable value.
func DisplayValue(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// FirstToken returns the leading whitespace-delimited token of a value,
// used as the fallback cache key for person names.
func FirstToken(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SplitMultiValue explodes a comma-joined source field into trimmed tokens,
// dropping empties and the "unknown" sentinel.
func SplitMultiValue(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" || strings.EqualFold(token, UnknownSentinel) {
			continue
		}
		values = append(values, token)
	}
	return values
}

package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold is safe for concurrent use; cases.Caser is not, so build one per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// NormalizeName returns the natural key for an institution or collection name:
// Unicode NFC, trimmed, inner whitespace runs collapsed to one space, and
// fully case folded. "  Smith   College " and "SMITH COLLEGE" share a key.
func NormalizeName(name string) string {
	name = norm.NFC.String(name)
	fields := strings.FieldsFunc(name, unicode.IsSpace)
	if len(fields) == 0 {
		return ""
	}
	return fold(strings.Join(fields, " "))
}

// CleanName trims and collapses whitespace but keeps the caller's casing.
// It is the display form stored for a newly created record.
func CleanName(name string) string {
	return strings.Join(strings.FieldsFunc(norm.NFC.String(name), unicode.IsSpace), " ")
}

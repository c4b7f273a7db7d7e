package ir

import (
	"regexp"
	"strings"
)

var (
	acronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
)

// NormalizeName maps a parameter or argument name to snake_case so that
// `caseSensitivity`, `case_sensitivity` and `CaseSensitivity` all address
// the same parameter.
//
//	caseSensitivity -> case_sensitivity
//	HTMLParser      -> html_parser
//	arg1            -> arg1
func NormalizeName(name string) string {
	name = acronymBoundary.ReplaceAllString(name, "${1}_${2}")
	name = wordBoundary.ReplaceAllString(name, "${1}_${2}")
	return strings.ToLower(name)
}

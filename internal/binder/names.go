package binder

import "github.com/roach88/callbind/internal/ir"

// NormalizeName maps a parameter or argument name to the key the binder
// matches on. See ir.NormalizeName.
func NormalizeName(name string) string {
	return ir.NormalizeName(name)
}

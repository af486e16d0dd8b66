package pongo

import (
	"strings"

	"github.com/flosch/pongo2/v6"
)

func registerDefaultFilters() {
	if !pongo2.FilterExists("cident") {
		_ = pongo2.RegisterFilter("cident", filterCIdent)
	}
	if !pongo2.FilterExists("macro") {
		_ = pongo2.RegisterFilter("macro", filterMacro)
	}
}

// CIdent maps s onto a valid C identifier: every byte outside [0-9A-Za-z_]
// becomes '_', and a leading digit gets a '_' prefix.
func CIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			b.WriteByte(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func filterCIdent(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(CIdent(in.String())), nil
}

// filterMacro renders a prefix as an upper-case macro token, e.g.
// "mbedtls_test" → "MBEDTLS_TEST".
func filterMacro(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.ToUpper(CIdent(in.String()))), nil
}

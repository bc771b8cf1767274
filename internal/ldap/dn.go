package ldap

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// EscapeDNValue escapes special characters in a DN attribute value
// according to RFC 4514:
//
//   - , + " \ < > ; are always escaped
//   - a leading # is escaped
//   - leading and trailing spaces are escaped
//   - NUL bytes are escaped as \00
//
// Used when embedding person names into a CN relative DN, e.g.
// "Doe, John" becomes "Doe\, John".
func EscapeDNValue(value string) string {
	if !NeedsDNEscaping(value) {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)

	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '#':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case ' ':
			if i == 0 || i == len(value)-1 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case 0:
			b.WriteString(`\00`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// EscapeFilterValue escapes a value for safe inclusion in a search
// filter per RFC 4515.
func EscapeFilterValue(value string) string {
	return ldap.EscapeFilter(value)
}

// NeedsDNEscaping reports whether a value contains characters that
// require DN escaping.
func NeedsDNEscaping(value string) bool {
	if value == "" {
		return false
	}
	if value[0] == ' ' || value[0] == '#' || value[len(value)-1] == ' ' {
		return true
	}
	return strings.ContainsAny(value, ",+\"\\<>;\x00")
}

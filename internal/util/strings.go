// Package util provides small string helpers used across the module.
package util

import "strings"

// Byteseq is a constraint for string-like types.
type Byteseq interface{ ~string }

// UCase returns s upper-cased, preserving the concrete type.
func UCase[T Byteseq](s T) T { return T(strings.ToUpper(string(s))) }

// LCase returns s lower-cased, preserving the concrete type.
func LCase[T Byteseq](s T) T { return T(strings.ToLower(string(s))) }

// EqFold reports whether a and b are equal under ASCII case-folding.
func EqFold[T1, T2 Byteseq](a T1, b T2) bool {
	return strings.EqualFold(string(a), string(b))
}

// IsToken reports whether s is a valid RFC 3261 token.
func IsToken[T Byteseq](s T) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenChar(s[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '!', '%', '*', '_', '+', '`', '\'', '~':
		return true
	}
	return false
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import "unicode"

// isUpper reports whether s contains at least one cased letter and no
// lowercase letters. Digits and punctuation are ignored.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r) || unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// isTitle reports whether s is title-cased: it has at least one cased letter,
// every uppercase letter follows an uncased character, and every lowercase
// letter follows a cased one. "Annual Report 2024" is title-cased;
// "Annual report" and "McDonald" are not.
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

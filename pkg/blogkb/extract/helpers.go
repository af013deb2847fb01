package extract

import (
	"strings"
	"unicode/utf8"
)

func lower(s string) string {
	return strings.ToLower(s)
}

// runeLen counts characters, not bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func startsWithUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

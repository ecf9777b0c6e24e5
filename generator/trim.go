package generator

import (
	"strings"
)

// MaxPostLen is the hard ceiling enforced on every post, whatever the model does.
const MaxPostLen = 270

// Trim cuts text to at most maxLen runes and ends it on the cleanest boundary
// inside that window: after the last sentence mark, else before the last line
// break, else before the last space. A window without any of those is
// returned as is. A boundary at the very first rune is ignored.
func Trim(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	window := []rune(text)
	if len(window) > maxLen {
		window = window[:maxLen]
	}

	if i := lastIndexAny(window, '.', '!', '?'); i > 0 {
		return strings.TrimSpace(string(window[:i+1]))
	}
	if i := lastIndexAny(window, '\n'); i > 0 {
		return strings.TrimSpace(string(window[:i]))
	}
	if i := lastIndexAny(window, ' '); i > 0 {
		return strings.TrimSpace(string(window[:i]))
	}
	return strings.TrimSpace(string(window))
}

func lastIndexAny(rs []rune, targets ...rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		for _, t := range targets {
			if rs[i] == t {
				return i
			}
		}
	}
	return -1
}

package scraper

import "strings"

// Sanitize maps an arbitrary string to a name that is safe to use as a single
// path component. Only ASCII letters, digits, space, '-', '_' and '.' are
// kept and trailing whitespace is trimmed. Distinct inputs may map to the same
// name.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if isFilenameRune(r) {
			b.WriteRune(r)
		}
	}

	name := strings.TrimRight(b.String(), " ")
	if name == "." || name == ".." {
		return "_"
	}
	return name
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '-', r == '_', r == '.':
		return true
	}
	return false
}

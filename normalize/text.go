package normalize

import "strings"

// Text canonicalizes punctuation and whitespace variants in free text.
// Curly and backtick single quotes become ', curly double quotes become ",
// em and en dashes become -, Unicode space and separator code points
// (byte order marks included) become a plain space, whitespace runs collapse
// to one space and the result is trimmed.
func Text(s string) string {
	s = strings.Map(mapRune, s)
	// Fields splits on unicode.IsSpace runs and drops leading/trailing space.
	return strings.Join(strings.Fields(s), " ")
}

func mapRune(r rune) rune {
	switch {
	case r == '\u2018' || r == '\u2019' || r == '\u00b4' || r == '`':
		return '\''
	case r == '\u201c' || r == '\u201d':
		return '"'
	case r == '\u2014' || r == '\u2013':
		return '-'
	case isSeparator(r):
		return ' '
	}
	return r
}

// isSeparator covers NBSP, U+2000-U+200F (spaces and zero-width marks),
// U+2028-U+202F, U+205F, U+2060, U+3000 and the U+FEFF byte order mark.
func isSeparator(r rune) bool {
	switch {
	case r == '\u00a0', r == '\u205f', r == '\u2060', r == '\u3000', r == '\ufeff':
		return true
	case r >= '\u2000' && r <= '\u200f':
		return true
	case r >= '\u2028' && r <= '\u202f':
		return true
	}
	return false
}

package sqlback

import "strings"

// QuoteString returns text as a double-quoted SQL string literal,
// backslash-escaping embedded double quotes and backslashes. No other
// characters are touched, so this is not a general defense against
// hostile input; generated SQL built from untrusted text must be
// validated elsewhere. Backends with their own literal syntax
// (postgres) override this in their Session.
func QuoteString(text string) string {
	var b strings.Builder
	// worst case every byte escapes, plus the two delimiters
	b.Grow(2*len(text) + 2)
	b.WriteByte('"')
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

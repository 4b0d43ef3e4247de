package sqlback

import "strings"

// ReturnsRows reports whether a statement produces a result set, going
// by its leading keyword. Backends use it to decide between the query
// and execute paths of their engine API.
func ReturnsRows(text string) bool {
	q := strings.TrimSpace(text)
	for strings.HasPrefix(q, "--") {
		// skip leading line comments
		nl := strings.IndexByte(q, '\n')
		if nl < 0 {
			return false
		}
		q = strings.TrimSpace(q[nl+1:])
	}
	word := q
	if i := strings.IndexAny(q, " \t\r\n("); i >= 0 {
		word = q[:i]
	}
	switch strings.ToUpper(word) {
	case "SELECT", "SHOW", "EXPLAIN", "DESCRIBE", "WITH", "VALUES":
		return true
	}
	return false
}

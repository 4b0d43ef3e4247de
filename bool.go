package sqlback

import (
	"strconv"
	"strings"
)

// ParseBool interprets a boolean token the way every backend does:
// "true", "yes" and "t" are true, "false", "no" and "f" are false,
// and anything numeric is true when non-zero. Unrecognized input is
// false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "t":
		return true
	case "false", "no", "f", "":
		return false
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n != 0
	}
	return false
}

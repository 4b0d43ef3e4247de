package sqlback

import (
	"bytes"
	"strconv"
	"time"
)

// MaxStringFields caps the field index GetString serves. Reads at or
// beyond the cap return none and log an error instead of growing the
// buffer table; the daemon's widest result set is well under it.
const MaxStringFields = 30

// FieldBuffers is the per-session table of string field buffers,
// keyed by field index. Buffers grow but are never shrunk, and each
// GetString overwrites the buffer of its field index, so a returned
// slice is only valid until the same index is read again or the
// session is freed.
type FieldBuffers struct {
	bufs [MaxStringFields][]byte
}

// Put copies src into the buffer for field, growing it if needed, and
// returns the filled slice.
func (fb *FieldBuffers) Put(field int, src []byte) []byte {
	b := fb.bufs[field]
	if cap(b) < len(src) {
		b = make([]byte, len(src))
	} else {
		b = b[:len(src)]
	}
	copy(b, src)
	fb.bufs[field] = b
	return b
}

// Reset drops every buffer. Called from Session.Free.
func (fb *FieldBuffers) Reset() {
	for i := range fb.bufs {
		fb.bufs[i] = nil
	}
}

// ParseNumber reads a signed integer from raw column bytes.
func ParseNumber(raw []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// dateLayouts are the textual timestamp forms the engines hand back.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	"2006-01-02",
}

// ParseDate reads a timestamp from raw column bytes. The value is
// interpreted in the process's local timezone at conversion time, so
// DST rules are the ones in effect when the row is read, not when it
// was stored.
func ParseDate(raw []byte) (time.Time, bool) {
	s := string(bytes.TrimSpace(raw))
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

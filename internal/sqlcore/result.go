package sqlcore

import (
	"database/sql"
	"time"

	"go.uber.org/atomic"

	"github.com/smsforge/sqlback"
)

// Result is the cursor over one executed statement. Rows are scanned
// into sql.RawBytes, whose lifetime ends at the next Next or Free;
// the typed readers copy what callers keep into the session's field
// buffers.
type Result struct {
	ses  *Session
	rows *sql.Rows
	raw  []sql.RawBytes
	dest []interface{}

	affected uint64
	done     bool
	freed    atomic.Bool
}

// Next advances the cursor. Errors are reported to the log; plain
// end-of-data is not.
func (r *Result) Next() sqlback.Fetch {
	if r.rows == nil || r.done {
		return sqlback.FetchDone
	}
	if r.rows.Next() {
		if err := r.rows.Scan(r.dest...); err != nil {
			r.done = true
			sqlback.Report(r.ses.log, "row scan failed", r.ses.d.diag(err))
			return sqlback.FetchErr
		}
		return sqlback.FetchRow
	}
	r.done = true
	if err := r.rows.Err(); err != nil {
		sqlback.Report(r.ses.log, "row fetch failed", r.ses.d.diag(err))
		return sqlback.FetchErr
	}
	return sqlback.FetchDone
}

// NextRow is the boolean form of Next.
func (r *Result) NextRow() bool { return r.Next().Row() }

// AffectedRows reports the execute path's row count; cursors over
// row-returning statements report 0.
func (r *Result) AffectedRows() uint64 { return r.affected }

// field returns the raw bytes of a column in the current row. ok is
// false when the index is outside the result, nil bytes mean NULL.
func (r *Result) field(i int) (sql.RawBytes, bool) {
	if r.rows == nil || i < 0 || i >= len(r.raw) {
		return nil, false
	}
	return r.raw[i], true
}

// GetString reads a string column into the session's buffer for this
// field index. NULL and out-of-range indices return none.
func (r *Result) GetString(field int) ([]byte, bool) {
	if field < 0 || field >= sqlback.MaxStringFields {
		if r.ses.log != nil {
			r.ses.log.Errorf("field %d returning none, too many fields", field)
		}
		return nil, false
	}
	raw, ok := r.field(field)
	if !ok || raw == nil {
		return nil, false
	}
	return r.ses.bufs.Put(field, raw), true
}

// GetNumber reads a signed integer column, -1 on NULL or error.
func (r *Result) GetNumber(field int) int64 {
	raw, ok := r.field(field)
	if !ok || raw == nil {
		return -1
	}
	n, ok := sqlback.ParseNumber(raw)
	if !ok {
		if r.ses.log != nil {
			r.ses.log.Errorf("field %d is not a number: %q", field, raw)
		}
		return -1
	}
	return n
}

// GetDate reads a timestamp column as local time, zero time on failure.
func (r *Result) GetDate(field int) time.Time {
	raw, ok := r.field(field)
	if !ok || raw == nil {
		return time.Time{}
	}
	t, ok := sqlback.ParseDate(raw)
	if !ok {
		if r.ses.log != nil {
			r.ses.log.Errorf("field %d is not a timestamp: %q", field, raw)
		}
		return time.Time{}
	}
	return t
}

// GetBool reads a boolean column: numeric first, string tokens as the
// fallback when the numeric read fails.
func (r *Result) GetBool(field int) bool {
	if n := r.GetNumber(field); n != -1 {
		return n != 0
	}
	s, ok := r.GetString(field)
	if !ok {
		return false
	}
	return sqlback.ParseBool(string(s))
}

// Free releases the cursor. Safe to call more than once.
func (r *Result) Free() {
	if !r.freed.CompareAndSwap(false, true) {
		return
	}
	if r.rows != nil {
		r.rows.Close()
	}
	sqlback.AddResult(-1)
}

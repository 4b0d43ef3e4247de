package sqlcore

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/atomic"

	"github.com/smsforge/sqlback"
	"github.com/smsforge/sqlback/logger"
)

// Session implements sqlback.Session over a single pinned
// database/sql connection.
type Session struct {
	id   string
	db   *sql.DB
	d    Dialect
	log  *logger.Logger
	bufs sqlback.FieldBuffers

	closed atomic.Bool
}

// ID identifies the session in log output.
func (s *Session) ID() string { return s.id }

// Query executes one statement. Row-returning statements open a
// cursor; everything else goes through the execute path and records
// its affected-row count.
func (s *Session) Query(ctx context.Context, text string) (sqlback.Result, error) {
	if s.closed.Load() {
		return sqlback.NoResult, sqlback.ErrSessionClosed
	}

	if sqlback.ReturnsRows(text) {
		rows, err := s.db.QueryContext(ctx, text)
		if err != nil {
			sqlback.Report(s.log, fmt.Sprintf("statement failed: %s", text), s.d.diag(err))
			return sqlback.NoResult, sqlback.ErrQueryFailed
		}
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			sqlback.Report(s.log, fmt.Sprintf("statement failed: %s", text), s.d.diag(err))
			return sqlback.NoResult, sqlback.ErrQueryFailed
		}
		r := &Result{
			ses:  s,
			rows: rows,
			raw:  make([]sql.RawBytes, len(cols)),
		}
		r.dest = make([]interface{}, len(cols))
		for i := range r.raw {
			r.dest[i] = &r.raw[i]
		}
		sqlback.AddResult(1)
		return r, nil
	}

	res, err := s.db.ExecContext(ctx, text)
	if err != nil {
		sqlback.Report(s.log, fmt.Sprintf("statement failed: %s", text), s.d.diag(err))
		return sqlback.NoResult, sqlback.ErrQueryFailed
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	r := &Result{ses: s, affected: uint64(affected)}
	sqlback.AddResult(1)
	return r, nil
}

// SeqID fetches the last auto-generated key on a throwaway statement.
// Any failure, including a dialect without an identity query, yields 0.
func (s *Session) SeqID(ctx context.Context, hint string) uint64 {
	if s.closed.Load() || s.d.IdentityQuery == nil {
		return 0
	}
	q := s.d.IdentityQuery(hint)
	if q == "" {
		return 0
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, q).Scan(&id); err != nil {
		return 0
	}
	if id < 0 {
		return 0
	}
	return uint64(id)
}

// QuoteString quotes text in the dialect's literal syntax.
func (s *Session) QuoteString(text string) string {
	if s.d.Quote != nil {
		return s.d.Quote(text)
	}
	return sqlback.QuoteString(text)
}

// Free disconnects and drops the field buffers. Safe to call more
// than once; only the first call releases anything.
func (s *Session) Free() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.db.Close()
	s.bufs.Reset()
	sqlback.AddSession(-1)
	if s.log != nil {
		s.log.Debugf("session %s freed", s.id)
	}
}

// Package postgres is the PostgreSQL backend, built directly on pgx
// rather than database/sql so row values arrive as raw text for the
// shared field parsers. Importing it registers the "postgres" backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/atomic"

	"github.com/smsforge/sqlback"
	"github.com/smsforge/sqlback/logger"
)

func init() {
	sqlback.Register(&backend{})
}

type backend struct{}

func (*backend) Name() string { return "postgres" }

// Connect opens a single pgx connection in simple-protocol mode, so
// every result column comes back in text format.
func (*backend) Connect(ctx context.Context, cfg sqlback.Config, log *logger.Logger) (sqlback.Session, error) {
	cc, err := pgx.ParseConfig(buildDSN(cfg))
	if err != nil {
		sqlback.Report(log, "parse postgres config failed", diagnose(err))
		return nil, sqlback.ErrConnectFailed
	}
	cc.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	conn, err := pgx.ConnectConfig(ctx, cc)
	if err != nil {
		sqlback.Report(log, "connect postgres failed", diagnose(err))
		return nil, sqlback.ErrConnectFailed
	}

	s := &session{
		id:   uuid.NewString(),
		conn: conn,
		log:  log,
	}
	sqlback.AddSession(1)
	if log != nil {
		log.Debugf("session %s connected to postgres", s.id)
	}
	return s, nil
}

// buildDSN emits keyword/value form, leaving out what the config does
// not set so libpq-style defaults (socket, current user) apply.
func buildDSN(cfg sqlback.Config) string {
	var parts []string
	add := func(key, value string) {
		if value == "" {
			return
		}
		value = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
		if strings.ContainsAny(value, " \t") {
			value = "'" + value + "'"
		}
		parts = append(parts, key+"="+value)
	}
	host, port := cfg.Host, ""
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host, port = host[:i], host[i+1:]
	}
	add("host", host)
	add("port", port)
	add("user", cfg.User)
	add("password", cfg.Password)
	add("dbname", cfg.Database)
	return strings.Join(parts, " ")
}

func diagnose(err error) []sqlback.DiagRecord {
	var pe *pgconn.PgError
	if !errors.As(err, &pe) {
		return sqlback.GenericDiag(err)
	}
	return []sqlback.DiagRecord{{
		State:   pe.Code,
		Message: pe.Message,
	}}
}

type session struct {
	id   string
	conn *pgx.Conn
	log  *logger.Logger
	bufs sqlback.FieldBuffers

	closed atomic.Bool
}

func (s *session) ID() string { return s.id }

// Query executes one statement. pgx surfaces server errors on the
// first fetch, so the rows path prefetches one row to keep the
// fail-at-Query contract; the prefetched row is handed out by the
// first Next.
func (s *session) Query(ctx context.Context, text string) (sqlback.Result, error) {
	if s.closed.Load() {
		return sqlback.NoResult, sqlback.ErrSessionClosed
	}

	if !sqlback.ReturnsRows(text) {
		tag, err := s.conn.Exec(ctx, text)
		if err != nil {
			sqlback.Report(s.log, fmt.Sprintf("statement failed: %s", text), diagnose(err))
			return sqlback.NoResult, sqlback.ErrQueryFailed
		}
		affected := tag.RowsAffected()
		if affected < 0 {
			affected = 0
		}
		sqlback.AddResult(1)
		return &result{ses: s, affected: uint64(affected)}, nil
	}

	rows, err := s.conn.Query(ctx, text)
	if err != nil {
		sqlback.Report(s.log, fmt.Sprintf("statement failed: %s", text), diagnose(err))
		return sqlback.NoResult, sqlback.ErrQueryFailed
	}
	r := &result{ses: s, rows: rows}
	if rows.Next() {
		r.pending = true
		r.raw = rows.RawValues()
	} else {
		r.done = true
		if err := rows.Err(); err != nil {
			rows.Close()
			sqlback.Report(s.log, fmt.Sprintf("statement failed: %s", text), diagnose(err))
			return sqlback.NoResult, sqlback.ErrQueryFailed
		}
	}
	sqlback.AddResult(1)
	return r, nil
}

// SeqID reads currval of the hinted sequence, or lastval when no hint
// is given. 0 on any failure.
func (s *session) SeqID(ctx context.Context, hint string) uint64 {
	if s.closed.Load() {
		return 0
	}
	q := "SELECT lastval()"
	if hint != "" {
		q = "SELECT currval(" + s.QuoteString(hint) + ")"
	}
	var id int64
	if err := s.conn.QueryRow(ctx, q).Scan(&id); err != nil {
		return 0
	}
	if id < 0 {
		return 0
	}
	return uint64(id)
}

// QuoteString uses postgres literal syntax: single-quote delimiters
// with embedded quotes doubled.
func (s *session) QuoteString(text string) string {
	var b strings.Builder
	b.Grow(2*len(text) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\'' {
			b.WriteByte('\'')
		}
		b.WriteByte(c)
	}
	b.WriteByte('\'')
	return b.String()
}

func (s *session) Free() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.conn.Close(context.Background())
	s.bufs.Reset()
	sqlback.AddSession(-1)
	if s.log != nil {
		s.log.Debugf("session %s freed", s.id)
	}
}

// result is the pgx cursor. raw holds the current row's column values
// in text format; pgx owns that memory until the next fetch, which is
// exactly the field-read validity window of the contract.
type result struct {
	ses     *session
	rows    pgx.Rows
	raw     [][]byte
	pending bool

	affected uint64
	done     bool
	freed    atomic.Bool
}

func (r *result) Next() sqlback.Fetch {
	if r.rows == nil || r.done {
		return sqlback.FetchDone
	}
	if r.pending {
		r.pending = false
		return sqlback.FetchRow
	}
	if r.rows.Next() {
		r.raw = r.rows.RawValues()
		return sqlback.FetchRow
	}
	r.done = true
	if err := r.rows.Err(); err != nil {
		sqlback.Report(r.ses.log, "row fetch failed", diagnose(err))
		return sqlback.FetchErr
	}
	return sqlback.FetchDone
}

func (r *result) NextRow() bool { return r.Next().Row() }

func (r *result) AffectedRows() uint64 { return r.affected }

func (r *result) field(i int) ([]byte, bool) {
	if r.rows == nil || i < 0 || i >= len(r.raw) {
		return nil, false
	}
	return r.raw[i], true
}

func (r *result) GetString(field int) ([]byte, bool) {
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

func (r *result) GetNumber(field int) int64 {
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

func (r *result) GetDate(field int) time.Time {
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

func (r *result) GetBool(field int) bool {
	if n := r.GetNumber(field); n != -1 {
		return n != 0
	}
	s, ok := r.GetString(field)
	if !ok {
		return false
	}
	return sqlback.ParseBool(string(s))
}

func (r *result) Free() {
	if !r.freed.CompareAndSwap(false, true) {
		return
	}
	if r.rows != nil {
		r.rows.Close()
	}
	sqlback.AddResult(-1)
}

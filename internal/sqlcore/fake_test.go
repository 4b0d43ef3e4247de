package sqlcore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// The fake driver serves canned responses keyed by statement text, so
// cursor behavior can be tested without a database server.

type response struct {
	cols     []string
	rows     [][]driver.Value
	affected int64
	err      error
}

type script struct {
	mu        sync.Mutex
	responses map[string]response
}

var canned = &script{responses: make(map[string]response)}

func (s *script) set(query string, r response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[query] = r
}

func (s *script) get(query string) (response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[query]
	return r, ok
}

// stateError is the engine error the fake driver returns; the test
// dialect turns it into a diagnostic record.
type stateError struct {
	state string
	msg   string
}

func (e *stateError) Error() string { return e.msg }

type fakeDriver struct{}

func (fakeDriver) Open(name string) (driver.Conn, error) { return &fakeConn{}, nil }

type fakeConn struct{}

func (*fakeConn) Prepare(query string) (driver.Stmt, error) { return &fakeStmt{query: query}, nil }
func (*fakeConn) Close() error                              { return nil }
func (*fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type fakeStmt struct {
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return 0 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	r, ok := canned.get(s.query)
	if !ok {
		return nil, &stateError{state: "42000", msg: "unknown statement: " + s.query}
	}
	if r.err != nil {
		return nil, r.err
	}
	return fakeResult{affected: r.affected}, nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	r, ok := canned.get(s.query)
	if !ok {
		return nil, &stateError{state: "42000", msg: "unknown statement: " + s.query}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &fakeRows{cols: r.cols, rows: r.rows}, nil
}

type fakeResult struct {
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, errors.New("not supported") }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	next int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}

func init() {
	sql.Register("sqlcorefake", fakeDriver{})
}

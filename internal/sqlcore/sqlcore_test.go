package sqlcore

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smsforge/sqlback"
	"github.com/smsforge/sqlback/logger"
)

func testDialect() Dialect {
	return Dialect{
		Name:       "fake",
		DriverName: "sqlcorefake",
		DSN:        func(cfg sqlback.Config) string { return "fake" },
		IdentityQuery: func(hint string) string {
			return "SELECT IDENTITY"
		},
		Diagnose: func(err error) []sqlback.DiagRecord {
			var se *stateError
			if errors.As(err, &se) {
				return []sqlback.DiagRecord{{State: se.state, Message: se.msg}}
			}
			return nil
		},
	}
}

func newTestSession(t *testing.T) (sqlback.Session, <-chan logger.Entry) {
	t.Helper()
	log := logger.New("sqlcore-test", "dev")
	log.DisableConsoleOutput()
	ch := log.Subscribe()

	s, err := NewBackend(testDialect()).Connect(context.Background(), sqlback.Config{}, log)
	require.NoError(t, err)
	t.Cleanup(s.Free)
	return s, ch
}

func errorEntries(ch <-chan logger.Entry) []logger.Entry {
	var out []logger.Entry
	for {
		select {
		case e := <-ch:
			if e.Level == "ERROR" {
				out = append(out, e)
			}
		case <-time.After(10 * time.Millisecond):
			return out
		}
	}
}

func TestBackendName(t *testing.T) {
	assert.Equal(t, "fake", NewBackend(testDialect()).Name())
}

func TestRowsVisitedMatchesRowCount(t *testing.T) {
	canned.set("SELECT id FROM outbox", response{
		cols: []string{"id"},
		rows: [][]driver.Value{{int64(1)}, {int64(2)}, {int64(3)}},
	})
	s, ch := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT id FROM outbox")
	require.NoError(t, err)

	visited := 0
	for res.NextRow() {
		visited++
	}
	res.Free()

	assert.Equal(t, 3, visited)
	assert.Empty(t, errorEntries(ch))
}

// The clean round trip of the contract: connect, select one row, read
// it, free everything, and nothing lands in the error log.
func TestSelectOneScenario(t *testing.T) {
	canned.set("SELECT 1", response{cols: []string{"1"}, rows: [][]driver.Value{{int64(1)}}})
	s, ch := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)

	require.True(t, res.NextRow())
	assert.Equal(t, int64(1), res.GetNumber(0))
	assert.False(t, res.NextRow())
	res.Free()
	s.Free()

	assert.Empty(t, errorEntries(ch))
}

func TestQueryFailureReportsDiagnostics(t *testing.T) {
	s, ch := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT broken syntax")
	assert.ErrorIs(t, err, sqlback.ErrQueryFailed)

	// the failed cursor is unusable but safe
	assert.False(t, res.NextRow())
	assert.Equal(t, uint64(0), res.AffectedRows())
	res.Free()

	entries := errorEntries(ch)
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0].Message, "SELECT broken syntax")
	require.Len(t, entries, 2)
	assert.Contains(t, entries[1].Message, "42000:")
}

func TestAffectedRows(t *testing.T) {
	canned.set("UPDATE outbox SET sent = 1", response{affected: 4})
	s, ch := newTestSession(t)

	res, err := s.Query(context.Background(), "UPDATE outbox SET sent = 1")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.AffectedRows())
	assert.False(t, res.NextRow())
	res.Free()

	assert.Empty(t, errorEntries(ch))
}

func TestGetStringAndNull(t *testing.T) {
	canned.set("SELECT sender, body FROM inbox", response{
		cols: []string{"sender", "body"},
		rows: [][]driver.Value{{"+420603123456", nil}},
	})
	s, _ := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT sender, body FROM inbox")
	require.NoError(t, err)
	defer res.Free()
	require.True(t, res.NextRow())

	v, ok := res.GetString(0)
	require.True(t, ok)
	assert.Equal(t, "+420603123456", string(v))

	// NULL column
	v, ok = res.GetString(1)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestGetStringFieldCap(t *testing.T) {
	canned.set("SELECT sender FROM inbox", response{
		cols: []string{"sender"},
		rows: [][]driver.Value{{"someone"}},
	})
	s, ch := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT sender FROM inbox")
	require.NoError(t, err)
	defer res.Free()
	require.True(t, res.NextRow())

	for field := sqlback.MaxStringFields; field < 10*sqlback.MaxStringFields; field++ {
		v, ok := res.GetString(field)
		assert.False(t, ok, "field %d", field)
		assert.Nil(t, v, "field %d", field)
	}
	assert.NotEmpty(t, errorEntries(ch))
}

func TestGetStringBufferInvalidation(t *testing.T) {
	canned.set("SELECT token FROM q", response{
		cols: []string{"token"},
		rows: [][]driver.Value{{"first-value"}, {"second!very"}},
	})
	s, _ := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT token FROM q")
	require.NoError(t, err)
	defer res.Free()

	require.True(t, res.NextRow())
	kept, ok := res.GetString(0)
	require.True(t, ok)
	require.Equal(t, "first-value", string(kept))

	require.True(t, res.NextRow())
	fresh, ok := res.GetString(0)
	require.True(t, ok)
	assert.Equal(t, "second!very", string(fresh))

	// the retained slice aliases the per-index buffer and now shows
	// the second row's bytes
	assert.Equal(t, "second!very", string(kept))
}

func TestGetNumber(t *testing.T) {
	canned.set("SELECT n, nul, minus FROM t", response{
		cols: []string{"n", "nul", "minus"},
		rows: [][]driver.Value{{int64(123), nil, int64(-1)}},
	})
	s, _ := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT n, nul, minus FROM t")
	require.NoError(t, err)
	defer res.Free()
	require.True(t, res.NextRow())

	assert.Equal(t, int64(123), res.GetNumber(0))
	assert.Equal(t, int64(-1), res.GetNumber(1), "NULL reads as -1")
	// a genuine -1 is indistinguishable from failure; inherited from
	// the contract
	assert.Equal(t, int64(-1), res.GetNumber(2))
	assert.Equal(t, int64(-1), res.GetNumber(99), "out of range reads as -1")
}

func TestGetDate(t *testing.T) {
	canned.set("SELECT received, bad FROM inbox", response{
		cols: []string{"received", "bad"},
		rows: [][]driver.Value{{"2012-06-15 10:30:00", "garbage"}},
	})
	s, _ := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT received, bad FROM inbox")
	require.NoError(t, err)
	defer res.Free()
	require.True(t, res.NextRow())

	want := time.Date(2012, time.June, 15, 10, 30, 0, 0, time.Local)
	assert.Equal(t, want, res.GetDate(0))
	assert.True(t, res.GetDate(1).IsZero())
}

func TestGetBool(t *testing.T) {
	canned.set("SELECT five, zero, yes, no FROM flags", response{
		cols: []string{"five", "zero", "yes", "no"},
		rows: [][]driver.Value{{int64(5), int64(0), "yes", "false"}},
	})
	s, _ := newTestSession(t)

	res, err := s.Query(context.Background(), "SELECT five, zero, yes, no FROM flags")
	require.NoError(t, err)
	defer res.Free()
	require.True(t, res.NextRow())

	assert.True(t, res.GetBool(0), "numeric 5 is true")
	assert.False(t, res.GetBool(1), "numeric 0 is false")
	// numeric read fails, string fallback decides
	assert.True(t, res.GetBool(2))
	assert.False(t, res.GetBool(3))
}

func TestSeqID(t *testing.T) {
	canned.set("SELECT IDENTITY", response{cols: []string{"id"}, rows: [][]driver.Value{{int64(42)}}})
	s, _ := newTestSession(t)

	assert.Equal(t, uint64(42), s.SeqID(context.Background(), "outbox_id_seq"))
}

func TestSeqIDFailure(t *testing.T) {
	s, _ := newTestSession(t)

	canned.set("SELECT IDENTITY", response{err: &stateError{state: "HY000", msg: "gone"}})
	assert.Equal(t, uint64(0), s.SeqID(context.Background(), ""))

	// restore the usual canned identity for later tests
	canned.set("SELECT IDENTITY", response{cols: []string{"id"}, rows: [][]driver.Value{{int64(42)}}})
}

func TestQuoteStringDefault(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Equal(t, `"it \"quotes\""`, s.QuoteString(`it "quotes"`))
}

func TestQuoteStringOverride(t *testing.T) {
	d := testDialect()
	d.Quote = func(text string) string { return "[" + text + "]" }

	s, err := NewBackend(d).Connect(context.Background(), sqlback.Config{}, nil)
	require.NoError(t, err)
	defer s.Free()
	assert.Equal(t, "[x]", s.QuoteString("x"))
}

func TestFreeIsIdempotent(t *testing.T) {
	sessions := sqlback.LiveStats().Sessions()

	s, _ := newTestSession(t)
	s.Free()
	s.Free()

	assert.Equal(t, sessions, sqlback.LiveStats().Sessions())

	_, err := s.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, sqlback.ErrSessionClosed)
	assert.Equal(t, uint64(0), s.SeqID(context.Background(), ""))
}

func TestResultFreeIsIdempotent(t *testing.T) {
	canned.set("SELECT 1", response{cols: []string{"1"}, rows: [][]driver.Value{{int64(1)}}})
	s, _ := newTestSession(t)

	results := sqlback.LiveStats().Results()
	res, err := s.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, results+1, sqlback.LiveStats().Results())

	res.Free()
	res.Free()
	assert.Equal(t, results, sqlback.LiveStats().Results())
}

func TestSessionIDs(t *testing.T) {
	a, _ := newTestSession(t)
	b, _ := newTestSession(t)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

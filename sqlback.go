// Package sqlback implements the uniform database access contract the
// message daemon's storage layer is written against. Each supported
// database engine provides a Backend; the daemon picks one by name at
// configuration time and never touches engine-specific APIs itself.
//
// The operation set is deliberately small: a session is opened once,
// statements are submitted one at a time, rows are walked with a
// cursor, and column values are read by zero-based field index. Rich
// error detail is never returned to callers; it is emitted through the
// diagnostics reporter to the log sink, and callers branch only on the
// error being nil or not.
package sqlback

import (
	"context"
	"time"

	"github.com/smsforge/sqlback/logger"
)

// Config carries the settings a backend needs to open a session.
// Host, user and password may be empty where the engine's own
// convention allows it (an ODBC DSN can embed credentials, a local
// socket needs no host).
type Config struct {
	// Driver selects the backend by its registered name.
	Driver string

	// Host is the server address, or the data source name for ODBC.
	Host     string
	User     string
	Password string

	// Database is the schema/database to use after connecting.
	Database string

	// Options holds backend-specific settings.
	Options map[string]string
}

// Backend creates sessions for one database engine. Implementations
// register themselves with Register from their package init, so
// importing a backend package is enough to make it selectable.
type Backend interface {
	// Name returns the registered backend name ("odbc", "postgres", ...).
	Name() string

	// Connect opens a new session. On failure it reports diagnostics
	// to log, releases anything it allocated and returns a nil session;
	// there is never a partially connected session to clean up.
	Connect(ctx context.Context, cfg Config, log *logger.Logger) (Session, error)
}

// Session is an open connection to one database. A session is
// single-threaded: no method may be called concurrently with another
// on the same session or on any of its results, and only one result
// may be in flight at a time. Every method blocks until the engine
// responds; the session enforces no timeout of its own.
type Session interface {
	// ID identifies the session in log output.
	ID() string

	// Query executes exactly one statement. On failure it reports
	// diagnostics with the failing statement as context and returns
	// NoResult together with ErrQueryFailed. On success the returned
	// result must be freed exactly once.
	Query(ctx context.Context, text string) (Result, error)

	// SeqID returns the last auto-generated key after an insert, using
	// a throwaway statement. hint names the sequence for engines that
	// need one. Returns 0 on any failure.
	SeqID(ctx context.Context, hint string) uint64

	// QuoteString returns text as a quoted SQL string literal in the
	// engine's syntax.
	QuoteString(text string) string

	// Free disconnects and releases everything the session owns,
	// including the string field buffers. Free is idempotent.
	Free()
}

// Fetch is the outcome of advancing a result cursor.
type Fetch int

const (
	// FetchRow means the cursor now points at a new row.
	FetchRow Fetch = iota
	// FetchDone means the result set is exhausted.
	FetchDone
	// FetchErr means the fetch failed; diagnostics have been reported.
	FetchErr
)

// Row reports whether a row is available. It collapses FetchDone and
// FetchErr the way legacy cursor APIs do; use Next directly when the
// distinction matters.
func (f Fetch) Row() bool { return f == FetchRow }

// Result is a cursor over an executed statement. Field reads are only
// valid between a successful Next and the following Next or Free.
type Result interface {
	// Next advances to the next row.
	Next() Fetch

	// NextRow is the boolean form of Next: true only when a row is
	// available, false for both end-of-data and fetch errors.
	NextRow() bool

	// AffectedRows returns the row count of a modifying statement,
	// and 0 for plain queries and failed statements.
	AffectedRows() uint64

	// GetString reads a string column. It returns ok=false for NULL
	// and for field indices at or beyond MaxStringFields. The returned
	// bytes alias a session-owned buffer that is reused by the next
	// read of the same field index and released by Session.Free;
	// callers must not retain them.
	GetString(field int) ([]byte, bool)

	// GetNumber reads a signed integer column. It returns -1 for NULL
	// and on error, which a genuine -1 is indistinguishable from.
	GetNumber(field int) int64

	// GetDate reads a timestamp column as local calendar time, with
	// the process timezone applied at conversion time. The zero time
	// is the failure value.
	GetDate(field int) time.Time

	// GetBool reads a boolean column: the numeric reader first, and on
	// failure the string reader's value run through ParseBool. Any
	// numeric value other than 0 is true.
	GetBool(field int) bool

	// Free releases the cursor. Free is idempotent.
	Free()
}

// Open connects using the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (Session, error) {
	b, err := Get(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return b.Connect(ctx, cfg, log)
}

// Package sqlcore implements the sqlback contract once over
// database/sql; the odbc, mysql and hana backends are thin dialects
// on top of it. Each session pins its pool to a single connection so
// the one-statement-in-flight rule of the contract maps directly onto
// the underlying handle.
package sqlcore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/smsforge/sqlback"
	"github.com/smsforge/sqlback/logger"
)

// Dialect is what distinguishes one database/sql backend from another.
type Dialect struct {
	// Name is the backend name to register under.
	Name string

	// DriverName is the database/sql driver to open.
	DriverName string

	// DSN builds the driver's connection string from a Config.
	DSN func(cfg sqlback.Config) string

	// IdentityQuery builds the statement that returns the last
	// auto-generated key. hint names the sequence where the engine
	// needs one. An empty return disables SeqID.
	IdentityQuery func(hint string) string

	// Diagnose extracts diagnostic records from a driver error.
	// Nil falls back to sqlback.GenericDiag.
	Diagnose func(err error) []sqlback.DiagRecord

	// Quote overrides the default double-quote string escaper.
	Quote func(text string) string
}

func (d Dialect) diag(err error) []sqlback.DiagRecord {
	if d.Diagnose != nil {
		if recs := d.Diagnose(err); len(recs) > 0 {
			return recs
		}
	}
	return sqlback.GenericDiag(err)
}

// Backend adapts a Dialect to the sqlback.Backend interface.
type Backend struct {
	d Dialect
}

// NewBackend wraps a dialect.
func NewBackend(d Dialect) *Backend {
	return &Backend{d: d}
}

// Name returns the dialect name.
func (b *Backend) Name() string { return b.d.Name }

// Connect opens the driver, pins the pool to one connection and
// verifies it with a ping. Nothing survives a failure: the pool is
// closed before reporting, so the caller never has to clean up after
// a partial connect.
func (b *Backend) Connect(ctx context.Context, cfg sqlback.Config, log *logger.Logger) (sqlback.Session, error) {
	db, err := sql.Open(b.d.DriverName, b.d.DSN(cfg))
	if err != nil {
		sqlback.Report(log, fmt.Sprintf("open %s failed", b.d.Name), b.d.diag(err))
		return nil, sqlback.ErrConnectFailed
	}

	// one underlying connection per session
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		sqlback.Report(log, fmt.Sprintf("connect %s failed", b.d.Name), b.d.diag(err))
		return nil, sqlback.ErrConnectFailed
	}

	s := &Session{
		id:  uuid.NewString(),
		db:  db,
		d:   b.d,
		log: log,
	}
	sqlback.AddSession(1)
	if log != nil {
		log.Debugf("session %s connected to %s", s.id, b.d.Name)
	}
	return s, nil
}

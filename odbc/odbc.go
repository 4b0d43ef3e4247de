// Package odbc is the ODBC backend, the reference sqlback backend for
// engines reached through a driver manager. Importing it registers
// the "odbc" backend.
package odbc

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	aodbc "github.com/alexbrainman/odbc"

	"github.com/smsforge/sqlback"
	"github.com/smsforge/sqlback/internal/sqlcore"
)

func init() {
	sqlback.Register(sqlcore.NewBackend(sqlcore.Dialect{
		Name:          "odbc",
		DriverName:    "odbc",
		DSN:           buildDSN,
		IdentityQuery: identityQuery,
		Diagnose:      diagnose,
	}))
}

// buildDSN treats Host as the data source name. A Host that already
// contains '=' is passed through as a full connection string, so
// DSN-less configurations like "Driver={...};Server=..." keep working.
func buildDSN(cfg sqlback.Config) string {
	var parts []string
	if strings.ContainsRune(cfg.Host, '=') {
		parts = append(parts, cfg.Host)
	} else {
		parts = append(parts, "DSN="+cfg.Host)
	}
	if cfg.User != "" {
		parts = append(parts, "UID="+cfg.User)
	}
	if cfg.Password != "" {
		parts = append(parts, "PWD="+cfg.Password)
	}
	if cfg.Database != "" {
		parts = append(parts, "Database="+cfg.Database)
	}
	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+cfg.Options[k])
	}
	return strings.Join(parts, ";")
}

func identityQuery(hint string) string {
	return "SELECT @@IDENTITY"
}

// diagnose maps the driver's diagnostic records straight through; the
// ODBC driver already enumerates SQLGetDiagRec for us.
func diagnose(err error) []sqlback.DiagRecord {
	var oe *aodbc.Error
	if !errors.As(err, &oe) {
		return sqlback.GenericDiag(err)
	}
	recs := make([]sqlback.DiagRecord, 0, len(oe.Diag))
	for _, d := range oe.Diag {
		recs = append(recs, sqlback.DiagRecord{
			State:   d.State,
			Native:  d.NativeError,
			Message: d.Message,
		})
	}
	if len(recs) == 0 {
		return []sqlback.DiagRecord{{State: "HY000", Message: fmt.Sprintf("%s failed", oe.APIName)}}
	}
	return recs
}

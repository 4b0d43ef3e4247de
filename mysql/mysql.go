// Package mysql is the MySQL/MariaDB backend. Importing it registers
// the "mysql" backend.
package mysql

import (
	"errors"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/smsforge/sqlback"
	"github.com/smsforge/sqlback/internal/sqlcore"
)

func init() {
	sqlback.Register(sqlcore.NewBackend(sqlcore.Dialect{
		Name:          "mysql",
		DriverName:    "mysql",
		DSN:           buildDSN,
		IdentityQuery: identityQuery,
		Diagnose:      diagnose,
	}))
}

func buildDSN(cfg sqlback.Config) string {
	mc := mysqldrv.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	if cfg.Host != "" {
		mc.Net = "tcp"
		mc.Addr = cfg.Host
	}
	if len(cfg.Options) > 0 {
		mc.Params = cfg.Options
	}
	return mc.FormatDSN()
}

func identityQuery(hint string) string {
	return "SELECT LAST_INSERT_ID()"
}

func diagnose(err error) []sqlback.DiagRecord {
	var me *mysqldrv.MySQLError
	if !errors.As(err, &me) {
		return sqlback.GenericDiag(err)
	}
	state := string(me.SQLState[:])
	if state == "\x00\x00\x00\x00\x00" {
		state = "HY000"
	}
	return []sqlback.DiagRecord{{
		State:   state,
		Native:  int(me.Number),
		Message: me.Message,
	}}
}

package config

import (
	"fmt"

	"github.com/glebarez/sqlite"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDB opens a *gorm.DB for cfg's DBType/DBDSN. sqlite defaults to an
// in-memory database when DBDSN is empty, matching the teacher's own
// test-friendly default.
func OpenDB(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.DBDSN

	var dialector gorm.Dialector
	switch cfg.DBType {
	case DBTypeMySQL:
		dialector = mysqldriver.Open(dsn)
	case DBTypePostgres:
		dialector = postgres.Open(dsn)
	case DBTypeSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db type %q", cfg.DBType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database (%s): %w", cfg.DBType, err)
	}
	return db, nil
}

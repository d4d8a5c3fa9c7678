// MeterDB contains data specifically about smart meter readings.
// Due to cross-service communication on SQLite,
// any user data or anything else should use a seperate database.
// This database should only be written to by meter_collector
// but can be read by any service.
package meterdb

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/NotCoffee418/amshan_reader/pkg/pathing"
	"github.com/NotCoffee418/dbmigrator"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

var (
	db     *sql.DB
	dbErr  error
	once   sync.Once
	dbPath = pathing.GetMeterDbPath
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// InitializeDatabase opens the database and applies migrations. Must be
// called manually on startup.
func InitializeDatabase() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)
	log.Info().Str("component", "meterdb").Str("path", dbPath()).Msg("meter database ready")
	return nil
}

func GetDB() (*sql.DB, error) {
	once.Do(func() {
		path := dbPath()
		db, dbErr = sql.Open("sqlite", path)
		if dbErr != nil {
			dbErr = fmt.Errorf("open meter database %s: %w", path, dbErr)
			return
		}
		if err := db.Ping(); err != nil {
			dbErr = fmt.Errorf("ping meter database %s: %w", path, err)
		}
	})
	return db, dbErr
}

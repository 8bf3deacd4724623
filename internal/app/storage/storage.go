// Package storage contains the logic for storing application data in a local SQLite database.
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/app/storage/queries"
	"github.com/warpedintentions/srp/internal/migrate"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage provides access to the local database.
//
// Writes go through a single read-write connection. Reads use a separate pool.
type Storage struct {
	dbRO *sql.DB
	dbRW *sql.DB
	qRO  *queries.Queries
	qRW  *queries.Queries
}

// New returns a new storage object.
func New(dbRW *sql.DB, dbRO *sql.DB) *Storage {
	st := &Storage{
		dbRO: dbRO,
		dbRW: dbRW,
		qRO:  queries.New(dbRO),
		qRW:  queries.New(dbRW),
	}
	return st
}

// InitDB initializes the database and returns a read-write and a read-only connection pool.
// Migrations are applied when needed.
func InitDB(dataSourceName string) (*sql.DB, *sql.DB, error) {
	v := url.Values{}
	v.Add("_fk", "on")
	v.Add("_journal_mode", "WAL")
	v.Add("_synchronous", "normal")
	v.Add("_busy_timeout", "5000")
	v.Add("_txlock", "immediate")
	dsnRW := makeDSN(dataSourceName, v)
	slog.Debug("Connecting to sqlite", "dsn", dsnRW)
	dbRW, err := sql.Open("sqlite3", dsnRW)
	if err != nil {
		return nil, nil, fmt.Errorf("open DB for RW: %w", err)
	}
	dbRW.SetMaxOpenConns(1)
	if err := dbRW.Ping(); err != nil {
		dbRW.Close()
		return nil, nil, fmt.Errorf("ping DB: %w", err)
	}
	if err := ApplyMigrations(dbRW); err != nil {
		dbRW.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	v.Set("mode", "ro")
	v.Del("_txlock")
	v.Del("_journal_mode")
	dbRO, err := sql.Open("sqlite3", makeDSN(dataSourceName, v))
	if err != nil {
		dbRW.Close()
		return nil, nil, fmt.Errorf("open DB for RO: %w", err)
	}
	slog.Info("Connected to database")
	return dbRW, dbRO, nil
}

func makeDSN(dataSourceName string, v url.Values) string {
	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	return dataSourceName + sep + v.Encode()
}

// ApplyMigrations applies all new migrations to a database.
func ApplyMigrations(db *sql.DB) error {
	return migrate.Run(db, embedMigrations)
}

// convertGetError converts an error from a get query into an app error.
func convertGetError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return app.ErrNotFound
	}
	return err
}

// Package testutil provides helpers for tests with the local database.
package testutil

import (
	"database/sql"
	"fmt"

	"github.com/warpedintentions/srp/internal/app/storage"
)

// NewDBInMemory creates and returns a database in memory for tests.
// The database is limited to a single connection so that all goroutines see the same data.
func NewDBInMemory() (*sql.DB, *storage.Storage, Factory) {
	db, err := sql.Open("sqlite3", ":memory:?_fk=on")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	if err := storage.ApplyMigrations(db); err != nil {
		panic(err)
	}
	st := storage.New(db, db)
	factory := NewFactory(st)
	return db, st, factory
}

// MustTruncateTables will purge data from all tables. This is meant for tests.
func MustTruncateTables(db *sql.DB) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = "table" AND name NOT IN ("migrations", "sqlite_sequence")`)
	if err != nil {
		panic(err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			panic(err)
		}
		tables = append(tables, name)
	}
	if err := rows.Close(); err != nil {
		panic(err)
	}
	for _, n := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s;", n)); err != nil {
			panic(err)
		}
	}
}

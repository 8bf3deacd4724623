// Package migrate applies SQL migrations to a SQLite database.
package migrate

import (
	"cmp"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/ErikKalkoken/go-set"
	_ "github.com/mattn/go-sqlite3"
)

type MigrateFS interface {
	fs.ReadDirFS
	fs.ReadFileFS
}

// Run applies all unapplied migrations from the folder "migrations" in fsys.
func Run(db *sql.DB, fsys MigrateFS) error {
	if err := createMigrationTracking(db); err != nil {
		return fmt.Errorf("create migration tracking: %w", err)
	}
	if err := applyNewMigrations(db, fsys); err != nil {
		return err
	}
	return nil
}

const createMigrationTrackingSQL = `
CREATE TABLE IF NOT EXISTS migrations(
    id INTEGER PRIMARY KEY NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	name TEXT NOT NULL,
	UNIQUE (name)
);`

func createMigrationTracking(db *sql.DB) error {
	_, err := db.Exec(createMigrationTrackingSQL)
	return err
}

func listMigrationNames(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM migrations ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

type migration struct {
	name     string
	filename string
}

// applyNewMigrations applies any new migrations in alphabetical order.
// Each migration runs in its own transaction together with its tracking record.
func applyNewMigrations(db *sql.DB, fsys MigrateFS) error {
	names, err := listMigrationNames(db)
	if err != nil {
		return err
	}
	applied := set.Of(names...)
	entries, err := fsys.ReadDir("migrations")
	if err != nil {
		return err
	}
	var unapplied []migration
	for _, entry := range entries {
		fn := entry.Name()
		ext := path.Ext(fn)
		if ext != ".sql" {
			continue
		}
		name := strings.TrimSuffix(fn, ext)
		if applied.Contains(name) {
			continue
		}
		unapplied = append(unapplied, migration{name: name, filename: fn})
	}
	if len(unapplied) == 0 {
		slog.Debug("No new migrations to apply")
		return nil
	}
	slices.SortFunc(unapplied, func(a, b migration) int {
		return cmp.Compare(a.name, b.name)
	})
	slog.Info("Applying new migrations", "count", len(unapplied))
	for _, m := range unapplied {
		data, err := fsys.ReadFile("migrations/" + m.filename)
		if err != nil {
			return err
		}
		if err := applyMigration(db, m.name, string(data)); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		slog.Info("Successfully applied new migration", "name", m.name)
	}
	return nil
}

func applyMigration(db *sql.DB, name, query string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(query); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO migrations(name) VALUES(?);`, name); err != nil {
		return err
	}
	return tx.Commit()
}

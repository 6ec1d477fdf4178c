// Package storage persists search history in a local SQLite database.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database recording aggregate searches and the
// records they returned.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "locator.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies any embedded SQL migrations that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

// SaveSearch records a search and its returned records in one transaction.
func (s *Store) SaveSearch(search Search, records []SearchRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO searches (id, kind, query, jurisdictions, record_count, error_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		search.ID, search.Kind, search.Query, search.Jurisdictions,
		search.RecordCount, search.ErrorCount, search.CreatedAt.UTC().Format(time.RFC3339),
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting search: %w", err)
	}

	for _, r := range records {
		if _, err := tx.Exec(`
			INSERT INTO search_records (search_id, inmate_id, jurisdiction, first_name, last_name, unit, race, sex, url, release)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			search.ID, r.InmateID, r.Jurisdiction, r.FirstName, r.LastName,
			r.Unit, r.Race, r.Sex, r.URL, r.Release,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting search record: %w", err)
		}
	}

	return tx.Commit()
}

// GetSearch returns one search and its records.
func (s *Store) GetSearch(id string) (Search, []SearchRecord, error) {
	var search Search
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, kind, query, jurisdictions, record_count, error_count, created_at
		FROM searches WHERE id = ?`, id,
	).Scan(&search.ID, &search.Kind, &search.Query, &search.Jurisdictions,
		&search.RecordCount, &search.ErrorCount, &createdAt)
	if err == sql.ErrNoRows {
		return Search{}, nil, ErrNotFound
	}
	if err != nil {
		return Search{}, nil, err
	}
	search.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Search{}, nil, fmt.Errorf("parsing created_at: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT search_id, inmate_id, jurisdiction, first_name, last_name, unit, race, sex, url, release
		FROM search_records WHERE search_id = ?`, id,
	)
	if err != nil {
		return Search{}, nil, err
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var r SearchRecord
		if err := rows.Scan(&r.SearchID, &r.InmateID, &r.Jurisdiction, &r.FirstName,
			&r.LastName, &r.Unit, &r.Race, &r.Sex, &r.URL, &r.Release); err != nil {
			return Search{}, nil, err
		}
		records = append(records, r)
	}
	return search, records, rows.Err()
}

// RecentSearches returns the most recent searches, newest first.
func (s *Store) RecentSearches(limit int) ([]Search, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, query, jurisdictions, record_count, error_count, created_at
		FROM searches ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Search
	for rows.Next() {
		var search Search
		var createdAt string
		if err := rows.Scan(&search.ID, &search.Kind, &search.Query, &search.Jurisdictions,
			&search.RecordCount, &search.ErrorCount, &createdAt); err != nil {
			return nil, err
		}
		search.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, search)
	}
	return results, rows.Err()
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

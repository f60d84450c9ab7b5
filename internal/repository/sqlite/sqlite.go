package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store implements repository.Store using SQLite
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// New opens (or creates) the database at dbPath and migrates the schema.
// dbPath may be ":memory:" for an ephemeral store.
func New(dbPath string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps :memory: databases coherent and
	// serializes writers, which SQLite wants anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		hostname TEXT NOT NULL,
		serial_number TEXT NOT NULL DEFAULT '',
		platform TEXT NOT NULL DEFAULT '',
		hardware_model TEXT NOT NULL DEFAULT '',
		software_version TEXT NOT NULL DEFAULT '',
		capabilities TEXT NOT NULL DEFAULT '[]',
		is_stack INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interfaces (
		device_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		addresses TEXT NOT NULL DEFAULT '[]',
		type TEXT NOT NULL DEFAULT '',
		last_seen TEXT NOT NULL,
		PRIMARY KEY (device_id, name),
		FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS vlans (
		device_id INTEGER NOT NULL,
		vlan_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		port_count INTEGER NOT NULL DEFAULT 0,
		portchannel_count INTEGER NOT NULL DEFAULT 0,
		last_seen TEXT NOT NULL,
		PRIMARY KEY (device_id, vlan_id),
		FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS stack_members (
		device_id INTEGER NOT NULL,
		member_number INTEGER NOT NULL,
		serial_number TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL DEFAULT '',
		last_seen TEXT NOT NULL,
		PRIMARY KEY (device_id, member_number),
		FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS neighbor_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		a_key TEXT NOT NULL,
		a_if TEXT NOT NULL,
		b_key TEXT NOT NULL,
		b_if TEXT NOT NULL,
		protocol TEXT NOT NULL DEFAULT '',
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		UNIQUE (a_key, a_if, b_key, b_if)
	);

	CREATE INDEX IF NOT EXISTS idx_devices_status ON devices(status);
	CREATE INDEX IF NOT EXISTS idx_links_a ON neighbor_links(a_key);
	CREATE INDEX IF NOT EXISTS idx_links_b ON neighbor_links(b_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

// withTx runs fn inside a transaction, committing on nil error
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

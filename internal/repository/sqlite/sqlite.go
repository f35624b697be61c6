// Package sqlite implements the repository interfaces on SQLite.
//
// Each collection of the document model (users, entries, pitches, injuries,
// injury_spots, friend_requests, friendships, suggestions) is one table keyed
// by a server-generated xid plus an email ownership column.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without a C toolchain. ":memory:" gives each test its own database.
//
// TIMESTAMPS:
// created_at and friends are stored as INTEGER unix microseconds (UTC). Range
// predicates then compare numbers instead of driver-formatted strings.
//
// CONCURRENCY:
// SQLite has a single writer. The pool is capped at one connection, so a
// transaction owns the database for its whole duration and multi-statement
// units (friend acceptance, injury + spots) are never observed half-done.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out one store per collection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/turflog.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; injury_spots relies on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserDB             { return &UserDB{conn: db.conn} }
func (db *DB) Entries() *EntryDB          { return &EntryDB{conn: db.conn} }
func (db *DB) Drawings() *DrawingDB       { return &DrawingDB{conn: db.conn} }
func (db *DB) Injuries() *InjuryDB        { return &InjuryDB{conn: db.conn} }
func (db *DB) Friends() *FriendDB         { return &FriendDB{conn: db.conn} }
func (db *DB) Suggestions() *SuggestionDB { return &SuggestionDB{conn: db.conn} }

// migrate creates every table and index. CREATE ... IF NOT EXISTS keeps it
// safe to run on every start.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id              TEXT PRIMARY KEY,
				email           TEXT NOT NULL UNIQUE,
				name            TEXT NOT NULL DEFAULT '',
				profile_pic_url TEXT NOT NULL DEFAULT '',
				created_at      INTEGER NOT NULL,
				updated_at      INTEGER NOT NULL
			);`},
		// One row per (email, day_start): the upsert-by-day invariant lives here.
		{"entries", `
			CREATE TABLE IF NOT EXISTS entries (
				id         TEXT PRIMARY KEY,
				email      TEXT NOT NULL,
				position   TEXT NOT NULL DEFAULT '',
				goals      INTEGER NOT NULL CHECK (goals >= 0),
				assists    INTEGER NOT NULL CHECK (assists >= 0),
				created_at INTEGER NOT NULL,
				day_start  INTEGER NOT NULL,
				UNIQUE (email, day_start)
			);
			CREATE INDEX IF NOT EXISTS idx_entries_email_created ON entries(email, created_at);
			CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);`},
		{"pitches", `
			CREATE TABLE IF NOT EXISTS pitches (
				id         TEXT PRIMARY KEY,
				email      TEXT NOT NULL,
				image      TEXT NOT NULL DEFAULT '',
				passes     TEXT NOT NULL DEFAULT '[]',
				shots      TEXT NOT NULL DEFAULT '[]',
				created_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_pitches_email_created ON pitches(email, created_at);`},
		{"injuries", `
			CREATE TABLE IF NOT EXISTS injuries (
				id          TEXT PRIMARY KEY,
				email       TEXT NOT NULL,
				injury_type TEXT NOT NULL,
				duration    INTEGER NOT NULL CHECK (duration >= 0),
				created_at  INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_injuries_email ON injuries(email);
			CREATE TABLE IF NOT EXISTS injury_spots (
				id        TEXT PRIMARY KEY,
				injury_id TEXT NOT NULL REFERENCES injuries(id) ON DELETE CASCADE,
				x         REAL NOT NULL,
				y         REAL NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_injury_spots_injury ON injury_spots(injury_id);`},
		// At most one pending request per direction.
		{"friend_requests", `
			CREATE TABLE IF NOT EXISTS friend_requests (
				id              TEXT PRIMARY KEY,
				sender_email    TEXT NOT NULL,
				recipient_email TEXT NOT NULL,
				status          TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected')),
				created_at      INTEGER NOT NULL,
				updated_at      INTEGER
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_requests_pending
				ON friend_requests(sender_email, recipient_email) WHERE status = 'pending';
			CREATE INDEX IF NOT EXISTS idx_friend_requests_recipient
				ON friend_requests(recipient_email, status);`},
		// request_id makes acceptance replays idempotent; the pair index keeps
		// the undirected edge unique whichever way round it was stored.
		{"friendships", `
			CREATE TABLE IF NOT EXISTS friendships (
				id          TEXT PRIMARY KEY,
				request_id  TEXT NOT NULL UNIQUE,
				user1_email TEXT NOT NULL,
				user2_email TEXT NOT NULL,
				created_at  INTEGER NOT NULL
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_friendships_pair
				ON friendships(min(user1_email, user2_email), max(user1_email, user2_email));
			CREATE INDEX IF NOT EXISTS idx_friendships_user2 ON friendships(user2_email);`},
		{"suggestions", `
			CREATE TABLE IF NOT EXISTS suggestions (
				id         TEXT PRIMARY KEY,
				email      TEXT NOT NULL,
				suggestion TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);`},
	}

	for _, s := range steps {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s: %w", s.name, err)
		}
	}
	return nil
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// rollback is deferred after BeginTx; it is a no-op once Commit succeeded.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// CONSISTENCY MODEL:
// Every operation in this package either touches exactly one row (by primary
// key or unique constraint) or performs an idempotent upsert, so SQLite's own
// per-row consistency is all the coordination this app needs — no advisory
// locking, no transactions spanning user requests.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The underscore import `_ "modernc.org/sqlite"` is a "side-effect only" import.
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite" — after this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool.
//
// The repository interfaces (profiles, tokens, projects, documentation,
// attachments) are implemented by small per-entity stores that share this
// pool — reached via the accessor methods below (db.Profiles(), db.Tokens(),
// ...). The accessors are cheap: the stores hold nothing but the pool.
type DB struct {
	conn *sql.DB
}

// Profiles returns the profile store.
func (db *DB) Profiles() *ProfileStore { return &ProfileStore{conn: db.conn} }

// Tokens returns the GitHub token vault store.
func (db *DB) Tokens() *TokenStore { return &TokenStore{conn: db.conn} }

// Projects returns the project store.
func (db *DB) Projects() *ProjectStore { return &ProjectStore{conn: db.conn} }

// Documentation returns the project documentation store.
func (db *DB) Documentation() *DocumentationStore { return &DocumentationStore{conn: db.conn} }

// Attachments returns the attachment metadata store.
func (db *DB) Attachments() *AttachmentStore { return &AttachmentStore{conn: db.conn} }

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/portfolio.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	// sql.Open does NOT actually open a connection — it creates a pool
	// manager. Ping forces an immediate connection so a bad path or
	// permissions issue surfaces here, not on the first query.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode:
	// Default SQLite locks the entire database during writes. WAL allows
	// concurrent reads WHILE a write is happening — important for a web
	// server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We rely on them: token/documentation/attachment rows cascade away
	// when their parent profile or project is deleted.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Defer it wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the five tables. CREATE TABLE IF NOT EXISTS keeps this
// safe to run on every boot; schema changes get addColumnIfNotExists below.
func (db *DB) migrate() error {
	// profiles: identity → role mapping. The id IS the session subject —
	// no separate surrogate key.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL DEFAULT '',
			full_name  TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT 'developer'
			           CHECK (role IN ('developer', 'expert')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	// user_tokens: the vault. user_id is the PRIMARY KEY — at most one
	// row per user, upserts overwrite.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_tokens (
			user_id         TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
			github_token    TEXT NOT NULL,
			github_username TEXT NOT NULL DEFAULT '',
			avatar_url      TEXT NOT NULL DEFAULT '',
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_tokens table: %w", err)
	}

	// projects: github_repo_id is UNIQUE — the import conflict key.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			github_repo_id    INTEGER NOT NULL UNIQUE,
			name              TEXT NOT NULL,
			full_name         TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			language          TEXT NOT NULL DEFAULT '',
			stars             INTEGER NOT NULL DEFAULT 0,
			forks             INTEGER NOT NULL DEFAULT 0,
			html_url          TEXT NOT NULL DEFAULT '',
			github_created_at DATETIME,
			github_updated_at DATETIME,
			notes             TEXT NOT NULL DEFAULT '',
			tags              TEXT NOT NULL DEFAULT '[]',
			status            TEXT NOT NULL DEFAULT 'draft'
			                  CHECK (status IN ('draft', 'in_review', 'published')),
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	// project_documentation: zero-or-one row per project, keyed by it.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS project_documentation (
			project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
			content    TEXT NOT NULL DEFAULT '{}',
			updated_by TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating project_documentation table: %w", err)
	}

	// plain_text landed after the first release; older databases get the
	// column on boot.
	if err := db.addColumnIfNotExists("project_documentation", "plain_text",
		`TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("adding project_documentation.plain_text: %w", err)
	}

	// project_documents: attachment metadata, insert-only.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS project_documents (
			id           TEXT PRIMARY KEY,
			project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name         TEXT NOT NULL,
			url          TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			size         INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_project_documents_project_id
			ON project_documents(project_id);
	`)
	if err != nil {
		return fmt.Errorf("creating project_documents table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent — safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/formulatag/internal/annotation"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS annotations (
    doc_id TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// SQLiteStore keeps maps as JSON rows in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// modernc applies connection pragmas only through _pragma parameters.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return newSQLiteStore(db)
}

// OpenSQLiteMemory creates an in-memory database (useful for testing).
func OpenSQLiteMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Each connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	return newSQLiteStore(db)
}

func newSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, docID string) (annotation.Map, bool, error) {
	if err := ValidateID(docID); err != nil {
		return nil, false, err
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM annotations WHERE doc_id = ?`, docID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting annotations: %w", err)
	}
	m, err := annotation.Decode([]byte(body))
	if err != nil {
		return nil, false, fmt.Errorf("annotations %s: %w", docID, err)
	}
	return m, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, docID string, m annotation.Map) error {
	if err := ValidateID(docID); err != nil {
		return err
	}
	body, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO annotations (doc_id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		docID, string(body), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing annotations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id FROM annotations ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning doc id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

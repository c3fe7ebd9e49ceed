// Package store persists annotation maps keyed by document or paragraph id.
package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/formulatag/internal/annotation"
)

// ErrInvalidID is returned for ids that are empty or could escape a directory.
var ErrInvalidID = errors.New("invalid document id")

// Store holds one annotation map per document id. A Put replaces the whole
// map; there are no partial updates.
type Store interface {
	// Get returns the stored map and whether one exists.
	Get(ctx context.Context, docID string) (annotation.Map, bool, error)
	Put(ctx context.Context, docID string, m annotation.Map) error
	// List returns the stored document ids in sorted order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config selects and locates a backend.
type Config struct {
	Backend string
	Path    string // directory for file/badger, database file for sqlite
	Log     *slog.Logger
}

// Open returns the configured backend.
func Open(cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendFile, "":
		s, err = NewFileStore(cfg.Path)
	case BackendSQLite:
		s, err = OpenSQLite(cfg.Path)
	case BackendBadger:
		s, err = OpenBadger(BadgerConfig{Path: cfg.Path, SyncWrites: true, Logger: cfg.Log})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ValidateID rejects ids that are empty or contain path components.
func ValidateID(id string) error {
	if id == "" || id == "." || strings.Contains(id, "..") ||
		strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

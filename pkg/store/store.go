// Package store holds the single opaque document the session is persisted to.
package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// DefaultKey names the persisted session document.
const DefaultKey = "chatAppState"

var ErrNotFound = errors.New("document not found")

// Store loads and saves one blob. Load returns ErrNotFound when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Close() error
}

type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Open builds the store selected by kind. path is ignored for memory stores.
func Open(kind Kind, path string) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(path)
	case KindSQLite:
		dsn, err := SQLiteDSNForFile(path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(dsn, DefaultKey)
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

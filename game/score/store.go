package score

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyKey is returned when a record has no configuration id
var ErrEmptyKey = errors.New("high score key is empty")

// Store is the high score store returned by Open
type Store interface {
	Get(ctx context.Context, key string) (int, error)
	Put(ctx context.Context, key string, score int) error
	Close() error
}

// Open opens the store described by dsn
func Open(dsn string) (Store, error) {
	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return OpenSQLite(path)
	}
	if strings.HasSuffix(dsn, ".db") || strings.HasSuffix(dsn, ".sqlite") {
		return OpenSQLite(dsn)
	}
	return NewFileStore(dsn)
}

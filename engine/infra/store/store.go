// Package store provides the persistence backends for conversation
// checkpoints and key-value data. A single backend serves both roles: the
// checkpoint side is exposed as a chat message history per session, the store
// side as a namespaced key-value API.
package store

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/schema"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("store: key not found")

// Saver is the checkpoint/store backend contract. Implementations are safe
// for concurrent use.
type Saver interface {
	// History returns the conversation checkpoint for the given session.
	History(sessionID string) schema.ChatMessageHistory

	// Put stores a value under (namespace, key), replacing any previous one.
	Put(ctx context.Context, namespace, key string, value []byte) error

	// Get retrieves the value under (namespace, key), or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)
}

// SchemaSetup is the optional capability for idempotent schema creation.
// Backends without it need no setup; callers probe with a type assertion and
// only log its absence.
type SchemaSetup interface {
	Setup(ctx context.Context) error
}

// Closer is implemented by backends holding a releasable connection.
type Closer interface {
	Close(ctx context.Context) error
}

// Package store persists preference records keyed by session id.
package store

import (
	"context"
	"errors"

	"travel-companion/internal/models"
)

// ErrSessionNotFound is returned by Get for unknown session ids.
var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

// SessionStore is the key-value persistence contract for preference records.
//
// GetOrCreate must be atomic with respect to concurrent creation of the same
// id: the second caller observes the first-created record, never a divergent
// twin. Save is a full replace; callers are expected to read-modify-write
// under the conversation manager's per-session serialization.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID, userID string) (*models.PreferenceRecord, error)
	Get(ctx context.Context, sessionID string) (*models.PreferenceRecord, error)
	Save(ctx context.Context, record *models.PreferenceRecord) error
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel-companion/internal/models"
)

// PostgresStore persists preference records in a chat_sessions table with
// JSONB columns for slots and itinerary.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the chat_sessions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chat_sessions (
			session_id TEXT PRIMARY KEY,
			user_id    TEXT,
			slots      JSONB NOT NULL,
			itinerary  JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create chat_sessions: %w", err)
	}
	return nil
}

// GetOrCreate inserts with ON CONFLICT DO NOTHING and then reads back, so a
// concurrent duplicate create resolves to the first-created row.
func (s *PostgresStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*models.PreferenceRecord, error) {
	record := models.NewPreferenceRecord(sessionID, userID)
	slotsJSON, err := json.Marshal(record.Slots)
	if err != nil {
		return nil, fmt.Errorf("marshal slots: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (session_id, user_id, slots, itinerary, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, $4, $5)
		ON CONFLICT (session_id) DO NOTHING`,
		record.SessionID, record.UserID, slotsJSON, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.Get(ctx, sessionID)
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*models.PreferenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, slots, itinerary, created_at, updated_at
		FROM chat_sessions
		WHERE session_id = $1`, sessionID)

	var (
		record        models.PreferenceRecord
		userID        sql.NullString
		slotsJSON     []byte
		itineraryJSON []byte
		createdAt     time.Time
		updatedAt     time.Time
	)
	err := row.Scan(&record.SessionID, &userID, &slotsJSON, &itineraryJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	record.UserID = userID.String
	record.CreatedAt = createdAt
	record.UpdatedAt = updatedAt

	if err := json.Unmarshal(slotsJSON, &record.Slots); err != nil {
		return nil, fmt.Errorf("unmarshal slots: %w", err)
	}
	if len(itineraryJSON) > 0 {
		var itinerary models.Itinerary
		if err := json.Unmarshal(itineraryJSON, &itinerary); err != nil {
			return nil, fmt.Errorf("unmarshal itinerary: %w", err)
		}
		record.Itinerary = &itinerary
	}

	record.NormalizeSlots()
	return &record, nil
}

func (s *PostgresStore) Save(ctx context.Context, record *models.PreferenceRecord) error {
	slotsJSON, err := json.Marshal(record.Slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}

	var itineraryJSON interface{}
	if record.Itinerary != nil {
		data, err := json.Marshal(record.Itinerary)
		if err != nil {
			return fmt.Errorf("marshal itinerary: %w", err)
		}
		itineraryJSON = data
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (session_id, user_id, slots, itinerary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			slots      = EXCLUDED.slots,
			itinerary  = EXCLUDED.itinerary,
			updated_at = EXCLUDED.updated_at`,
		record.SessionID, record.UserID, slotsJSON, itineraryJSON, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

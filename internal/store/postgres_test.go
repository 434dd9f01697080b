// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-companion/internal/models"
)

func newPostgresTestStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func sessionRows(sessionID, userID string, slots map[string]string, itinerary *models.Itinerary) *sqlmock.Rows {
	slotsJSON, _ := json.Marshal(slots)

	var itineraryJSON interface{}
	if itinerary != nil {
		data, _ := json.Marshal(itinerary)
		itineraryJSON = data
	}

	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"session_id", "user_id", "slots", "itinerary", "created_at", "updated_at"}).
		AddRow(sessionID, userID, slotsJSON, itineraryJSON, now, now)
}

func TestPostgresStore_GetOrCreate(t *testing.T) {
	s, mock := newPostgresTestStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO chat_sessions").
		WithArgs("sess-1", "user-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT session_id, user_id, slots, itinerary, created_at, updated_at").
		WithArgs("sess-1").
		WillReturnRows(sessionRows("sess-1", "user-1", map[string]string{
			"destination": "", "duration": "", "interests": "", "budget": "",
		}, nil))

	record, err := s.GetOrCreate(ctx, "sess-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", record.SessionID)
	assert.Len(t, record.Slots, 4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissingSession(t *testing.T) {
	s, mock := newPostgresTestStore(t)

	mock.ExpectQuery("SELECT session_id, user_id, slots, itinerary, created_at, updated_at").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	record, err := s.Get(context.Background(), "nope")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetWithItinerary(t *testing.T) {
	s, mock := newPostgresTestStore(t)

	itinerary := &models.Itinerary{
		TripTitle: "3 Days in Paris",
		Days:      []models.DayPlan{{DayNumber: 1}},
	}
	mock.ExpectQuery("SELECT session_id, user_id, slots, itinerary, created_at, updated_at").
		WithArgs("sess-1").
		WillReturnRows(sessionRows("sess-1", "user-1", map[string]string{
			"destination": "Paris", "duration": "3", "interests": "art", "budget": "mid-range",
		}, itinerary))

	record, err := s.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, record.IsCompleted())
	assert.Equal(t, "3 Days in Paris", record.Itinerary.TripTitle)
	assert.Equal(t, "Paris", record.Slots[models.SlotDestination])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	s, mock := newPostgresTestStore(t)

	record := models.NewPreferenceRecord("sess-1", "user-1")
	record.Slots[models.SlotDestination] = "Paris"

	mock.ExpectExec("INSERT INTO chat_sessions").
		WithArgs("sess-1", "user-1", sqlmock.AnyArg(), nil, record.CreatedAt, record.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Save(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := newPostgresTestStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS chat_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.EnsureSchema(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

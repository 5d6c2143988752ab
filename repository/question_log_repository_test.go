package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"parentguide-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestQuestionLogRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO question_logs").
		WithArgs("req-1", "en", pgxmock.AnyArg(), models.UrgencyNormal, false, true,
			pgxmock.AnyArg(), pgxmock.AnyArg(), 3, int64(120)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, created))

	repo := NewQuestionLogRepository(mock)
	log := &models.QuestionLog{
		RequestID:      "req-1",
		Language:       "en",
		Region:         strPtr("oregon"),
		Urgency:        models.UrgencyNormal,
		Success:        true,
		ProviderUsed:   strPtr("anthropic"),
		ProviderErrors: models.ProviderErrors{"openai": "timeout"},
		ResourceCount:  3,
		DurationMS:     120,
	}
	require.NoError(t, repo.Create(context.Background(), log))

	assert.Equal(t, id, log.ID)
	assert.Equal(t, created, log.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionLogRepository_CreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO question_logs").WillReturnError(errors.New("connection reset"))

	repo := NewQuestionLogRepository(mock)
	err = repo.Create(context.Background(), &models.QuestionLog{RequestID: "req-2", Language: "es"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert question log")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionLogRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "request_id", "language", "region", "urgency", "emergency", "success",
		"provider_used", "provider_errors", "resource_count", "duration_ms", "created_at",
	}).AddRow(
		id, "req-3", "es", strPtr("washington"), models.UrgencyEmergency, true, false,
		strPtr("gemini"), []byte(`{"openai":"auth error"}`), 0, int64(900), created,
	)
	mock.ExpectQuery("FROM question_logs").WithArgs(id).WillReturnRows(rows)

	repo := NewQuestionLogRepository(mock)
	log, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, log.ID)
	assert.Equal(t, "req-3", log.RequestID)
	assert.Equal(t, "washington", *log.Region)
	assert.Equal(t, models.UrgencyEmergency, log.Urgency)
	assert.True(t, log.Emergency)
	assert.False(t, log.Success)
	assert.Equal(t, "auth error", log.ProviderErrors["openai"])
	assert.Equal(t, int64(900), log.DurationMS)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionLogRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("FROM question_logs").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	repo := NewQuestionLogRepository(mock)
	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionLogRepository_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS question_logs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	repo := NewQuestionLogRepository(mock)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionLogSchema(t *testing.T) {
	assert.Contains(t, QuestionLogSchema, "provider_errors JSONB")
	assert.Contains(t, QuestionLogSchema, "CHECK (urgency IN ('normal', 'urgent', 'emergency'))")
}

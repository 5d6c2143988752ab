package repository

import (
	"context"
	"errors"

	"parentguide-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("repository: not found")

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuestionLogSchema creates the question_logs table.
const QuestionLogSchema = `
CREATE TABLE IF NOT EXISTS question_logs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    request_id VARCHAR(64) NOT NULL,
    language VARCHAR(16) NOT NULL,
    region VARCHAR(32),
    urgency VARCHAR(16) NOT NULL DEFAULT 'normal'
        CHECK (urgency IN ('normal', 'urgent', 'emergency')),
    emergency BOOLEAN NOT NULL DEFAULT false,
    success BOOLEAN NOT NULL,
    provider_used VARCHAR(32),
    provider_errors JSONB NOT NULL DEFAULT '{}'::jsonb,
    resource_count INTEGER NOT NULL DEFAULT 0,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_question_logs_request_id ON question_logs(request_id);
CREATE INDEX IF NOT EXISTS idx_question_logs_created_at ON question_logs(created_at);
`

// QuestionLogRepository handles database operations for question logs
type QuestionLogRepository struct {
	db DB
}

// NewQuestionLogRepository creates a new question log repository
func NewQuestionLogRepository(db DB) *QuestionLogRepository {
	return &QuestionLogRepository{db: db}
}

// EnsureSchema creates the table if it does not exist
func (r *QuestionLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, QuestionLogSchema); err != nil {
		return eris.Wrap(err, "repository: create question_logs schema")
	}
	return nil
}

// Create inserts a question log and fills in its ID and creation time
func (r *QuestionLogRepository) Create(ctx context.Context, log *models.QuestionLog) error {
	query := `
		INSERT INTO question_logs (
			request_id, language, region, urgency, emergency, success,
			provider_used, provider_errors, resource_count, duration_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		log.RequestID,
		log.Language,
		log.Region,
		log.Urgency,
		log.Emergency,
		log.Success,
		log.ProviderUsed,
		log.ProviderErrors,
		log.ResourceCount,
		log.DurationMS,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return eris.Wrap(err, "repository: insert question log")
	}
	return nil
}

// GetByID retrieves a question log by ID
func (r *QuestionLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QuestionLog, error) {
	log := &models.QuestionLog{}
	query := `
		SELECT id, request_id, language, region, urgency, emergency, success,
			provider_used, provider_errors, resource_count, duration_ms, created_at
		FROM question_logs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&log.ID,
		&log.RequestID,
		&log.Language,
		&log.Region,
		&log.Urgency,
		&log.Emergency,
		&log.Success,
		&log.ProviderUsed,
		&log.ProviderErrors,
		&log.ResourceCount,
		&log.DurationMS,
		&log.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "repository: get question log")
	}

	return log, nil
}

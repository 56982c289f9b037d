package voiceinput

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthassist/platform/internal/shared/errors"
	"github.com/healthassist/platform/internal/shared/types"
)

// Repository provides database operations for voice-input records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new voice-input repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores a record.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	entities, err := json.Marshal(rec.Entities)
	if err != nil {
		return errors.Wrap(err, "failed to encode entities")
	}
	indicators, err := json.Marshal(rec.HealthIndicators)
	if err != nil {
		return errors.Wrap(err, "failed to encode health indicators")
	}
	recommendations, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return errors.Wrap(err, "failed to encode recommendations")
	}

	query := `
		INSERT INTO health.voice_inputs (
			id, user_id, session_id, input_type, transcription, language,
			primary_intent, confidence, urgency_level, combined_text,
			entities, health_indicators, recommendations, processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.SessionID, rec.InputType, rec.Transcription,
		rec.Language, rec.PrimaryIntent, rec.Confidence, rec.UrgencyLevel,
		rec.CombinedText, entities, indicators, recommendations,
		rec.ProcessingTimeMs,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create voice input")
	}

	return nil
}

// Get retrieves a record by ID.
func (r *Repository) Get(ctx context.Context, id types.ID) (*Record, error) {
	query := `
		SELECT id, user_id, session_id, input_type, transcription, language,
			primary_intent, confidence, urgency_level, combined_text,
			entities, health_indicators, recommendations, processing_time_ms,
			created_at, updated_at
		FROM health.voice_inputs
		WHERE id = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("voice input", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get voice input")
	}

	return rec, nil
}

// Update corrects the transcription of a record.
func (r *Repository) Update(ctx context.Context, rec *Record) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE health.voice_inputs
		SET transcription = $2, language = $3, updated_at = NOW()
		WHERE id = $1`,
		rec.ID, rec.Transcription, rec.Language,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update voice input")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("voice input", rec.ID.String())
	}

	return nil
}

// Delete deletes a record.
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM health.voice_inputs WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete voice input")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("voice input", id.String())
	}

	return nil
}

// List lists records with optional filters.
func (r *Repository) List(ctx context.Context, filter ListRecordsFilter) ([]Record, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argNum))
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", argNum))
		args = append(args, filter.SessionID)
		argNum++
	}
	if filter.Intent != "" {
		conditions = append(conditions, fmt.Sprintf("primary_intent = $%d", argNum))
		args = append(args, filter.Intent)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM health.voice_inputs %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count voice inputs")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, session_id, input_type, transcription, language,
			primary_intent, confidence, urgency_level, combined_text,
			entities, health_indicators, recommendations, processing_time_ms,
			created_at, updated_at
		FROM health.voice_inputs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list voice inputs")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan voice input")
		}
		records = append(records, *rec)
	}

	return records, total, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	var entities, indicators, recommendations []byte

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.SessionID, &rec.InputType,
		&rec.Transcription, &rec.Language, &rec.PrimaryIntent,
		&rec.Confidence, &rec.UrgencyLevel, &rec.CombinedText,
		&entities, &indicators, &recommendations, &rec.ProcessingTimeMs,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &rec.Entities); err != nil {
			return nil, err
		}
	}
	if len(indicators) > 0 {
		if err := json.Unmarshal(indicators, &rec.HealthIndicators); err != nil {
			return nil, err
		}
	}
	if len(recommendations) > 0 {
		if err := json.Unmarshal(recommendations, &rec.Recommendations); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

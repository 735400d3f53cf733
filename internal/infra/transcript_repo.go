package infra

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Vovarama1992/asrserve/internal/models"
	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresTranscriptRepo struct {
	pool *pgxpool.Pool
}

func trim(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func NewPostgresTranscriptRepo(pool *pgxpool.Pool) ports.TranscriptRepository {
	return &PostgresTranscriptRepo{pool: pool}
}

func (r *PostgresTranscriptRepo) InsertTranscription(ctx context.Context, t *models.Transcription) (*models.Transcription, error) {
	query := `
		INSERT INTO transcription (request_id, name, variant, text, samples, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	row := r.pool.QueryRow(ctx, query, t.RequestID, t.Name, t.Variant, t.Text, t.Samples, t.DurationMS)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert transcription: %w", err)
	}

	log.Printf("[DB][INSERT] id=%d req=%s text=%q", t.ID, t.RequestID, trim(t.Text, 120))
	return t, nil
}

func (r *PostgresTranscriptRepo) GetTranscriptionByID(ctx context.Context, id int) (*models.Transcription, error) {
	query := `
		SELECT id, request_id, name, variant, text, samples, duration_ms, created_at
		FROM transcription
		WHERE id = $1
	`

	var t models.Transcription
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.RequestID,
		&t.Name,
		&t.Variant,
		&t.Text,
		&t.Samples,
		&t.DurationMS,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transcription by id: %w", err)
	}

	return &t, nil
}

func (r *PostgresTranscriptRepo) ListRecent(ctx context.Context, limit int) ([]models.Transcription, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, request_id, name, variant, text, samples, duration_ms, created_at
		FROM transcription
		ORDER BY id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transcriptions: %w", err)
	}
	defer rows.Close()

	var out []models.Transcription
	for rows.Next() {
		var t models.Transcription
		if err := rows.Scan(
			&t.ID,
			&t.RequestID,
			&t.Name,
			&t.Variant,
			&t.Text,
			&t.Samples,
			&t.DurationMS,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

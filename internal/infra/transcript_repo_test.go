package infra

import (
	"context"
	"os"
	"testing"

	"github.com/Vovarama1992/asrserve/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresTranscriptRepo(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres test")
	}

	ctx := context.Background()
	pool, err := NewPgxPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, EnsureSchema(ctx, pool))

	repo := NewPostgresTranscriptRepo(pool)

	saved, err := repo.InsertTranscription(ctx, &models.Transcription{
		RequestID:  "req-1",
		Name:       "audio.wav",
		Variant:    "file",
		Text:       "hello world",
		Samples:    16000,
		DurationMS: 120,
	})
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	got, err := repo.GetTranscriptionByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, 16000, got.Samples)

	missing, err := repo.GetTranscriptionByID(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	recent, err := repo.ListRecent(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, saved.ID, recent[0].ID)
}

func TestTrim(t *testing.T) {
	assert.Equal(t, "abc", trim("abc", 5))
	assert.Equal(t, "ab…", trim("abcdef", 2))
}

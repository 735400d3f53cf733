package ports

import (
	"context"

	"github.com/Vovarama1992/asrserve/internal/models"
)

type TranscriptRepository interface {
	InsertTranscription(ctx context.Context, t *models.Transcription) (*models.Transcription, error)
	GetTranscriptionByID(ctx context.Context, id int) (*models.Transcription, error)
	ListRecent(ctx context.Context, limit int) ([]models.Transcription, error)
}

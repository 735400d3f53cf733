package ports

import (
	"context"

	"github.com/Vovarama1992/asrserve/internal/models"
)

type TranscriptEvent struct {
	RoomID    string
	RequestID string
	Name      string
	Text      string
}

type TranscribeProcessor interface {
	Handle(ctx context.Context, roomID string, req *models.TranscribeRequest) (string, error)
	Events() <-chan TranscriptEvent
}

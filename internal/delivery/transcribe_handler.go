package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vovarama1992/asrserve/internal/domain"
	"github.com/Vovarama1992/asrserve/internal/domain/stations"
	"github.com/Vovarama1992/asrserve/internal/models"
	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
)

// base64 WAV; минута 16 kHz PCM16 ≈ 2.6 MB
const maxBodyBytes = 64 << 20

type TranscribeHandler struct {
	svc     ports.TranscribeProcessor
	log     *logger.ZapLogger
	maxBody int64
}

func NewTranscribeHandler(svc ports.TranscribeProcessor, log *logger.ZapLogger) *TranscribeHandler {
	return &TranscribeHandler{
		svc:     svc,
		log:     log,
		maxBody: maxBodyBytes,
	}
}

// POST /
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req models.TranscribeRequest

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	roomID := r.Header.Get("X-Room")
	if roomID == "" {
		roomID = domain.DefaultRoom
	}

	text, err := h.svc.Handle(r.Context(), roomID, &req)
	if err != nil {
		status := http.StatusInternalServerError
		if stations.IsDecodeError(err) {
			status = http.StatusBadRequest
		}

		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "transcribe failed",
			Error:   err,
			Fields:  map[string]any{"status": status, "room": roomID},
		})

		http.Error(w, err.Error(), status)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "transcribed",
		Fields: map[string]any{
			"room":   roomID,
			"length": len(text),
		},
	})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

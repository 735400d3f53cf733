package delivery

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
)

type HistoryHandler struct {
	repo ports.TranscriptRepository
	log  *logger.ZapLogger
}

func NewHistoryHandler(repo ports.TranscriptRepository, log *logger.ZapLogger) *HistoryHandler {
	return &HistoryHandler{
		repo: repo,
		log:  log,
	}
}

// GET /api/transcriptions/{id}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.repo.GetTranscriptionByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed get transcription: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "transcription fetched",
		Fields: map[string]any{
			"id":     id,
			"length": len(t.Text),
		},
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t)
}

// GET /api/transcriptions?limit=N
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed list transcriptions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"items": items,
	})
}

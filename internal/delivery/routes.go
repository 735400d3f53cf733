package delivery

import (
	"net/http"

	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hTranscribe *TranscribeHandler) {
	r.Post("/", hTranscribe.Transcribe)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

// RegisterHistoryRoutes: история доступна только с токеном.
func RegisterHistoryRoutes(r chi.Router, hAuth *AuthHandler, auth ports.AuthService, hHistory *HistoryHandler) {

	// login
	r.Post("/api/login", hAuth.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(auth))
		r.Get("/api/transcriptions", hHistory.List)
		r.Get("/api/transcriptions/{id}", hHistory.Get)
	})
}

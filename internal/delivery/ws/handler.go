package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/Vovarama1992/asrserve/internal/domain"
	"github.com/Vovarama1992/asrserve/internal/models"
	"github.com/Vovarama1992/asrserve/internal/ports"
)

const maxMessageBytes = 64 << 20

type transcriptMsg struct {
	Status    string `json:"status"`
	RequestID string `json:"requestId,omitempty"`
	Name      string `json:"name,omitempty"`
	Text      string `json:"text"`
}

// WSHandler: клиент подписывается на комнату и может слать те же payload'ы, что и POST /.
// Результаты приходят всем в комнате через Pump.
func WSHandler(hub *Hub, asr ports.TranscribeProcessor) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed: %v", err)
			return
		}
		conn.SetReadLimit(maxMessageBytes)

		roomID := r.URL.Query().Get("roomID")
		if roomID == "" {
			roomID = domain.DefaultRoom
		}

		ctxWS, cancelWS := context.WithCancel(context.Background())

		log.Printf("[WS] start room=%s", roomID)
		hub.Register(roomID, conn)

		defer func() {
			cancelWS()
			log.Printf("[WS] end room=%s", roomID)
			hub.Unregister(roomID, conn)
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Printf("[WS] disconnect room=%s", roomID)
				return
			}

			var req models.TranscribeRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				log.Printf("[WS] bad json room=%s", roomID)
				hub.SendToRoom(roomID, []byte(`{"status":"error"}`))
				continue
			}

			hub.SendToRoom(roomID, []byte(`{"status":"processing_started"}`))

			go func() {
				if _, err := asr.Handle(ctxWS, roomID, &req); err != nil {
					log.Printf("[WS] transcribe error room=%s err=%v", roomID, err)
					hub.SendToRoom(roomID, []byte(`{"status":"error"}`))
				}
			}()
		}
	}
}

// Pump рассылает готовые транскрипции: в комнату события и в default.
func Pump(hub *Hub, events <-chan ports.TranscriptEvent) {
	for ev := range events {
		payload, err := json.Marshal(transcriptMsg{
			Status:    "ok",
			RequestID: ev.RequestID,
			Name:      ev.Name,
			Text:      ev.Text,
		})
		if err != nil {
			log.Printf("[SEND][ERR] json marshal failed: %v", err)
			continue
		}

		log.Printf("[SEND] room=%s req=%s text=%.30s", ev.RoomID, ev.RequestID, ev.Text)

		hub.SendToRoom(ev.RoomID, payload)
		if ev.RoomID != domain.DefaultRoom {
			hub.SendToRoom(domain.DefaultRoom, payload)
		}
	}
}

package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/asrserve/internal/models"
	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProcessor struct {
	events chan ports.TranscriptEvent
	err    error
}

func (p *echoProcessor) Handle(_ context.Context, roomID string, req *models.TranscribeRequest) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events <- ports.TranscriptEvent{RoomID: roomID, RequestID: "req-1", Name: req.Data[0].Name, Text: "hello"}
	return "hello", nil
}

func (p *echoProcessor) Events() <-chan ports.TranscriptEvent { return p.events }

func start(t *testing.T, p *echoProcessor) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(WSHandler(hub, p))
	t.Cleanup(srv.Close)
	go Pump(hub, p.events)
	t.Cleanup(func() { close(p.events) })
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

const request = `{"data":[{"name":"clip.wav","data":"data:audio/wav;base64,AAAA"}]}`

func TestWS_TranscribeOverSocket(t *testing.T) {
	_, url := start(t, &echoProcessor{events: make(chan ports.TranscriptEvent, 4)})
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(request)))

	assert.Equal(t, "processing_started", read(t, conn)["status"])

	msg := read(t, conn)
	assert.Equal(t, "ok", msg["status"])
	assert.Equal(t, "req-1", msg["requestId"])
	assert.Equal(t, "clip.wav", msg["name"])
	assert.Equal(t, "hello", msg["text"])
}

func TestWS_BadJSONAndFailure(t *testing.T) {
	_, url := start(t, &echoProcessor{events: make(chan ports.TranscriptEvent, 4), err: errors.New("cuda oom")})
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, "error", read(t, conn)["status"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(request)))
	assert.Equal(t, "processing_started", read(t, conn)["status"])
	assert.Equal(t, "error", read(t, conn)["status"])
}

func TestPump_RoomAndDefault(t *testing.T) {
	p := &echoProcessor{events: make(chan ports.TranscriptEvent, 4)}
	hub, url := start(t, p)

	lab := dial(t, url+"?roomID=lab")
	all := dial(t, url)
	other := dial(t, url+"?roomID=other")

	require.Eventually(t, func() bool {
		return hub.RoomSize("lab") == 1 && hub.RoomSize("default") == 1 && hub.RoomSize("other") == 1
	}, 2*time.Second, 10*time.Millisecond)

	p.events <- ports.TranscriptEvent{RoomID: "lab", RequestID: "r", Name: "a.wav", Text: "hi"}

	assert.Equal(t, "hi", read(t, lab)["text"])
	assert.Equal(t, "hi", read(t, all)["text"])

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other room must not receive lab events")
}

func TestHub_UnregisterDropsEmptyRoom(t *testing.T) {
	hub, url := start(t, &echoProcessor{events: make(chan ports.TranscriptEvent, 1)})
	conn := dial(t, url+"?roomID=tmp")

	require.Eventually(t, func() bool { return hub.RoomSize("tmp") == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.RoomSize("tmp") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StalledReaderIsDropped(t *testing.T) {
	hub, url := start(t, &echoProcessor{events: make(chan ports.TranscriptEvent, 1)})
	hub.writeWait = 200 * time.Millisecond

	dial(t, url+"?roomID=stalled") // never read from
	healthy := dial(t, url+"?roomID=healthy")

	require.Eventually(t, func() bool {
		return hub.RoomSize("stalled") == 1 && hub.RoomSize("healthy") == 1
	}, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		big := bytes.Repeat([]byte("a"), 1<<20)
		for i := 0; i < 256 && hub.RoomSize("stalled") > 0; i++ {
			hub.SendToRoom("stalled", big)
		}
	}()

	hub.SendToRoom("healthy", []byte(`{"text":"still here"}`))
	assert.Equal(t, "still here", read(t, healthy)["text"])

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("writes to a non-reading client never timed out")
	}
	assert.Equal(t, 0, hub.RoomSize("stalled"))

	dial(t, url+"?roomID=late")
	require.Eventually(t, func() bool { return hub.RoomSize("late") == 1 }, 2*time.Second, 10*time.Millisecond)
}

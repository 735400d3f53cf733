package domain

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Vovarama1992/asrserve/internal/config"
	"github.com/Vovarama1992/asrserve/internal/domain/stations"
	"github.com/Vovarama1992/asrserve/internal/metrics"
	"github.com/Vovarama1992/asrserve/internal/models"
	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/google/uuid"
)

const DefaultRoom = "default"

type TranscribeService struct {
	variant string
	repo    ports.TranscriptRepository

	s1 *stations.S1StripDataURI
	s2 *stations.S2PCMToSamples
	s3 *stations.S3SamplesToWAV
	s4 *stations.S4WriteTempWAV
	s5 *stations.S5Recognize

	events chan ports.TranscriptEvent
}

// NewTranscribeService wires the decode → predict → cleanup chain. repo may be nil.
// Input audio is taken as 16 kHz whatever the checkpoint was trained on.
func NewTranscribeService(
	variant string,
	rec ports.Recognizer,
	tempDir string,
	repo ports.TranscriptRepository,
) *TranscribeService {
	return &TranscribeService{
		variant: variant,
		repo:    repo,
		s1:      stations.NewS1StripDataURI(),
		s2:      stations.NewS2PCMToSamples(),
		s3:      stations.NewS3SamplesToWAV(stations.DefaultSampleRate),
		s4:      stations.NewS4WriteTempWAV(tempDir),
		s5:      stations.NewS5Recognize(rec),
		events:  make(chan ports.TranscriptEvent, 100),
	}
}

func (m *TranscribeService) Events() <-chan ports.TranscriptEvent { return m.events }

// ========================================================================
// HANDLE
// ========================================================================
func (m *TranscribeService) Handle(
	ctx context.Context,
	roomID string,
	req *models.TranscribeRequest,
) (string, error) {

	requestID := uuid.NewString()
	start := time.Now()

	b64, raw, err := m.s1.Run(req)
	if err != nil {
		return "", err
	}
	samples := m.s2.Run(raw)

	var text string
	switch m.variant {
	case config.VariantArray:
		text, err = m.s5.RunSamples(ctx, samples)
	default:
		text, err = m.predictFile(ctx, b64, samples)
	}

	dur := time.Since(start)
	metrics.ObserveInference(m.variant, err, dur)

	if err != nil {
		log.Printf("[HANDLE][FAIL] req=%s variant=%s err=%v", requestID, m.variant, err)
		return "", err
	}

	name := req.Data[0].Name
	m.save(ctx, &models.Transcription{
		RequestID:  requestID,
		Name:       name,
		Variant:    m.variant,
		Text:       text,
		Samples:    len(samples),
		DurationMS: dur.Milliseconds(),
	})
	m.publish(ports.TranscriptEvent{
		RoomID:    roomID,
		RequestID: requestID,
		Name:      name,
		Text:      text,
	})

	log.Printf("[HANDLE][DONE] req=%s variant=%s dur=%s", requestID, m.variant, dur)
	return text, nil
}

// predictFile: temp wav живёт ровно до конца предсказания, в том числе при ошибке.
func (m *TranscribeService) predictFile(ctx context.Context, b64 string, samples []float32) (string, error) {
	path, err := m.s4.Run(b64, m.s3.Run(samples))
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[CLEANUP][ERR] path=%s err=%v", path, err)
		}
	}()

	text, err := m.s5.RunFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("predict %s: %w", path, err)
	}
	return text, nil
}

func (m *TranscribeService) save(ctx context.Context, t *models.Transcription) {
	if m.repo == nil {
		return
	}
	if _, err := m.repo.InsertTranscription(ctx, t); err != nil {
		log.Printf("[DB][FAIL] req=%s err=%v", t.RequestID, err)
	}
}

func (m *TranscribeService) publish(ev ports.TranscriptEvent) {
	select {
	case m.events <- ev:
	default:
		log.Printf("[EVENTS][DROP] req=%s room=%s", ev.RequestID, ev.RoomID)
	}
}

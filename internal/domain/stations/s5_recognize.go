package stations

import (
	"context"
	"log"
	"time"

	"github.com/Vovarama1992/asrserve/internal/ports"
)

func trim(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

type S5Recognize struct {
	rec ports.Recognizer
}

func NewS5Recognize(rec ports.Recognizer) *S5Recognize {
	return &S5Recognize{rec: rec}
}

func (s *S5Recognize) RunFile(ctx context.Context, path string) (string, error) {
	start := time.Now()
	log.Printf("[S5][START] file=%s", path)

	txt, err := s.rec.Predict(ctx, path)
	if err != nil {
		log.Printf("[S5][ERR] file=%s err=%v", path, err)
		return "", err
	}

	log.Printf("[S5][OK] text=%q dur=%s", trim(txt, 180), time.Since(start))
	return txt, nil
}

func (s *S5Recognize) RunSamples(ctx context.Context, samples []float32) (string, error) {
	start := time.Now()
	log.Printf("[S5][START] samples=%d", len(samples))

	txt, err := s.rec.PredictSamples(ctx, samples)
	if err != nil {
		log.Printf("[S5][ERR] samples=%d err=%v", len(samples), err)
		return "", err
	}

	log.Printf("[S5][OK] text=%q dur=%s", trim(txt, 180), time.Since(start))
	return txt, nil
}

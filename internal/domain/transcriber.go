package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Vovarama1992/asrserve/internal/ports"
)

var ErrNoHypothesis = errors.New("model returned no hypothesis")

// one file, one hypothesis, no data-loader workers
var singleShot = ports.InferParams{BatchSize: 1, NumWorkers: 0, ReturnHypotheses: false}

// Transcriber wraps one restored model.
type Transcriber struct {
	model   ports.ASRModel
	timeout time.Duration
}

func NewTranscriber(model ports.ASRModel, timeout time.Duration) *Transcriber {
	return &Transcriber{model: model, timeout: timeout}
}

func (t *Transcriber) Name() string { return t.model.Name() }

func (t *Transcriber) Predict(ctx context.Context, filepath string) (string, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	out, err := t.model.TranscribeFiles(ctx, []string{filepath}, singleShot)
	if err != nil {
		return "", err
	}
	return first(out)
}

func (t *Transcriber) PredictSamples(ctx context.Context, samples []float32) (string, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	out, err := t.model.TranscribeSamples(ctx, [][]float32{samples}, singleShot)
	if err != nil {
		return "", err
	}
	return first(out)
}

func (t *Transcriber) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.timeout)
}

func first(out []string) (string, error) {
	if len(out) == 0 {
		return "", ErrNoHypothesis
	}
	return out[0], nil
}

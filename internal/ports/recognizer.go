package ports

import "context"

// Recognizer is one restored model instance.
type Recognizer interface {
	Predict(ctx context.Context, filepath string) (string, error)
	PredictSamples(ctx context.Context, samples []float32) (string, error)
}

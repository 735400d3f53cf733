package ports

import "context"

type InferParams struct {
	BatchSize        int
	NumWorkers       int
	ReturnHypotheses bool
}

// ASRModel is a restored checkpoint. Results are one hypothesis per input, in order.
type ASRModel interface {
	Name() string
	TranscribeFiles(ctx context.Context, paths []string, p InferParams) ([]string, error)
	TranscribeSamples(ctx context.Context, batch [][]float32, p InferParams) ([]string, error)
}

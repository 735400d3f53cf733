package nemo

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oneByOne = ports.InferParams{BatchSize: 1, NumWorkers: 0}

func newRemote(t *testing.T, url string) ports.ASRModel {
	t.Helper()
	ckpt := &Checkpoint{
		Path:       "/models/stt_en_conformer_ctc_large.nemo",
		Target:     "nemo.collections.asr.models.ctc_bpe_models.EncDecCTCModelBPE",
		SampleRate: 22050,
	}
	m, err := RemoteFactory(url)(ckpt, Device{Accelerator: AcceleratorCPU})
	require.NoError(t, err)
	return m
}

func TestRemoteModel_TranscribeFiles(t *testing.T) {
	wav := []byte("RIFF....WAVEfmt ")
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, wav, 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transcribe", r.URL.Path)
		assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))

		q := r.URL.Query()
		assert.Equal(t, "stt_en_conformer_ctc_large", q.Get("model"))
		assert.Equal(t, "cpu", q.Get("device"))
		assert.Equal(t, "1", q.Get("batch_size"))
		assert.Equal(t, "0", q.Get("num_workers"))
		assert.Equal(t, "false", q.Get("return_hypotheses"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, wav, body)

		_ = json.NewEncoder(w).Encode(map[string]any{"transcriptions": []string{"hello world"}})
	}))
	defer server.Close()

	m := newRemote(t, server.URL+"/")
	assert.Equal(t, "EncDecCTCModelBPE", m.Name())

	out, err := m.TranscribeFiles(context.Background(), []string{path}, oneByOne)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, out)
}

func TestRemoteModel_TranscribeSamples(t *testing.T) {
	samples := []float32{0, 0.25, -1}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "f32le", r.URL.Query().Get("format"))
		assert.Equal(t, "16000", r.URL.Query().Get("sample_rate"))

		body, _ := io.ReadAll(r.Body)
		if !assert.Len(t, body, 4*len(samples)) {
			return
		}
		for i, want := range samples {
			got := math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
			assert.Equal(t, want, got)
		}

		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	out, err := newRemote(t, server.URL).TranscribeSamples(context.Background(), [][]float32{samples}, oneByOne)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, out)
}

func TestRemoteModel_HTTPErrors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		retryable bool
		msg       string
	}{
		{"server error", http.StatusServiceUnavailable, `{"error":"cuda oom"}`, true, "cuda oom"},
		{"rate limited", http.StatusTooManyRequests, "slow down", true, "slow down"},
		{"bad request", http.StatusBadRequest, `{"error":"bad wav"}`, false, "bad wav"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newRemote(t, server.URL).TranscribeSamples(context.Background(), [][]float32{{0}}, oneByOne)

			var ie *InferenceError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tc.retryable, ie.Retryable)
			assert.Equal(t, tc.msg, ie.Message)
		})
	}
}

func TestRemoteModel_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newRemote(t, url).TranscribeSamples(context.Background(), [][]float32{{0}}, oneByOne)

	var ie *InferenceError
	require.True(t, errors.As(err, &ie))
	assert.True(t, ie.Retryable)
}

func TestRemoteFactory_EmptyURL(t *testing.T) {
	_, err := RemoteFactory("")(&Checkpoint{}, Device{})
	assert.Error(t, err)
}

func TestInferenceError(t *testing.T) {
	cause := errors.New("dial tcp")
	err := &InferenceError{Message: "request failed", Cause: cause, Retryable: true}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "nemo-remote: inference error: request failed", err.Error())

	err = &InferenceError{Status: 503, Message: "down"}
	assert.Equal(t, "nemo-remote: inference error [503]: down", err.Error())
}

package nemo

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Vovarama1992/asrserve/internal/ports"
)

const (
	remoteProvider       = "nemo-remote"
	remoteTranscribePath = "/v1/transcribe"

	contentTypeWAV = "audio/wav"
	contentTypeF32 = "application/octet-stream"

	// clients send 16 kHz audio; the checkpoint rate only describes the model
	inputSampleRate = 16000
)

// RemoteModel sends audio to an inference server that holds the restored weights.
type RemoteModel struct {
	baseURL string
	client  *http.Client
	target  string
	model   string
	device  Device
}

type RemoteOption func(*RemoteModel)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(m *RemoteModel) { m.client = c }
}

// RemoteFactory registers the inference server at baseURL as a Factory.
func RemoteFactory(baseURL string, opts ...RemoteOption) Factory {
	return func(ckpt *Checkpoint, dev Device) (ports.ASRModel, error) {
		if baseURL == "" {
			return nil, fmt.Errorf("inference url is empty")
		}
		m := &RemoteModel{
			baseURL: strings.TrimRight(baseURL, "/"),
			client:  &http.Client{},
			target:  ckpt.Target,
			model:   strings.TrimSuffix(filepath.Base(ckpt.Path), filepath.Ext(ckpt.Path)),
			device:  dev,
		}
		for _, opt := range opts {
			opt(m)
		}
		return m, nil
	}
}

func (m *RemoteModel) Name() string { return ClassName(m.target) }

type remoteResponse struct {
	Transcriptions []string `json:"transcriptions"`
	Text           *string  `json:"text"`
	Error          string   `json:"error"`
}

func (m *RemoteModel) TranscribeFiles(ctx context.Context, paths []string, p ports.InferParams) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		wav, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		txt, err := m.post(ctx, wav, contentTypeWAV, p)
		if err != nil {
			return nil, err
		}
		out = append(out, txt...)
	}
	return out, nil
}

// TranscribeSamples sends each item as raw little-endian float32.
func (m *RemoteModel) TranscribeSamples(ctx context.Context, batch [][]float32, p ports.InferParams) ([]string, error) {
	out := make([]string, 0, len(batch))
	for _, samples := range batch {
		buf := make([]byte, 4*len(samples))
		for i, f := range samples {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
		}
		txt, err := m.post(ctx, buf, contentTypeF32, p)
		if err != nil {
			return nil, err
		}
		out = append(out, txt...)
	}
	return out, nil
}

func (m *RemoteModel) post(ctx context.Context, body []byte, contentType string, p ports.InferParams) ([]string, error) {
	q := url.Values{}
	q.Set("model", m.model)
	q.Set("target", m.target)
	q.Set("device", m.device.String())
	q.Set("batch_size", strconv.Itoa(p.BatchSize))
	q.Set("num_workers", strconv.Itoa(p.NumWorkers))
	q.Set("return_hypotheses", strconv.FormatBool(p.ReturnHypotheses))
	if contentType == contentTypeF32 {
		q.Set("format", "f32le")
		q.Set("sample_rate", strconv.Itoa(inputSampleRate))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+remoteTranscribePath+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &InferenceError{Message: "request failed", Cause: err, Retryable: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}

	var parsed remoteResponse
	jsonErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error
		if jsonErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		retryable := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return nil, &InferenceError{Status: resp.StatusCode, Message: msg, Retryable: retryable}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("parse inference response: %w", jsonErr)
	}
	if parsed.Error != "" {
		return nil, &InferenceError{Status: resp.StatusCode, Message: parsed.Error}
	}

	log.Printf("[NEMO][OK] model=%s device=%s bytes=%d dur=%s", m.model, m.device, len(body), time.Since(start))

	if parsed.Transcriptions != nil {
		return parsed.Transcriptions, nil
	}
	if parsed.Text != nil {
		return []string{*parsed.Text}, nil
	}
	return nil, nil
}

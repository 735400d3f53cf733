package nemo

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	modelConfigName   = "model_config.yaml"
	defaultSampleRate = 16000
)

var ErrNoConfig = errors.New("checkpoint has no " + modelConfigName)

// Checkpoint is the metadata part of a .nemo archive. Weights stay on disk.
type Checkpoint struct {
	Path       string
	Target     string
	SampleRate int
	Config     map[string]any
}

// OpenCheckpoint reads model_config.yaml out of a .nemo archive (tar, optionally gzipped).
func OpenCheckpoint(p string) (*Checkpoint, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	r, err := archiveReader(f)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", p, err)
	}

	raw, err := findConfig(tar.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", p, err)
	}

	cfg := map[string]any{}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("checkpoint %s: parse %s: %w", p, modelConfigName, err)
	}

	target, _ := cfg["target"].(string)
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("checkpoint %s: %s has no target", p, modelConfigName)
	}

	return &Checkpoint{
		Path:       p,
		Target:     target,
		SampleRate: sampleRate(cfg),
		Config:     cfg,
	}, nil
}

func archiveReader(f io.Reader) (io.Reader, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

func findConfig(tr *tar.Reader) ([]byte, error) {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, ErrNoConfig
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if strings.TrimPrefix(path.Clean(hdr.Name), "./") == modelConfigName {
			return io.ReadAll(tr)
		}
	}
}

func sampleRate(cfg map[string]any) int {
	if pre, ok := cfg["preprocessor"].(map[string]any); ok {
		if sr, ok := asInt(pre["sample_rate"]); ok {
			return sr
		}
	}
	if sr, ok := asInt(cfg["sample_rate"]); ok {
		return sr
	}
	return defaultSampleRate
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n > 0
	case float64:
		return int(n), n > 0
	}
	return 0, false
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	VariantFile  = "file"
	VariantArray = "array"
)

type Config struct {
	Port string

	// deployment quota
	NumReplicas int
	NumCPUs     int
	NumGPUs     float64

	ModelPath    string
	Variant      string
	InferenceURL string
	TempDir      string

	// 0 = no timeout
	RequestTimeout time.Duration

	DatabaseURL  string
	AuthSecret   string
	AuthPassword string
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:         str(getenv, "PORT", "8080"),
		ModelPath:    str(getenv, "ASR_MODEL_PATH", "../models/stt_en_conformer_ctc_large.nemo"),
		Variant:      strings.ToLower(str(getenv, "ASR_VARIANT", VariantFile)),
		InferenceURL: strings.TrimRight(str(getenv, "ASR_INFERENCE_URL", "http://localhost:8000"), "/"),
		TempDir:      str(getenv, "ASR_TEMP_DIR", "."),
		DatabaseURL:  getenv("DATABASE_URL"),
		AuthSecret:   getenv("AUTH_SECRET"),
		AuthPassword: getenv("AUTH_PASSWORD"),
	}

	var err error
	if cfg.NumReplicas, err = integer(getenv, "NUM_REPLICAS", 1); err != nil {
		return nil, err
	}
	if cfg.NumCPUs, err = integer(getenv, "NUM_CPUS", 4); err != nil {
		return nil, err
	}
	if cfg.NumGPUs, err = float(getenv, "NUM_GPUS", 0); err != nil {
		return nil, err
	}

	if v := getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.NumReplicas < 1 {
		return fmt.Errorf("NUM_REPLICAS must be >= 1, got %d", c.NumReplicas)
	}
	if c.NumCPUs < 0 {
		return fmt.Errorf("NUM_CPUS must be >= 0, got %d", c.NumCPUs)
	}
	if c.NumGPUs < 0 {
		return fmt.Errorf("NUM_GPUS must be >= 0, got %g", c.NumGPUs)
	}
	if c.Variant != VariantFile && c.Variant != VariantArray {
		return fmt.Errorf("ASR_VARIANT must be %q or %q, got %q", VariantFile, VariantArray, c.Variant)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("ASR_MODEL_PATH is empty")
	}
	return nil
}

func str(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func integer(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func float(getenv func(string) string, key string, def float64) (float64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

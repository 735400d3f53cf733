// Command request posts a WAV file to a running asrserve instance and prints the reply.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Vovarama1992/asrserve/internal/domain/stations"
	"github.com/Vovarama1992/asrserve/internal/models"
)

func main() {
	file := flag.String("file", "audio.wav", "wav file to transcribe")
	url := flag.String("url", "http://localhost:8080/", "server endpoint")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	body, err := buildRequest(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Post(*url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "post:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Println(string(out))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func buildRequest(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return json.Marshal(models.TranscribeRequest{
		Data: []models.AudioItem{{
			Name: filepath.Base(path),
			Data: stations.DataURIPrefix + base64.StdEncoding.EncodeToString(raw),
		}},
	})
}

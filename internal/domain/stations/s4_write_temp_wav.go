package stations

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const tempNamePrefixLen = 15

type S4WriteTempWAV struct {
	dir string
}

func NewS4WriteTempWAV(dir string) *S4WriteTempWAV {
	if dir == "" {
		dir = "."
	}
	return &S4WriteTempWAV{dir: dir}
}

// Run пишет wav во временный файл. Удаляет вызывающий.
func (s *S4WriteTempWAV) Run(b64 string, wav []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("[S4] mkdir %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, TempWAVName(b64))
	if err := os.WriteFile(path, wav, 0644); err != nil {
		return "", fmt.Errorf("[S4] write wav: %w", err)
	}

	log.Printf("[S4][OK] path=%s bytes=%d", path, len(wav))
	return path, nil
}

var unsafeNameChars = strings.NewReplacer("/", "_", "+", "_", "=", "_")

// TempWAVName derives the file name from the first 15 base64 characters.
// The uuid suffix keeps identical payloads in flight from sharing a file.
func TempWAVName(b64 string) string {
	head := b64
	if len(head) > tempNamePrefixLen {
		head = head[:tempNamePrefixLen]
	}
	head = unsafeNameChars.Replace(head)
	if head == "" {
		head = "audio"
	}
	return head + "_" + uuid.NewString()[:8] + ".wav"
}

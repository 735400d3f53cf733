package stations

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Vovarama1992/asrserve/internal/models"
)

const DataURIPrefix = "data:audio/wav;base64,"

var (
	ErrEmptyPayload  = errors.New("request has no audio items")
	ErrMissingPrefix = errors.New("audio data is not a " + DataURIPrefix + " uri")
)

type S1StripDataURI struct{}

func NewS1StripDataURI() *S1StripDataURI { return &S1StripDataURI{} }

// Run берёт только data[0]. Возвращает base64 без префикса и декодированные байты.
func (s *S1StripDataURI) Run(req *models.TranscribeRequest) (string, []byte, error) {
	if req == nil || len(req.Data) == 0 {
		log.Printf("[S1][ERR] empty payload")
		return "", nil, ErrEmptyPayload
	}

	b64, ok := strings.CutPrefix(req.Data[0].Data, DataURIPrefix)
	if !ok {
		log.Printf("[S1][ERR] prefix missing name=%q head=%q", req.Data[0].Name, trim(req.Data[0].Data, 40))
		return "", nil, ErrMissingPrefix
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		log.Printf("[S1][ERR] base64 name=%q err=%v", req.Data[0].Name, err)
		return "", nil, fmt.Errorf("[S1] decode base64: %w", err)
	}

	log.Printf("[S1][OK] name=%q bytes=%d", req.Data[0].Name, len(raw))
	return b64, raw, nil
}

// IsDecodeError reports whether err came from the payload itself rather than inference.
func IsDecodeError(err error) bool {
	var corrupt base64.CorruptInputError
	return errors.Is(err, ErrEmptyPayload) ||
		errors.Is(err, ErrMissingPrefix) ||
		errors.As(err, &corrupt)
}

package models

// AudioItem is one entry of the "data" list. Data is a data URI:
// "data:audio/wav;base64,<payload>".
type AudioItem struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type TranscribeRequest struct {
	Data []AudioItem `json:"data"`
}

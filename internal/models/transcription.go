package models

import "time"

type Transcription struct {
	ID         int       `db:"id"`
	RequestID  string    `db:"request_id"`
	Name       string    `db:"name"`
	Variant    string    `db:"variant"` // "file" или "array"
	Text       string    `db:"text"`
	Samples    int       `db:"samples"`
	DurationMS int64     `db:"duration_ms"` // время инференса
	CreatedAt  time.Time `db:"created_at"`
}

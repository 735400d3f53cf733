package ports

import "context"

// AuthService guards the transcription history API.
type AuthService interface {
	// Login returns a token for the configured password.
	Login(ctx context.Context, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}

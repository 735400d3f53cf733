package domain

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/Vovarama1992/asrserve/internal/ports"
)

var ErrInvalidPassword = errors.New("invalid password")

type authService struct {
	password string
	secret   string
}

func NewAuthService(password, secret string) ports.AuthService {
	return &authService{
		password: password,
		secret:   secret,
	}
}

func (s *authService) Login(ctx context.Context, password string) (string, error) {
	if s.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return "", ErrInvalidPassword
	}
	return s.sign("allowed"), nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (bool, error) {
	valid := s.sign("allowed")
	return hmac.Equal([]byte(token), []byte(valid)), nil
}

func (s *authService) sign(msg string) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

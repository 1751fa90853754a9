package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-session-service/internal/models"
	"quiz-session-service/internal/repository"
)

// ErrTokenNotFound covers reset tokens that are unknown, already used or
// expired; callers cannot tell these apart.
var ErrTokenNotFound = errors.New("token not found")

// TokenService issues and redeems persisted single-use tokens (password
// reset and similar). Expired and used tokens are reclaimed by the sweep.
type TokenService struct {
	Tokens repository.TokenRepository
	TTL    time.Duration

	now func() time.Time
}

func NewTokenService(tokens repository.TokenRepository, ttl time.Duration) *TokenService {
	return &TokenService{Tokens: tokens, TTL: ttl, now: time.Now}
}

func (s *TokenService) Issue(ctx context.Context, userID string) (*models.ResetToken, error) {
	token, err := GenerateResetToken(userID, s.TTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.Tokens.Insert(ctx, token); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Redeem consumes the token exactly once.
func (s *TokenService) Redeem(ctx context.Context, token string) (*models.ResetToken, error) {
	t, err := s.Tokens.Consume(ctx, token, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return t, nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-session-service/internal/models"
	"quiz-session-service/internal/repository"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]models.ResetToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]models.ResetToken)}
}

func (f *fakeTokenRepo) Insert(ctx context.Context, token *models.ResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token.Token]; ok {
		return repository.ErrAlreadyExists
	}
	f.tokens[token.Token] = *token
	return nil
}

func (f *fakeTokenRepo) Consume(ctx context.Context, token string, now time.Time) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.Used || !now.Before(t.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	t.Used = true
	f.tokens[token] = t
	return &t, nil
}

func (f *fakeTokenRepo) DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for key, t := range f.tokens {
		if t.Used || t.ExpiresAt.Before(now) {
			delete(f.tokens, key)
			purged++
		}
	}
	return purged, nil
}

func TestTokenIssueAndRedeemOnce(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, 24*time.Hour)

	issued, err := svc.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued.Token == "" || issued.UserID != "user-1" {
		t.Errorf("unexpected token: %+v", issued)
	}
	if got := issued.ExpiresAt.Sub(issued.CreatedAt); got != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", got)
	}

	redeemed, err := svc.Redeem(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !redeemed.Used {
		t.Error("expected token marked used")
	}

	if _, err := svc.Redeem(context.Background(), issued.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound on second redeem, got %v", err)
	}
}

func TestTokenRedeemExpired(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, time.Hour)

	issued, err := svc.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.now = func() time.Time { return issued.ExpiresAt.Add(time.Second) }
	if _, err := svc.Redeem(context.Background(), issued.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound for expired token, got %v", err)
	}
}

func TestTokenRedeemUnknown(t *testing.T) {
	svc := NewTokenService(newFakeTokenRepo(), time.Hour)
	if _, err := svc.Redeem(context.Background(), "nope"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

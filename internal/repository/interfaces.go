package repository

import (
	"context"
	"errors"
	"time"

	"quiz-session-service/internal/models"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned by a versioned update whose filter matched
// no document, meaning a concurrent writer got there first.
var ErrVersionConflict = errors.New("version conflict")

// ErrAlreadyExists is returned by an insert that lost a get-or-create race.
var ErrAlreadyExists = errors.New("already exists")

// QuestionRepository is the question pool source.
type QuestionRepository interface {
	FindByCategory(ctx context.Context, categoryID string) ([]models.Question, error)
}

type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

type CategoryStatsRepository interface {
	Find(ctx context.Context, categoryID string) (*models.CategoryStatistics, error)
	Insert(ctx context.Context, stats *models.CategoryStatistics) error
	UpdateVersioned(ctx context.Context, stats *models.CategoryStatistics) error
}

type QuestionStatsRepository interface {
	Find(ctx context.Context, questionID string) (*models.QuestionStatistics, error)
	Insert(ctx context.Context, stats *models.QuestionStatistics) error
	UpdateVersioned(ctx context.Context, stats *models.QuestionStatistics) error
}

type UserStatsRepository interface {
	Find(ctx context.Context, userID string) (*models.UserStatistics, error)
	Insert(ctx context.Context, stats *models.UserStatistics) error
	UpdateVersioned(ctx context.Context, stats *models.UserStatistics) error
	// FindSolvingInactive returns users whose last solve is before the
	// cutoff, warned or not; the lifecycle service decides the stage.
	FindSolvingInactive(ctx context.Context, solvedBefore time.Time) ([]models.UserStatistics, error)
	FindLoginInactive(ctx context.Context, loginBefore time.Time) ([]models.UserStatistics, error)
	Delete(ctx context.Context, userID string) error
}

type TokenRepository interface {
	Insert(ctx context.Context, token *models.ResetToken) error
	// Consume marks the token used and returns it; a token that is absent,
	// already used or expired yields ErrNotFound.
	Consume(ctx context.Context, token string, now time.Time) (*models.ResetToken, error)
	// DeleteExpiredOrUsed removes every token that is used or past expiry.
	// Safe to run repeatedly.
	DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error)
}

// StatsCache is the read-side snapshot cache for statistics display.
// Reads through it may be stale relative to an in-flight update.
type StatsCache interface {
	SaveStruct(ctx context.Context, key string, model any, ttl time.Duration) error
	GetStruct(ctx context.Context, key string, model any) error
	Delete(ctx context.Context, key string) error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-session-service/internal/models"
	"quiz-session-service/internal/repository"
)

// maxUpdateRetries bounds the optimistic read-modify-write loop. Losing the
// version race this many times in a row means something is hammering one
// row and the caller should see the failure.
const maxUpdateRetries = 5

// StatsService maintains the per-category, per-question and per-user
// aggregates incrementally. Each update re-reads the row, applies the
// streaming formulas and persists with a version check; a conflict retries
// from a fresh read so no update is ever lost.
type StatsService struct {
	Categories repository.CategoryStatsRepository
	Questions  repository.QuestionStatsRepository
	Users      repository.UserStatsRepository
	Cache      repository.StatsCache

	CacheTTL time.Duration
}

func NewStatsService(
	categories repository.CategoryStatsRepository,
	questions repository.QuestionStatsRepository,
	users repository.UserStatsRepository,
	cache repository.StatsCache,
	cacheTTL time.Duration,
) *StatsService {
	return &StatsService{
		Categories: categories,
		Questions:  questions,
		Users:      users,
		Cache:      cache,
		CacheTTL:   cacheTTL,
	}
}

// OnQuizStarted counts a new session into the category aggregate, creating
// the row on first use.
func (s *StatsService) OnQuizStarted(ctx context.Context, categoryID, categoryName string) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		stats, err := s.Categories.Find(ctx, categoryID)
		if errors.Is(err, repository.ErrNotFound) {
			stats = &models.CategoryStatistics{CategoryID: categoryID, CategoryName: categoryName}
			stats.ApplyStarted()
			err = s.Categories.Insert(ctx, stats)
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert category statistics: %w", err)
			}
			s.dropCache(ctx, categoryCacheKey(categoryID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load category statistics: %w", err)
		}

		stats.ApplyStarted()
		err = s.Categories.UpdateVersioned(ctx, stats)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update category statistics: %w", err)
		}
		s.dropCache(ctx, categoryCacheKey(categoryID))
		return nil
	}
	return fmt.Errorf("category %s: %w", categoryID, ErrTooManyConflicts)
}

// OnQuizCompleted folds one finished session into the category aggregate.
// The row must exist: a completion always follows a counted start.
func (s *StatsService) OnQuizCompleted(ctx context.Context, categoryID string, correctAnswers, totalQuestions int) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		stats, err := s.Categories.Find(ctx, categoryID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("category %s: %w", categoryID, ErrCategoryStatsMissing)
		}
		if err != nil {
			return fmt.Errorf("load category statistics: %w", err)
		}

		stats.ApplyCompleted(correctAnswers, totalQuestions)
		err = s.Categories.UpdateVersioned(ctx, stats)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update category statistics: %w", err)
		}
		s.dropCache(ctx, categoryCacheKey(categoryID))
		return nil
	}
	return fmt.Errorf("category %s: %w", categoryID, ErrTooManyConflicts)
}

// OnQuestionUsed counts the question into a newly created session, creating
// the row lazily on first use.
func (s *StatsService) OnQuestionUsed(ctx context.Context, question models.Question) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		stats, err := s.Questions.Find(ctx, question.ID)
		if errors.Is(err, repository.ErrNotFound) {
			stats = &models.QuestionStatistics{
				QuestionID:   question.ID,
				QuestionText: question.Content,
				CategoryID:   question.CategoryID,
			}
			stats.ApplyUsed()
			err = s.Questions.Insert(ctx, stats)
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert question statistics: %w", err)
			}
			s.dropCache(ctx, questionCacheKey(question.ID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load question statistics: %w", err)
		}

		stats.ApplyUsed()
		err = s.Questions.UpdateVersioned(ctx, stats)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update question statistics: %w", err)
		}
		s.dropCache(ctx, questionCacheKey(question.ID))
		return nil
	}
	return fmt.Errorf("question %s: %w", question.ID, ErrTooManyConflicts)
}

// OnQuestionAnswered records the outcome of one answered question from a
// completed session.
func (s *StatsService) OnQuestionAnswered(ctx context.Context, questionID string, wasCorrect bool) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		stats, err := s.Questions.Find(ctx, questionID)
		if errors.Is(err, repository.ErrNotFound) {
			stats = &models.QuestionStatistics{QuestionID: questionID}
			stats.ApplyAnswered(wasCorrect)
			err = s.Questions.Insert(ctx, stats)
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert question statistics: %w", err)
			}
			s.dropCache(ctx, questionCacheKey(questionID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load question statistics: %w", err)
		}

		stats.ApplyAnswered(wasCorrect)
		err = s.Questions.UpdateVersioned(ctx, stats)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update question statistics: %w", err)
		}
		s.dropCache(ctx, questionCacheKey(questionID))
		return nil
	}
	return fmt.Errorf("question %s: %w", questionID, ErrTooManyConflicts)
}

// OnUserQuizCompleted folds a solve into the user's aggregate and clears
// the solving-reminder stage.
func (s *StatsService) OnUserQuizCompleted(ctx context.Context, userID string, correctAnswers, totalQuestions int, solvedAt time.Time) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		stats, err := s.Users.Find(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			stats = &models.UserStatistics{UserID: userID}
			stats.ApplyQuizCompleted(correctAnswers, totalQuestions, solvedAt)
			err = s.Users.Insert(ctx, stats)
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert user statistics: %w", err)
			}
			s.dropCache(ctx, userCacheKey(userID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load user statistics: %w", err)
		}

		stats.ApplyQuizCompleted(correctAnswers, totalQuestions, solvedAt)
		err = s.Users.UpdateVersioned(ctx, stats)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update user statistics: %w", err)
		}
		s.dropCache(ctx, userCacheKey(userID))
		return nil
	}
	return fmt.Errorf("user %s: %w", userID, ErrTooManyConflicts)
}

// OnUserLogin stamps the login and clears the deletion-warning stage.
func (s *StatsService) OnUserLogin(ctx context.Context, userID string, at time.Time) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		stats, err := s.Users.Find(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			stats = &models.UserStatistics{UserID: userID}
			stats.ApplyLogin(at)
			err = s.Users.Insert(ctx, stats)
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert user statistics: %w", err)
			}
			s.dropCache(ctx, userCacheKey(userID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load user statistics: %w", err)
		}

		stats.ApplyLogin(at)
		err = s.Users.UpdateVersioned(ctx, stats)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update user statistics: %w", err)
		}
		s.dropCache(ctx, userCacheKey(userID))
		return nil
	}
	return fmt.Errorf("user %s: %w", userID, ErrTooManyConflicts)
}

// CategorySnapshot serves display reads, cache first. Snapshots may be
// stale relative to an in-flight update.
func (s *StatsService) CategorySnapshot(ctx context.Context, categoryID string) (*models.CategoryStatistics, error) {
	key := categoryCacheKey(categoryID)
	if s.Cache != nil {
		var cached models.CategoryStatistics
		if err := s.Cache.GetStruct(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	stats, err := s.Categories.Find(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, key, stats)
	return stats, nil
}

func (s *StatsService) QuestionSnapshot(ctx context.Context, questionID string) (*models.QuestionStatistics, error) {
	key := questionCacheKey(questionID)
	if s.Cache != nil {
		var cached models.QuestionStatistics
		if err := s.Cache.GetStruct(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	stats, err := s.Questions.Find(ctx, questionID)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, key, stats)
	return stats, nil
}

func (s *StatsService) UserSnapshot(ctx context.Context, userID string) (*models.UserStatistics, error) {
	key := userCacheKey(userID)
	if s.Cache != nil {
		var cached models.UserStatistics
		if err := s.Cache.GetStruct(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	stats, err := s.Users.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, key, stats)
	return stats, nil
}

func (s *StatsService) dropCache(ctx context.Context, key string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, key); err != nil {
		log.Printf("drop stats cache %s: %v", key, err)
	}
}

func (s *StatsService) fillCache(ctx context.Context, key string, model any) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.SaveStruct(ctx, key, model, s.CacheTTL); err != nil {
		log.Printf("fill stats cache %s: %v", key, err)
	}
}

func categoryCacheKey(categoryID string) string { return "stats:category:" + categoryID }
func questionCacheKey(questionID string) string { return "stats:question:" + questionID }
func userCacheKey(userID string) string         { return "stats:user:" + userID }

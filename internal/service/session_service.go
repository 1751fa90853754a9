package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	mrand "math/rand"
	"time"

	"quiz-session-service/internal/event"
	"quiz-session-service/internal/models"
	"quiz-session-service/internal/repository"
	"quiz-session-service/internal/store"
)

const sessionTokenBytes = 32

// SessionService drives a quiz session through its whole life: materialize
// from the question pool, hold under a single-use token with a TTL, and
// evaluate at most once.
type SessionService struct {
	Store        *store.SessionStore
	QuestionRepo repository.QuestionRepository
	CategoryRepo repository.CategoryRepository
	Stats        *StatsService
	Publisher    event.Publisher

	SessionTTL time.Duration

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

func NewSessionService(
	sessionStore *store.SessionStore,
	questionRepo repository.QuestionRepository,
	categoryRepo repository.CategoryRepository,
	stats *StatsService,
	publisher event.Publisher,
	sessionTTL time.Duration,
) *SessionService {
	return &SessionService{
		Store:        sessionStore,
		QuestionRepo: questionRepo,
		CategoryRepo: categoryRepo,
		Stats:        stats,
		Publisher:    publisher,
		SessionTTL:   sessionTTL,
		now:          time.Now,
		shuffle:      mrand.Shuffle,
	}
}

// CreateSession samples questionCount questions uniformly without
// replacement from the category pool and stores the session under a fresh
// token valid for the configured TTL.
func (s *SessionService) CreateSession(ctx context.Context, categoryID string, questionCount int) (*models.QuizSession, error) {
	pool, err := s.QuestionRepo.FindByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("fetch question pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestionsFound
	}
	if len(pool) < questionCount {
		return nil, ErrNotEnoughQuestions
	}

	category, err := s.CategoryRepo.FindByID(ctx, categoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}

	// Uniform permutation, first questionCount entries. The slice is a
	// frozen copy, detached from later pool mutation.
	sampled := make([]models.Question, len(pool))
	copy(sampled, pool)
	s.shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	sampled = sampled[:questionCount]

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.now()
	session := &models.QuizSession{
		Token:        token,
		CategoryID:   categoryID,
		CategoryName: category.Name,
		Questions:    sampled,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.SessionTTL),
	}
	s.Store.Put(session)

	if err := s.Stats.OnQuizStarted(ctx, categoryID, category.Name); err != nil {
		// Keep started counts and stored sessions in step: a session whose
		// start was never counted must not survive to completion.
		s.Store.Remove(token)
		return nil, fmt.Errorf("record quiz start: %w", err)
	}
	for _, q := range session.Questions {
		if err := s.Stats.OnQuestionUsed(ctx, q); err != nil {
			log.Printf("question usage stats for %s: %v", q.ID, err)
		}
	}

	s.Publisher.Publish(event.SessionStarted, event.H{
		"token":       session.Token,
		"category_id": session.CategoryID,
		"questions":   len(session.Questions),
		"expires_at":  session.ExpiresAt,
	})

	return session, nil
}

// LoadByToken returns the stored session. Unknown, consumed and expired
// tokens all come back as ErrSessionNotFound.
func (s *SessionService) LoadByToken(token string) (*models.QuizSession, error) {
	session, ok := s.Store.Get(token)
	if !ok || session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Evaluate consumes the session and scores the submitted answers against
// it. The read-and-remove is atomic: under duplicate submissions exactly
// one caller scores, the rest get ErrSessionNotFound. A question with no
// entry in answers counts as answered wrong, never as a validation error.
func (s *SessionService) Evaluate(ctx context.Context, token string, answers map[string]string, userID string) (*models.QuizResult, error) {
	session, ok := s.Store.Take(token)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}

	// Single counting pass over the session's questions.
	type outcome struct {
		questionID string
		correct    bool
	}
	outcomes := make([]outcome, 0, len(session.Questions))
	correctAnswers := 0
	for _, q := range session.Questions {
		submitted, answered := answers[q.ID]
		wasCorrect := answered && submitted == q.CorrectAnswer
		if wasCorrect {
			correctAnswers++
		}
		outcomes = append(outcomes, outcome{questionID: q.ID, correct: wasCorrect})
	}

	totalQuestions := len(session.Questions)
	scorePercent := 0.0
	if totalQuestions > 0 {
		scorePercent = float64(correctAnswers) * 100 / float64(totalQuestions)
	}

	if err := s.Stats.OnQuizCompleted(ctx, session.CategoryID, correctAnswers, totalQuestions); err != nil {
		return nil, fmt.Errorf("record quiz completion: %w", err)
	}
	for _, o := range outcomes {
		if err := s.Stats.OnQuestionAnswered(ctx, o.questionID, o.correct); err != nil {
			log.Printf("question answer stats for %s: %v", o.questionID, err)
		}
	}
	if userID != "" {
		if err := s.Stats.OnUserQuizCompleted(ctx, userID, correctAnswers, totalQuestions, s.now()); err != nil {
			log.Printf("user stats for %s: %v", userID, err)
		}
	}

	result := &models.QuizResult{
		Token:          token,
		CorrectAnswers: correctAnswers,
		TotalQuestions: totalQuestions,
		ScorePercent:   scorePercent,
	}

	s.Publisher.Publish(event.SessionCompleted, event.H{
		"token":           result.Token,
		"category_id":     session.CategoryID,
		"correct_answers": result.CorrectAnswers,
		"total_questions": result.TotalQuestions,
		"score_percent":   result.ScorePercent,
	})

	return result, nil
}

// generateToken returns an unguessable session token.
func generateToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateResetToken builds a persisted single-use token for the given
// user, expiring after ttl.
func GenerateResetToken(userID string, ttl time.Duration, now time.Time) (*models.ResetToken, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	return &models.ResetToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

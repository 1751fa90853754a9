package service

import (
	"context"
	"sync"
	"time"

	"quiz-session-service/internal/models"
	"quiz-session-service/internal/repository"
)

// In-memory repository fakes with the same version-check semantics as the
// Mongo implementations.

type fakeQuestionRepo struct {
	pool map[string][]models.Question
	err  error
}

func (f *fakeQuestionRepo) FindByCategory(ctx context.Context, categoryID string) ([]models.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pool[categoryID], nil
}

type fakeCategoryRepo struct {
	categories map[string]models.Category
}

func (f *fakeCategoryRepo) FindByID(ctx context.Context, id string) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type fakeCategoryStatsRepo struct {
	mu sync.Mutex
	// conflicts makes the next n versioned updates fail, to exercise the
	// optimistic retry loop.
	conflicts int
	rows      map[string]models.CategoryStatistics
}

func newFakeCategoryStatsRepo() *fakeCategoryStatsRepo {
	return &fakeCategoryStatsRepo{rows: make(map[string]models.CategoryStatistics)}
}

func (f *fakeCategoryStatsRepo) Find(ctx context.Context, categoryID string) (*models.CategoryStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[categoryID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (f *fakeCategoryStatsRepo) Insert(ctx context.Context, stats *models.CategoryStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[stats.CategoryID]; ok {
		return repository.ErrAlreadyExists
	}
	f.rows[stats.CategoryID] = *stats
	return nil
}

func (f *fakeCategoryStatsRepo) UpdateVersioned(ctx context.Context, stats *models.CategoryStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		return repository.ErrVersionConflict
	}
	current, ok := f.rows[stats.CategoryID]
	if !ok || current.Version != stats.Version {
		return repository.ErrVersionConflict
	}
	next := *stats
	next.Version++
	f.rows[stats.CategoryID] = next
	return nil
}

type fakeQuestionStatsRepo struct {
	mu   sync.Mutex
	rows map[string]models.QuestionStatistics
}

func newFakeQuestionStatsRepo() *fakeQuestionStatsRepo {
	return &fakeQuestionStatsRepo{rows: make(map[string]models.QuestionStatistics)}
}

func (f *fakeQuestionStatsRepo) Find(ctx context.Context, questionID string) (*models.QuestionStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[questionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (f *fakeQuestionStatsRepo) Insert(ctx context.Context, stats *models.QuestionStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[stats.QuestionID]; ok {
		return repository.ErrAlreadyExists
	}
	f.rows[stats.QuestionID] = *stats
	return nil
}

func (f *fakeQuestionStatsRepo) UpdateVersioned(ctx context.Context, stats *models.QuestionStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.rows[stats.QuestionID]
	if !ok || current.Version != stats.Version {
		return repository.ErrVersionConflict
	}
	next := *stats
	next.Version++
	f.rows[stats.QuestionID] = next
	return nil
}

type fakeUserStatsRepo struct {
	mu        sync.Mutex
	rows      map[string]models.UserStatistics
	updateErr error
	failUser  string
}

func newFakeUserStatsRepo() *fakeUserStatsRepo {
	return &fakeUserStatsRepo{rows: make(map[string]models.UserStatistics)}
}

func (f *fakeUserStatsRepo) put(u models.UserStatistics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[u.UserID] = u
}

func (f *fakeUserStatsRepo) Find(ctx context.Context, userID string) (*models.UserStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (f *fakeUserStatsRepo) Insert(ctx context.Context, stats *models.UserStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[stats.UserID]; ok {
		return repository.ErrAlreadyExists
	}
	f.rows[stats.UserID] = *stats
	return nil
}

func (f *fakeUserStatsRepo) UpdateVersioned(ctx context.Context, stats *models.UserStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil && stats.UserID == f.failUser {
		return f.updateErr
	}
	current, ok := f.rows[stats.UserID]
	if !ok || current.Version != stats.Version {
		return repository.ErrVersionConflict
	}
	next := *stats
	next.Version++
	f.rows[stats.UserID] = next
	return nil
}

func (f *fakeUserStatsRepo) FindSolvingInactive(ctx context.Context, solvedBefore time.Time) ([]models.UserStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserStatistics
	for _, u := range f.rows {
		if u.LastSolvedAt.Before(solvedBefore) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStatsRepo) FindLoginInactive(ctx context.Context, loginBefore time.Time) ([]models.UserStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserStatistics
	for _, u := range f.rows {
		if u.LastLoginAt.Before(loginBefore) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStatsRepo) Delete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, userID)
	return nil
}

type publishedEvent struct {
	eventType string
	payload   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(eventType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{eventType: eventType, payload: payload})
	return nil
}

func (f *fakePublisher) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

func sampleQuestion(id, categoryID string) models.Question {
	return models.Question{
		ID:            id,
		Content:       "content of " + id,
		CorrectAnswer: "a",
		CategoryID:    categoryID,
	}
}

type userOpts struct {
	lastSolvedAt    time.Time
	lastLoginAt     time.Time
	solvingWarned   bool
	solvingWarnedAt time.Time
	deletionWarned  bool
	warnedAt        time.Time
}

func testUser(id string, o userOpts) models.UserStatistics {
	return models.UserStatistics{
		UserID:                   id,
		LastSolvedAt:             o.lastSolvedAt,
		LastLoginAt:              o.lastLoginAt,
		LastSolvingWarningSent:   o.solvingWarned,
		LastSolvingWarningSentAt: o.solvingWarnedAt,
		DeletionWarningSent:      o.deletionWarned,
		DeletionWarningSentAt:    o.warnedAt,
	}
}

func newTestStatsService(categories *fakeCategoryStatsRepo, questions *fakeQuestionStatsRepo, users *fakeUserStatsRepo) *StatsService {
	return NewStatsService(categories, questions, users, nil, time.Minute)
}

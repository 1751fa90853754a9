package service

import "errors"

var (
	// Create failures.
	ErrNoQuestionsFound   = errors.New("no questions found for category")
	ErrNotEnoughQuestions = errors.New("not enough questions in category pool")
	ErrCategoryNotFound   = errors.New("category not found")

	// A token that never existed, was already evaluated or expired is the
	// same error on purpose: a consumed token must not be distinguishable
	// from an unknown one.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCategoryStatsMissing means a completion arrived for a category
	// that was never started. That is a prior bug, not a normal miss.
	ErrCategoryStatsMissing = errors.New("category statistics missing for started category")

	// ErrTooManyConflicts means an aggregate update kept losing the
	// optimistic version race.
	ErrTooManyConflicts = errors.New("too many concurrent statistics updates")
)

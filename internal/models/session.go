package models

import "time"

// QuizSession is an in-flight quiz instance. It lives only in the session
// store, is addressed solely by its token and is never persisted: it is
// consumed by evaluation or removed by the expiry sweep.
type QuizSession struct {
	Token        string     `json:"token"`
	CategoryID   string     `json:"category_id"`
	CategoryName string     `json:"category_name"`
	Questions    []Question `json:"questions"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

func (s *QuizSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// QuizResult is what a submission evaluates to.
type QuizResult struct {
	Token          string  `json:"token"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	ScorePercent   float64 `json:"score_percent"`
}

package models

import "time"

// The statistics rows are maintained incrementally: every mutation below is
// a read-modify-write applied to the current row and persisted with a
// version check. Applying the same event twice corrupts the running
// averages, so callers must go through the aggregator service.

type CategoryStatistics struct {
	CategoryID             string  `bson:"_id" json:"category_id"`
	CategoryName           string  `bson:"category_name" json:"category_name"`
	TotalStarted           int64   `bson:"total_started" json:"total_started"`
	TotalCompleted         int64   `bson:"total_completed" json:"total_completed"`
	TotalQuestionsAnswered int64   `bson:"total_questions_answered" json:"total_questions_answered"`
	TotalCorrectAnswers    int64   `bson:"total_correct_answers" json:"total_correct_answers"`
	AverageScore           float64 `bson:"average_score" json:"average_score"`
	AverageAccuracy        float64 `bson:"average_accuracy" json:"average_accuracy"`
	CompletionRate         float64 `bson:"completion_rate" json:"completion_rate"`
	Version                int64   `bson:"version" json:"-"`
}

func (c *CategoryStatistics) ApplyStarted() {
	c.TotalStarted++
	c.recomputeCompletionRate()
}

func (c *CategoryStatistics) ApplyCompleted(correctAnswers, totalQuestions int) {
	c.TotalCompleted++
	completed := float64(c.TotalCompleted)

	var runScore float64
	if totalQuestions > 0 {
		runScore = float64(correctAnswers) * 100 / float64(totalQuestions)
	}
	c.AverageScore = (c.AverageScore*(completed-1) + runScore) / completed
	c.AverageAccuracy = (c.AverageAccuracy*(completed-1) + runScore) / completed

	c.TotalQuestionsAnswered += int64(totalQuestions)
	c.TotalCorrectAnswers += int64(correctAnswers)
	c.recomputeCompletionRate()
}

func (c *CategoryStatistics) recomputeCompletionRate() {
	if c.TotalStarted == 0 {
		c.CompletionRate = 0
		return
	}
	c.CompletionRate = float64(c.TotalCompleted) * 100 / float64(c.TotalStarted)
}

type QuestionStatistics struct {
	QuestionID     string  `bson:"_id" json:"question_id"`
	QuestionText   string  `bson:"question_text" json:"question_text"`
	CategoryID     string  `bson:"category_id" json:"category_id"`
	Attempts       int64   `bson:"attempts" json:"attempts"`
	CorrectAnswers int64   `bson:"correct_answers" json:"correct_answers"`
	WrongAnswers   int64   `bson:"wrong_answers" json:"wrong_answers"`
	Accuracy       float64 `bson:"accuracy" json:"accuracy"`
	CompletionRate float64 `bson:"completion_rate" json:"completion_rate"`
	Version        int64   `bson:"version" json:"-"`
}

// ApplyUsed counts the question into a newly created session. Attempts grow
// on session start, not on completion.
func (q *QuestionStatistics) ApplyUsed() {
	q.Attempts++
	q.recompute()
}

func (q *QuestionStatistics) ApplyAnswered(wasCorrect bool) {
	if wasCorrect {
		q.CorrectAnswers++
	} else {
		q.WrongAnswers++
	}
	q.recompute()
}

func (q *QuestionStatistics) recompute() {
	if q.Attempts == 0 {
		q.Accuracy = 0
		q.CompletionRate = 0
		return
	}
	q.Accuracy = float64(q.CorrectAnswers) * 100 / float64(q.Attempts)
	q.CompletionRate = float64(q.CorrectAnswers+q.WrongAnswers) * 100 / float64(q.Attempts)
}

type UserStatistics struct {
	UserID              string    `bson:"_id" json:"user_id"`
	TotalQuizzesSolved  int64     `bson:"total_quizzes_solved" json:"total_quizzes_solved"`
	TotalCorrectAnswers int64     `bson:"total_correct_answers" json:"total_correct_answers"`
	MaxPossibleScore    int64     `bson:"max_possible_score" json:"max_possible_score"`
	AverageScore        float64   `bson:"average_score" json:"average_score"`
	LastSolvedAt        time.Time `bson:"last_solved_at" json:"last_solved_at"`
	LastLoginAt         time.Time `bson:"last_login_at" json:"last_login_at"`

	// Inactivity warning stages. Each boolean guards a once-per-stage
	// notification; the timestamps drive resend and grace periods.
	LastSolvingWarningSent   bool      `bson:"last_solving_warning_sent" json:"last_solving_warning_sent"`
	LastSolvingWarningSentAt time.Time `bson:"last_solving_warning_sent_at" json:"last_solving_warning_sent_at"`
	DeletionWarningSent      bool      `bson:"deletion_warning_sent" json:"deletion_warning_sent"`
	DeletionWarningSentAt    time.Time `bson:"deletion_warning_sent_at" json:"deletion_warning_sent_at"`

	Version int64 `bson:"version" json:"-"`
}

// ApplyQuizCompleted records a solve. A fresh solve also leaves the solving
// reminder stage, so the warning flag resets here.
func (u *UserStatistics) ApplyQuizCompleted(correctAnswers, totalQuestions int, solvedAt time.Time) {
	u.TotalQuizzesSolved++
	u.TotalCorrectAnswers += int64(correctAnswers)
	u.MaxPossibleScore += int64(totalQuestions)
	if u.MaxPossibleScore > 0 {
		u.AverageScore = float64(u.TotalCorrectAnswers) * 100 / float64(u.MaxPossibleScore)
	}
	u.LastSolvedAt = solvedAt
	u.LastSolvingWarningSent = false
}

// ApplyLogin stamps the login and leaves the deletion-warning stage.
func (u *UserStatistics) ApplyLogin(at time.Time) {
	u.LastLoginAt = at
	u.DeletionWarningSent = false
}

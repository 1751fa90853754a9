package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quiz-session-service/internal/models"
	"quiz-session-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// questionView is a Question without the correct answer; sessions handed to
// clients must not reveal the key.
type questionView struct {
	ID      string          `json:"id"`
	Content string          `json:"content"`
	Options []models.Option `json:"options"`
}

type sessionView struct {
	Token        string         `json:"token"`
	CategoryID   string         `json:"category_id"`
	CategoryName string         `json:"category_name"`
	Questions    []questionView `json:"questions"`
	ExpiresAt    string         `json:"expires_at"`
}

func newSessionView(s *models.QuizSession) sessionView {
	questions := make([]questionView, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, questionView{
			ID:      q.ID,
			Content: q.Content,
			Options: q.Options,
		})
	}
	return sessionView{
		Token:        s.Token,
		CategoryID:   s.CategoryID,
		CategoryName: s.CategoryName,
		Questions:    questions,
		ExpiresAt:    s.ExpiresAt.Format(time.RFC3339),
	}
}

// CreateSession materializes a new quiz session from the category pool.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		CategoryID    string `json:"category_id" binding:"required"`
		QuestionCount int    `json:"question_count" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	session, err := h.Service.CreateSession(context.Background(), req.CategoryID, req.QuestionCount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoQuestionsFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No questions found for category", "code": "NO_QUESTIONS_FOUND"})
		case errors.Is(err, service.ErrCategoryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found", "code": "CATEGORY_NOT_FOUND"})
		case errors.Is(err, service.ErrNotEnoughQuestions):
			c.JSON(http.StatusConflict, gin.H{"error": "Not enough questions in category pool", "code": "NOT_ENOUGH_QUESTIONS"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, newSessionView(session))
}

// GetSession returns the stored session for a token.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.Service.LoadByToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found", "code": "SESSION_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, newSessionView(session))
}

// SubmitSession evaluates the submitted answers against the session and
// consumes the token. A second submission for the same token observes 404.
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetHeader("X-User-ID")
	result, err := h.Service.Evaluate(context.Background(), c.Param("token"), req.Answers, userID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found", "code": "SESSION_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quiz-session-service/internal/repository"
	"quiz-session-service/internal/service"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	Service *service.StatsService
}

func NewStatsHandler(s *service.StatsService) *StatsHandler {
	return &StatsHandler{Service: s}
}

func (h *StatsHandler) GetCategoryStats(c *gin.Context) {
	stats, err := h.Service.CategorySnapshot(context.Background(), c.Param("categoryId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category statistics not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetQuestionStats(c *gin.Context) {
	stats, err := h.Service.QuestionSnapshot(context.Background(), c.Param("questionId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question statistics not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetUserStats(c *gin.Context) {
	stats, err := h.Service.UserSnapshot(context.Background(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User statistics not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecordLogin lets the auth layer report a login, which resets the
// deletion-warning stage for that user.
func (h *StatsHandler) RecordLogin(c *gin.Context) {
	userID := c.Param("userId")
	if err := h.Service.OnUserLogin(context.Background(), userID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"quiz-session-service/internal/service"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	Service *service.TokenService
}

func NewTokenHandler(s *service.TokenService) *TokenHandler {
	return &TokenHandler{Service: s}
}

// IssueToken creates a single-use reset token for a user.
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	token, err := h.Service.Issue(context.Background(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, token)
}

// RedeemToken consumes a reset token; a used, expired or unknown token is a
// plain 404.
func (h *TokenHandler) RedeemToken(c *gin.Context) {
	token, err := h.Service.Redeem(context.Background(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found", "code": "TOKEN_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, token)
}

package main

import (
	"context"
	"log"
	"time"

	"quiz-session-service/internal/config"
	"quiz-session-service/internal/db"
	"quiz-session-service/internal/event"
	"quiz-session-service/internal/handlers"
	"quiz-session-service/internal/repository"
	"quiz-session-service/internal/scheduler"
	"quiz-session-service/internal/service"
	"quiz-session-service/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db.InitMongo(cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	db.InitRedis(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, notification events will not be published")
	}

	database := db.Client.Database(cfg.MongoDB.Database)

	// Repositories
	questionRepo := repository.NewQuestionRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)
	categoryStatsRepo := repository.NewCategoryStatsRepository(database)
	questionStatsRepo := repository.NewQuestionStatsRepository(database)
	userStatsRepo := repository.NewUserStatsRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	statsCache := repository.NewRedisStatsCache(db.RedisClient)

	// Services
	statsService := service.NewStatsService(
		categoryStatsRepo,
		questionStatsRepo,
		userStatsRepo,
		statsCache,
		cfg.Quiz.StatsCacheTTL,
	)
	sessionStore := store.NewSessionStore()
	sessionService := service.NewSessionService(
		sessionStore,
		questionRepo,
		categoryRepo,
		statsService,
		publisher,
		cfg.Quiz.SessionTTL,
	)
	tokenService := service.NewTokenService(tokenRepo, cfg.Quiz.ResetTokenTTL)
	lifecycleService := service.NewUserLifecycleService(
		userStatsRepo,
		publisher,
		cfg.Sweep.SolvingThreshold,
		cfg.Sweep.SolvingResendAfter,
		cfg.Sweep.LoginThreshold,
		cfg.Sweep.DeletionGrace,
	)

	// Background sweeps
	sweeper := scheduler.New(
		sessionStore,
		tokenRepo,
		lifecycleService,
		publisher,
		cfg.Sweep.ExpiryInterval,
		cfg.Sweep.InactivityInterval,
	)
	sweeper.Start(context.Background())

	// Handlers
	sessionHandler := handlers.NewSessionHandler(sessionService)
	statsHandler := handlers.NewStatsHandler(statsService)
	tokenHandler := handlers.NewTokenHandler(tokenService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	protectedSession := r.Group("/protected/quizz/session")
	protectedSession.Use(requireUserID())
	{
		protectedSession.POST("/", sessionHandler.CreateSession)
		protectedSession.GET("/:token", sessionHandler.GetSession)
		protectedSession.POST("/:token/submit", sessionHandler.SubmitSession)
	}

	publicStats := r.Group("/public/quizz/stats")
	{
		publicStats.GET("/category/:categoryId", statsHandler.GetCategoryStats)
		publicStats.GET("/question/:questionId", statsHandler.GetQuestionStats)
		publicStats.GET("/user/:userId", statsHandler.GetUserStats)
	}

	protectedUser := r.Group("/protected/quizz/user")
	protectedUser.Use(requireUserID())
	{
		protectedUser.POST("/:userId/login", statsHandler.RecordLogin)
	}

	protectedToken := r.Group("/protected/quizz/token")
	protectedToken.Use(requireUserID())
	{
		protectedToken.POST("/", tokenHandler.IssueToken)
		protectedToken.POST("/:token/redeem", tokenHandler.RedeemToken)
	}

	r.Run(cfg.Server.Host + ":" + cfg.Server.Port)
}

// requireUserID expects the upstream gateway to have set X-User-ID.
func requireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.JSON(401, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

package repository

import (
	"context"
	"errors"
	"time"

	"quiz-session-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// The statistics repositories persist read-modify-write aggregates. Every
// update carries the version the reader saw; an update that matches no
// document lost a race and must be retried from a fresh read.

type MongoCategoryStatsRepository struct {
	Col *mongo.Collection
}

func NewCategoryStatsRepository(db *mongo.Database) *MongoCategoryStatsRepository {
	return &MongoCategoryStatsRepository{Col: db.Collection("category_statistics")}
}

func (r *MongoCategoryStatsRepository) Find(ctx context.Context, categoryID string) (*models.CategoryStatistics, error) {
	var stats models.CategoryStatistics
	err := r.Col.FindOne(ctx, bson.M{"_id": categoryID}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *MongoCategoryStatsRepository) Insert(ctx context.Context, stats *models.CategoryStatistics) error {
	_, err := r.Col.InsertOne(ctx, stats)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *MongoCategoryStatsRepository) UpdateVersioned(ctx context.Context, stats *models.CategoryStatistics) error {
	return updateVersioned(ctx, r.Col, stats.CategoryID, stats.Version, bson.M{
		"category_name":            stats.CategoryName,
		"total_started":            stats.TotalStarted,
		"total_completed":          stats.TotalCompleted,
		"total_questions_answered": stats.TotalQuestionsAnswered,
		"total_correct_answers":    stats.TotalCorrectAnswers,
		"average_score":            stats.AverageScore,
		"average_accuracy":         stats.AverageAccuracy,
		"completion_rate":          stats.CompletionRate,
	})
}

type MongoQuestionStatsRepository struct {
	Col *mongo.Collection
}

func NewQuestionStatsRepository(db *mongo.Database) *MongoQuestionStatsRepository {
	return &MongoQuestionStatsRepository{Col: db.Collection("question_statistics")}
}

func (r *MongoQuestionStatsRepository) Find(ctx context.Context, questionID string) (*models.QuestionStatistics, error) {
	var stats models.QuestionStatistics
	err := r.Col.FindOne(ctx, bson.M{"_id": questionID}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *MongoQuestionStatsRepository) Insert(ctx context.Context, stats *models.QuestionStatistics) error {
	_, err := r.Col.InsertOne(ctx, stats)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *MongoQuestionStatsRepository) UpdateVersioned(ctx context.Context, stats *models.QuestionStatistics) error {
	return updateVersioned(ctx, r.Col, stats.QuestionID, stats.Version, bson.M{
		"question_text":   stats.QuestionText,
		"category_id":     stats.CategoryID,
		"attempts":        stats.Attempts,
		"correct_answers": stats.CorrectAnswers,
		"wrong_answers":   stats.WrongAnswers,
		"accuracy":        stats.Accuracy,
		"completion_rate": stats.CompletionRate,
	})
}

type MongoUserStatsRepository struct {
	Col *mongo.Collection
}

func NewUserStatsRepository(db *mongo.Database) *MongoUserStatsRepository {
	return &MongoUserStatsRepository{Col: db.Collection("user_statistics")}
}

func (r *MongoUserStatsRepository) Find(ctx context.Context, userID string) (*models.UserStatistics, error) {
	var stats models.UserStatistics
	err := r.Col.FindOne(ctx, bson.M{"_id": userID}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *MongoUserStatsRepository) Insert(ctx context.Context, stats *models.UserStatistics) error {
	_, err := r.Col.InsertOne(ctx, stats)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *MongoUserStatsRepository) UpdateVersioned(ctx context.Context, stats *models.UserStatistics) error {
	return updateVersioned(ctx, r.Col, stats.UserID, stats.Version, bson.M{
		"total_quizzes_solved":         stats.TotalQuizzesSolved,
		"total_correct_answers":        stats.TotalCorrectAnswers,
		"max_possible_score":           stats.MaxPossibleScore,
		"average_score":                stats.AverageScore,
		"last_solved_at":               stats.LastSolvedAt,
		"last_login_at":                stats.LastLoginAt,
		"last_solving_warning_sent":    stats.LastSolvingWarningSent,
		"last_solving_warning_sent_at": stats.LastSolvingWarningSentAt,
		"deletion_warning_sent":        stats.DeletionWarningSent,
		"deletion_warning_sent_at":     stats.DeletionWarningSentAt,
	})
}

func (r *MongoUserStatsRepository) FindSolvingInactive(ctx context.Context, solvedBefore time.Time) ([]models.UserStatistics, error) {
	return r.findAll(ctx, bson.M{"last_solved_at": bson.M{"$lt": solvedBefore}})
}

func (r *MongoUserStatsRepository) FindLoginInactive(ctx context.Context, loginBefore time.Time) ([]models.UserStatistics, error) {
	return r.findAll(ctx, bson.M{"last_login_at": bson.M{"$lt": loginBefore}})
}

func (r *MongoUserStatsRepository) Delete(ctx context.Context, userID string) error {
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserStatsRepository) findAll(ctx context.Context, filter bson.M) ([]models.UserStatistics, error) {
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.UserStatistics
	for cur.Next(ctx) {
		var u models.UserStatistics
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, cur.Err()
}

func updateVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, fields bson.M) error {
	fields["version"] = version + 1
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{"$set": fields},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

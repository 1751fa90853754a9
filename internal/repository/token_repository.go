package repository

import (
	"context"
	"errors"
	"time"

	"quiz-session-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoTokenRepository struct {
	Col *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *MongoTokenRepository {
	return &MongoTokenRepository{Col: db.Collection("reset_tokens")}
}

func (r *MongoTokenRepository) Insert(ctx context.Context, token *models.ResetToken) error {
	_, err := r.Col.InsertOne(ctx, token)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

// Consume flips the used flag in the same operation that reads the token,
// so a token can be redeemed at most once.
func (r *MongoTokenRepository) Consume(ctx context.Context, token string, now time.Time) (*models.ResetToken, error) {
	var t models.ResetToken
	err := r.Col.FindOneAndUpdate(ctx,
		bson.M{"_id": token, "used": false, "expires_at": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{"used": true}},
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Used = true
	return &t, nil
}

func (r *MongoTokenRepository) DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.Col.DeleteMany(ctx, bson.M{"$or": []bson.M{
		{"used": true},
		{"expires_at": bson.M{"$lt": now}},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

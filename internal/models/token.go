package models

import "time"

// ResetToken is a persisted single-use token (password reset and similar).
// The expiry sweep removes tokens that are used or past their expiry.
type ResetToken struct {
	Token     string    `bson:"_id" json:"token"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Used      bool      `bson:"used" json:"used"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

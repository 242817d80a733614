package domain

import "time"

// PasswordReset is a single-use reset token record. There is no stored
// "expired" state: expiry is computed from ExpiresAt at lookup time.
type PasswordReset struct {
	TokenHash string    `json:"-" dynamodbav:"token_hash"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
	Used      bool      `json:"used" dynamodbav:"used"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

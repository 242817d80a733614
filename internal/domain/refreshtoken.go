package domain

import "time"

// RefreshToken is a server-side session record for one opaque refresh token.
// The raw token is returned to the caller exactly once, at issue time; only
// its keyed HMAC fingerprint is ever persisted. Records are never deleted:
// revoked rows stay behind as the rotation audit trail.
type RefreshToken struct {
	TokenHash      string    `json:"-" dynamodbav:"token_hash"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt      int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
	Revoked        bool      `json:"revoked" dynamodbav:"revoked"`
	ReplacedByHash string    `json:"-" dynamodbav:"replaced_by_hash"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

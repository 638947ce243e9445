// Package auth validates the bearer tokens that identify learners.
//
// Tokens are issued by the account subsystem; this package only needs to
// verify them and extract the learner ID. GenerateToken exists for local
// development and tests.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the learner.
	GenerateToken(ctx context.Context, learnerID uuid.UUID) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrWrongTokenType or
	// ErrInvalidToken when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
type Claims struct {
	// LearnerID is the unique identifier of the learner the token was issued for.
	LearnerID uuid.UUID `json:"uid,omitempty"`

	// TokenType indicates the purpose of the token; only "access" tokens are accepted.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

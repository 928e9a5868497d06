package hydroshare

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected means the user has no linked HydroShare account, or
	// their credential could not be refreshed. Fatal for any export chain.
	ErrNotConnected = errors.New("user not connected to HydroShare")

	ErrTokenNotFound = errors.New("hydroshare token not found")
)

// Token is the per-user OAuth2 credential for the HydroShare API.
type Token struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// Expired reports whether the access token needs a refresh. A small skew
// avoids handing out a token that dies mid-chain.
func (t *Token) Expired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt.Add(-30 * time.Second))
}

// TokenStore persists per-user credentials.
type TokenStore interface {
	Get(ctx context.Context, userID string) (*Token, error)
	Upsert(ctx context.Context, token *Token) error
	Delete(ctx context.Context, userID string) error
}

package hydroshare

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2"
)

// Options holds the immutable OAuth2 application configuration for one
// HydroShare instance.
type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Service hands out authenticated clients, refreshing user credentials as
// needed. Constructed once at startup and injected where needed; there are
// no package-level instances.
type Service struct {
	opt    Options
	oauth  *oauth2.Config
	tokens TokenStore
}

func NewService(opt Options, tokens TokenStore) *Service {
	base := strings.TrimRight(opt.BaseURL, "/")
	return &Service{
		opt: opt,
		oauth: &oauth2.Config{
			ClientID:     opt.ClientID,
			ClientSecret: opt.ClientSecret,
			RedirectURL:  opt.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/o/authorize/",
				TokenURL: base + "/o/token/",
			},
		},
		tokens: tokens,
	}
}

func (s *Service) BaseURL() string {
	return strings.TrimRight(s.opt.BaseURL, "/")
}

// ResourceURL builds the public landing page URL for a resource.
func (s *Service) ResourceURL(resourceID string) string {
	return s.BaseURL() + "/resource/" + resourceID
}

// AuthCodeURL starts the authorization-code flow.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a token and persists it for
// the user.
func (s *Service) ExchangeCode(ctx context.Context, userID, code string) (*Token, error) {
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	record := &Token{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if err := s.tokens.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return record, nil
}

// Disconnect drops the user's stored credential.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	return s.tokens.Delete(ctx, userID)
}

// ClientFor returns a client authenticated as the given user, refreshing
// the access token first if it has expired. A missing or unrefreshable
// credential is ErrNotConnected.
func (s *Service) ClientFor(ctx context.Context, userID string) (*Client, error) {
	tok, err := s.tokens.Get(ctx, userID)
	if err != nil {
		if err == ErrTokenNotFound {
			return nil, ErrNotConnected
		}
		return nil, err
	}

	if tok.Expired() {
		tok, err = s.refresh(ctx, tok)
		if err != nil {
			return nil, err
		}
	}

	return NewClient(s.BaseURL(), tok.AccessToken), nil
}

func (s *Service) refresh(ctx context.Context, tok *Token) (*Token, error) {
	if tok.RefreshToken == "" {
		return nil, ErrNotConnected
	}

	src := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		log.Printf("[warn] operation=token_refresh user=%s error=%v", tok.UserID, err)
		return nil, ErrNotConnected
	}

	next := &Token{
		UserID:       tok.UserID,
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		TokenType:    fresh.TokenType,
		ExpiresAt:    fresh.Expiry,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = tok.RefreshToken
	}
	if err := s.tokens.Upsert(ctx, next); err != nil {
		return nil, fmt.Errorf("store refreshed token: %w", err)
	}
	return next, nil
}

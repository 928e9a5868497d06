package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
)

// TokenRepo stores HydroShare OAuth2 tokens, one row per user.
type TokenRepo struct {
	db *pgxpool.Pool
}

func NewTokenRepo(db *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Get(ctx context.Context, userID string) (*hydroshare.Token, error) {
	const q = `
select user_id::text, access_token, refresh_token, token_type, expires_at
from hydroshare_tokens
where user_id = $1::uuid;
`
	var t hydroshare.Token
	err := r.db.QueryRow(ctx, q, userID).
		Scan(&t.UserID, &t.AccessToken, &t.RefreshToken, &t.TokenType, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, hydroshare.ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepo) Upsert(ctx context.Context, t *hydroshare.Token) error {
	const q = `
insert into hydroshare_tokens (user_id, access_token, refresh_token, token_type, expires_at, updated_at)
values ($1::uuid, $2, $3, $4, $5, now())
on conflict (user_id) do update
set access_token = excluded.access_token,
    refresh_token = excluded.refresh_token,
    token_type = excluded.token_type,
    expires_at = excluded.expires_at,
    updated_at = now();
`
	_, err := r.db.Exec(ctx, q, t.UserID, t.AccessToken, t.RefreshToken, t.TokenType, t.ExpiresAt)
	return err
}

func (r *TokenRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `delete from hydroshare_tokens where user_id = $1::uuid;`, userID)
	return err
}

package app

import (
	"time"

	"loginify/internal/model"
	"loginify/internal/pkg/jwtutil"
)

type TokenIssuer struct {
	secret     string
	expiration time.Duration
}

func NewTokenIssuer(secret string, expiration time.Duration) *TokenIssuer {
	if expiration <= 0 {
		expiration = 2 * time.Hour
	}
	return &TokenIssuer{secret: secret, expiration: expiration}
}

func (t *TokenIssuer) Issue(user *model.User) (string, error) {
	return jwtutil.GenerateToken(t.secret, t.expiration, user.Username, user.Email)
}

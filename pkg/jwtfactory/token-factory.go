package jwtfactory

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

const (
	RoleClaimName = "role"
	OperatorRole  = "operator"
)

type TokenFactory struct {
	tokenAuth           *jwtauth.JWTAuth
	tokenExpirationTime time.Duration
	now                 func() time.Time
}

func New(tokenAuth *jwtauth.JWTAuth, tokenExpirationTime time.Duration) *TokenFactory {
	return &TokenFactory{
		tokenAuth:           tokenAuth,
		tokenExpirationTime: tokenExpirationTime,
		now:                 time.Now,
	}
}

func (tf *TokenFactory) Generate(subject string) (string, error) {
	timeNow := tf.now()
	claims := map[string]any{
		"sub":         subject,
		RoleClaimName: OperatorRole,
		"exp":         timeNow.Add(tf.tokenExpirationTime).Unix(),
		"iat":         timeNow.Unix(),
	}
	_, tokenString, err := tf.tokenAuth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("failed to encode token: %w", err)
	}
	return tokenString, nil
}

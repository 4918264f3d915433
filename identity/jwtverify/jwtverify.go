// Package jwtverify verifies end-user access tokens locally with the
// project's shared HS256 secret.
package jwtverify

import (
	"context"
	"time"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/identity"
	"github.com/go-playground/errors/v5"
	"github.com/golang-jwt/jwt/v5"
)

var _ identity.Verifier = &Verifier{}

// Claims are the claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier validates HS256 access tokens.
type Verifier struct {
	secret   []byte
	audience string
	issuer   string
	leeway   time.Duration
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) Option {
	return func(v *Verifier) {
		v.issuer = issuer
	}
}

// WithLeeway tolerates clock skew of d when checking time based claims.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		v.leeway = d
	}
}

// New creates a Verifier. audience is required in the aud claim when not empty.
func New(secret, audience string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	v := &Verifier{
		secret:   []byte(secret),
		audience: audience,
	}
	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// UserFromToken validates token and returns the user named by its subject.
func (v *Verifier) UserFromToken(_ context.Context, token string) (*identity.User, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...); err != nil {
		return nil, errors.Wrap(identity.ErrInvalidToken, err.Error())
	}

	id, err := ccc.UUIDFromString(claims.Subject)
	if err != nil {
		return nil, errors.Wrapf(identity.ErrInvalidToken, "subject %q: %s", claims.Subject, err)
	}

	return &identity.User{ID: id, Email: claims.Email}, nil
}

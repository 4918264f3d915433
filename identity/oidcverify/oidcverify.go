// Package oidcverify verifies bearer credentials issued as OIDC ID tokens.
package oidcverify

import (
	"context"
	"sync"
	"time"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/identity"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/errors/v5"
)

var _ identity.Verifier = &Verifier{}

// Verifier discovers the issuer on first use and verifies ID tokens against it.
type Verifier struct {
	issuerURL string
	clientID  string

	mu       sync.RWMutex
	verifier *oidc.IDTokenVerifier
}

// New creates a Verifier for tokens issued by issuerURL to clientID.
func New(issuerURL, clientID string) *Verifier {
	return &Verifier{
		issuerURL: issuerURL,
		clientID:  clientID,
	}
}

type claims struct {
	Email string `json:"email"`
}

// UserFromToken verifies rawIDToken and returns the user named by its subject.
func (v *Verifier) UserFromToken(ctx context.Context, rawIDToken string) (*identity.User, error) {
	verifier, err := v.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}

	token, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(identity.ErrInvalidToken, err.Error())
	}

	var c claims
	if err := token.Claims(&c); err != nil {
		return nil, errors.Wrap(identity.ErrInvalidToken, err.Error())
	}

	id, err := ccc.UUIDFromString(token.Subject)
	if err != nil {
		return nil, errors.Wrapf(identity.ErrInvalidToken, "subject %q: %s", token.Subject, err)
	}

	return &identity.User{ID: id, Email: c.Email}, nil
}

func (v *Verifier) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.RLock()
	if v.verifier != nil {
		v.mu.RUnlock()

		return v.verifier, nil
	}

	v.mu.RUnlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.verifier != nil {
		return v.verifier, nil
	}

	expire, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("oidc.NewProvider() timeout"))
	defer cancel()

	provider, err := oidc.NewProvider(expire, v.issuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "oidc.NewProvider()")
	}

	v.verifier = provider.Verifier(&oidc.Config{ClientID: v.clientID})

	return v.verifier, nil
}

// Package auth authenticates bearer credentials against an ordered chain of
// verifiers. The first verifier structurally capable of parsing the credential
// attempts it; its failure is propagated as-is. There is no fall-through to a
// different mechanism, since token shape alone is not proof of origin.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskflow/internal/repository"
)

var (
	// ErrInvalidCredential covers malformed or unverifiable credentials.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential covers structurally valid but expired credentials.
	ErrExpiredCredential = errors.New("credential expired")
)

// Verifier validates one credential mechanism.
type Verifier interface {
	// CanParse reports whether the credential is structurally of this
	// verifier's kind. It must not touch the network or database.
	CanParse(credential string) bool
	// Verify authenticates the credential and returns the owner id.
	Verify(ctx context.Context, credential string) (string, error)
}

// Chain tries verifiers in order and delegates to the first structural match.
type Chain struct {
	verifiers []Verifier
}

// NewChain creates a verifier chain. Order matters.
func NewChain(verifiers ...Verifier) *Chain {
	return &Chain{verifiers: verifiers}
}

// Authenticate resolves a credential to an owner id.
func (c *Chain) Authenticate(ctx context.Context, credential string) (string, error) {
	for _, v := range c.verifiers {
		if v.CanParse(credential) {
			return v.Verify(ctx, credential)
		}
	}
	return "", ErrInvalidCredential
}

// SessionVerifier validates opaque session tokens against the shared session
// table written by the auth provider.
type SessionVerifier struct {
	sessions repository.SessionStore
}

// NewSessionVerifier creates a session-token verifier.
func NewSessionVerifier(sessions repository.SessionStore) *SessionVerifier {
	return &SessionVerifier{sessions: sessions}
}

// CanParse matches opaque session tokens, which carry no dots.
func (v *SessionVerifier) CanParse(credential string) bool {
	return credential != "" && !strings.Contains(credential, ".")
}

// Verify looks the token up and checks expiry.
func (v *SessionVerifier) Verify(ctx context.Context, credential string) (string, error) {
	userID, expiresAt, err := v.sessions.LookupSession(ctx, credential)
	if errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("session not found: %w", ErrInvalidCredential)
	}
	if err != nil {
		return "", err
	}
	if time.Now().After(expiresAt) {
		return "", fmt.Errorf("session: %w", ErrExpiredCredential)
	}
	return userID, nil
}

// JWTVerifier validates HS256-signed JWTs.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a JWT verifier with the shared signing secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// CanParse matches the three-part header.payload.signature shape.
func (v *JWTVerifier) CanParse(credential string) bool {
	return strings.Count(credential, ".") == 2
}

// Verify checks the signature and expiry, then extracts the subject. The auth
// provider writes the user id under "sub"; older tokens used "userId" or "id".
func (v *JWTVerifier) Verify(_ context.Context, credential string) (string, error) {
	token, err := jwt.Parse(credential,
		func(t *jwt.Token) (interface{}, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("jwt: %w", ErrExpiredCredential)
		}
		return "", fmt.Errorf("jwt: %w: %v", ErrInvalidCredential, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("jwt claims: %w", ErrInvalidCredential)
	}
	for _, key := range []string{"sub", "userId", "id"} {
		if id, ok := claims[key].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("jwt missing user identifier: %w", ErrInvalidCredential)
}

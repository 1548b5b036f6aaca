package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskflow/internal/repository"
)

const testSecret = "test-secret"

func signJWT(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestChain(sessions repository.SessionStore) *Chain {
	return NewChain(NewSessionVerifier(sessions), NewJWTVerifier(testSecret))
}

func TestSessionTokenValid(t *testing.T) {
	store := repository.NewMemory()
	store.PutSession("opaque-token", "alice", time.Now().Add(time.Hour))
	chain := newTestChain(store)

	owner, err := chain.Authenticate(context.Background(), "opaque-token")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if owner != "alice" {
		t.Errorf("want alice, got %q", owner)
	}
}

func TestSessionTokenExpired(t *testing.T) {
	store := repository.NewMemory()
	store.PutSession("stale-token", "alice", time.Now().Add(-time.Minute))
	chain := newTestChain(store)

	_, err := chain.Authenticate(context.Background(), "stale-token")
	if !errors.Is(err, ErrExpiredCredential) {
		t.Errorf("want ErrExpiredCredential, got %v", err)
	}
}

func TestSessionTokenUnknown(t *testing.T) {
	chain := newTestChain(repository.NewMemory())

	_, err := chain.Authenticate(context.Background(), "no-such-token")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("want ErrInvalidCredential, got %v", err)
	}
}

func TestJWTValid(t *testing.T) {
	chain := newTestChain(repository.NewMemory())
	token := signJWT(t, testSecret, "bob", time.Now().Add(time.Hour))

	owner, err := chain.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if owner != "bob" {
		t.Errorf("want bob, got %q", owner)
	}
}

func TestJWTExpired(t *testing.T) {
	chain := newTestChain(repository.NewMemory())
	token := signJWT(t, testSecret, "bob", time.Now().Add(-time.Minute))

	_, err := chain.Authenticate(context.Background(), token)
	if !errors.Is(err, ErrExpiredCredential) {
		t.Errorf("want ErrExpiredCredential, got %v", err)
	}
}

func TestJWTBadSignature(t *testing.T) {
	chain := newTestChain(repository.NewMemory())
	token := signJWT(t, "wrong-secret", "bob", time.Now().Add(time.Hour))

	_, err := chain.Authenticate(context.Background(), token)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("want ErrInvalidCredential, got %v", err)
	}
}

func TestJWTAlternateUserClaims(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	claims := jwt.MapClaims{
		"userId": "carol",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	owner, err := v.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if owner != "carol" {
		t.Errorf("want carol, got %q", owner)
	}
}

// A dotted credential is structurally a JWT. A session lookup must never run
// for it, even when JWT validation fails.
func TestNoFallThroughBetweenMechanisms(t *testing.T) {
	store := repository.NewMemory()
	badJWT := signJWT(t, "wrong-secret", "alice", time.Now().Add(time.Hour))
	store.PutSession(badJWT, "mallory", time.Now().Add(time.Hour))
	chain := newTestChain(store)

	_, err := chain.Authenticate(context.Background(), badJWT)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("want ErrInvalidCredential, got %v", err)
	}
}

func TestEmptyCredential(t *testing.T) {
	chain := newTestChain(repository.NewMemory())
	_, err := chain.Authenticate(context.Background(), "")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("want ErrInvalidCredential, got %v", err)
	}
}

func TestCanParseShapes(t *testing.T) {
	session := NewSessionVerifier(repository.NewMemory())
	jwtV := NewJWTVerifier(testSecret)

	if !session.CanParse("opaquetoken123") {
		t.Error("session verifier must match dotless tokens")
	}
	if session.CanParse("a.b.c") {
		t.Error("session verifier must not match dotted tokens")
	}
	if !jwtV.CanParse("a.b.c") {
		t.Error("jwt verifier must match three-part tokens")
	}
	if jwtV.CanParse("opaquetoken123") {
		t.Error("jwt verifier must not match dotless tokens")
	}
}

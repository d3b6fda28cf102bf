package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	token, exp, err := p.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" {
		t.Fatal("access token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	got, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if got.SessionID != "s1" || got.UserID != "u1" {
		t.Errorf("ValidateAccess: got sessionID=%q userID=%q", got.SessionID, got.UserID)
	}
	if got.TokenID == "" {
		t.Error("ValidateAccess: token id empty")
	}
}

func TestNewTestTokenProvider_SharesKey(t *testing.T) {
	a, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	b, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := a.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := b.ValidateAccess(token); err != nil {
		t.Errorf("token from one test provider rejected by another: %v", err)
	}
	if alg := KeyAlg(a.publicKey); alg != "ES256" {
		t.Errorf("KeyAlg = %q, want ES256", alg)
	}
}

func TestTokenProvider_ValidateAccessInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	for _, tok := range []string{"", "invalid-token", "a.b.c"} {
		if _, err := p.ValidateAccess(tok); err != ErrInvalidToken {
			t.Errorf("ValidateAccess(%q): want ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestTokenProvider_RejectsWrongAudienceAndExpired(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	other := NewTokenProvider(p.privateKey, p.publicKey, TestIssuer, "other-audience", time.Minute)
	token, _, err := other.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("wrong audience: want ErrInvalidToken, got %v", err)
	}

	expired := NewTokenProvider(p.privateKey, p.publicKey, TestIssuer, TestAudience, -time.Minute)
	token, _, err = expired.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("expired: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ES256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := NewTokenProvider(key, nil, "iss", "aud", time.Minute)
	token, _, err := p.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(token); err != nil {
		t.Errorf("ValidateAccess: %v", err)
	}
}

func TestTokenProvider_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := NewTokenProvider(key, nil, TestIssuer, TestAudience, time.Minute)
	token, _, err := p.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(token); err != nil {
		t.Errorf("ValidateAccess: %v", err)
	}
}

func TestTokenProvider_VerifyOnly(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := p.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	verifier := NewTokenProvider(nil, p.publicKey, TestIssuer, TestAudience, time.Minute)
	if _, _, err := verifier.IssueAccess("s1", "u1"); err != ErrNoSigningKey {
		t.Errorf("IssueAccess on verifier: want ErrNoSigningKey, got %v", err)
	}
	if _, err := verifier.ValidateAccess(token); err != nil {
		t.Errorf("ValidateAccess on verifier: %v", err)
	}
}

package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewManager(t *testing.T) {
	if _, err := NewManager("", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Errorf("NewManager(\"\") error = %v, want ErrNoSecret", err)
	}

	m, err := NewManager("secret", 0)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", m.TTL(), DefaultTTL)
	}
}

func TestIssueAndParse(t *testing.T) {
	m, _ := NewManager("test-secret", time.Hour)

	tok, err := m.Issue("65f1c0ffee0000000000abcd", "254712345678")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != "65f1c0ffee0000000000abcd" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Phone != "254712345678" {
		t.Errorf("Phone = %q", claims.Phone)
	}
	if claims.ID == "" {
		t.Error("token has no jti")
	}
}

func TestIssue_UniqueIDs(t *testing.T) {
	m, _ := NewManager("test-secret", time.Hour)

	a, _ := m.Issue("u1", "")
	b, _ := m.Issue("u1", "")
	if a == b {
		t.Error("two tokens for the same user should differ")
	}
}

func TestParse_Expired(t *testing.T) {
	m, _ := NewManager("test-secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	tok, err := m.Issue("u1", "")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	m.now = time.Now
	if _, err := m.Parse(tok); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Parse() error = %v, want ErrExpiredToken", err)
	}
}

func TestParse_Rejects(t *testing.T) {
	m, _ := NewManager("test-secret", time.Hour)
	other, _ := NewManager("other-secret", time.Hour)
	foreign, _ := other.Issue("u1", "")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", foreign},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

package authn

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return tok
}

func TestParseUnverified(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, &Claims{
		UserID: "95a803c3-b51e-47a0-90d1-3a2b8e0f1c11",
		Email:  "admin@example.com",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	claims, err := ParseUnverified(tok)
	if err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	if claims.UserID != "95a803c3-b51e-47a0-90d1-3a2b8e0f1c11" {
		t.Errorf("UserID mismatch: got %s", claims.UserID)
	}
	if !claims.IsAdmin() {
		t.Error("expected admin role")
	}
	got, ok := claims.Expiry()
	if !ok || !got.Equal(exp) {
		t.Errorf("Expiry = %v, %v; want %v", got, ok, exp)
	}
}

func TestParseUnverifiedRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "opaque-token", "a.b.c", "a.b"} {
		if _, err := ParseUnverified(tok); err != ErrInvalidToken {
			t.Errorf("ParseUnverified(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{
			name:  "future exp",
			token: signed(t, &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}),
			want:  false,
		},
		{
			name:  "past exp",
			token: signed(t, &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}),
			want:  true,
		},
		{
			name:  "no exp claim",
			token: signed(t, &Claims{UserID: "u1", Role: "user"}),
			want:  false,
		},
		{
			name:  "opaque token",
			token: "not-a-jwt",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.token, now); got != tt.want {
				t.Errorf("IsExpired = %v, want %v", got, tt.want)
			}
		})
	}
}

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func fixedCodec(now time.Time) *Codec {
	c := NewCodec(testSecret, 24*time.Hour)
	c.Now = func() time.Time { return now }
	return c
}

func signMap(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	codec := fixedCodec(now)

	token, err := codec.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	userID, err := codec.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user id = %d, want 42", userID)
	}
}

func TestIssueSetsTwentyFourHourExpiry(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	token, err := fixedCodec(now).Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("exp = %s, want %s", got, now.Add(24*time.Hour))
	}
}

func TestIssueRejectsNonPositiveUserID(t *testing.T) {
	if _, err := NewCodec(testSecret, time.Hour).Issue(0); err == nil {
		t.Fatal("expected error for user id 0")
	}
}

func TestValidateExpired(t *testing.T) {
	issuedAt := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	token, err := fixedCodec(issuedAt).Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	later := fixedCodec(issuedAt.Add(24*time.Hour + time.Second))
	userID, err := later.Validate(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if userID != 0 {
		t.Fatalf("expired token resolved to user %d", userID)
	}
}

func TestValidateFailures(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	codec := fixedCodec(now)
	exp := now.Add(time.Hour).Unix()

	valid, err := codec.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "tampered signature", token: tampered},
		{name: "wrong secret", token: signMap(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": 42, "exp": exp})},
		{name: "alg none", token: signMap(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": 42, "exp": exp})},
		{name: "hs512", token: signMap(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"user_id": 42, "exp": exp})},
		{name: "missing user id", token: signMap(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"exp": exp})},
		{name: "garbled user id", token: signMap(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": "abc", "exp": exp})},
		{name: "missing expiry", token: signMap(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": 42})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := codec.Validate(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
			if userID != 0 {
				t.Fatalf("invalid token resolved to user %d", userID)
			}
		})
	}
}

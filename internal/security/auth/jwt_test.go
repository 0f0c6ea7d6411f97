package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "freightlink", time.Minute)
	token, err := tm.GenerateToken("u1", "u1@example.test")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.Subject != "u1" || claims.Email != "u1@example.test" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	tm := NewTokenManager("secret", "freightlink", time.Minute)
	token, _ := tm.GenerateToken("u1", "")

	tests := map[string]*TokenManager{
		"wrong secret": NewTokenManager("other", "freightlink", time.Minute),
		"wrong issuer": NewTokenManager("secret", "someone-else", time.Minute),
	}
	for name, other := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := other.ValidateToken(token); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	expired := NewTokenManager("secret", "freightlink", time.Nanosecond)
	old, _ := expired.GenerateToken("u1", "")
	time.Sleep(time.Millisecond)
	if _, err := tm.ValidateToken(old); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, %v", tt.header, got, err)
		}
	}
}

package security

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == "correct horse" {
		t.Fatalf("HashPassword() returned %q", hash)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "matching password", password: "correct horse", hash: hash, want: true},
		{name: "wrong password", password: "battery staple", hash: hash, want: false},
		{name: "empty hash", password: "", hash: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	token, err := issuer.Issue(42, "session-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != 42 || claims.ID != "session-1" {
		t.Errorf("claims = %+v, want user 42 session-1", claims)
	}
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret")

	expired, err := issuer.Issue(1, "old", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := issuer.Parse(expired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Parse(expired) error = %v, want %v", err, ErrTokenExpired)
	}

	foreign, err := NewTokenIssuer("other").Issue(1, "s", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := issuer.Parse(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse(foreign) error = %v, want %v", err, ErrInvalidToken)
	}

	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse(garbage) error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request inside the window should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IPs have their own bucket")
	}
	if removed := rl.Cleanup(); removed != 0 {
		t.Errorf("Cleanup() removed %d recent visitors", removed)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remote     string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:80", trustProxy: true, want: "203.0.113.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.4"}, remote: "10.0.0.1:80", trustProxy: true, want: "198.51.100.4"},
		{name: "forwarded ignored without proxy", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "real ip ignored without proxy", headers: map[string]string{"X-Real-IP": "198.51.100.4"}, remote: "192.0.2.1:5555", want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateSigner(t *testing.T) {
	signer := NewStateSigner("secret")
	nonce, state := signer.NewState()

	if !signer.Verify(nonce, state) {
		t.Error("Verify() rejected a state it issued")
	}
	if signer.Verify(nonce, state+"x") {
		t.Error("Verify() accepted a tampered state")
	}
	if NewStateSigner("other").Verify(nonce, state) {
		t.Error("Verify() accepted a state signed with another secret")
	}
	if signer.Verify("", "") {
		t.Error("Verify() accepted empty values")
	}
}

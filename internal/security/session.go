package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID creates a new UUID for session identification
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateStateCookie creates a short-lived cookie holding the OAuth state nonce.
// The Secure flag follows the request scheme.
func CreateStateCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/api/auth",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie expires the named cookie
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	}
}

// StateSigner derives OAuth state values from a per-login nonce with HMAC-SHA256,
// so the callback can be checked without server-side storage
type StateSigner struct {
	secret []byte
}

// NewStateSigner creates a signer keyed by secret
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret)}
}

// NewState returns a fresh nonce and the state value bound to it
func (s *StateSigner) NewState() (nonce, state string) {
	nonce = uuid.New().String()
	return nonce, s.sign(nonce)
}

// Verify reports whether state was derived from nonce
func (s *StateSigner) Verify(nonce, state string) bool {
	if nonce == "" || state == "" {
		return false
	}
	return hmac.Equal([]byte(s.sign(nonce)), []byte(state))
}

func (s *StateSigner) sign(nonce string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil))
}

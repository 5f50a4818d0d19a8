package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BlackMission/graphprofile/internal/domain"
)

const (
	// Name is the session cookie name.
	Name = "gp_session"

	defaultTTL = 8 * time.Hour
)

// Codec seals and opens session cookies using AES-256-GCM.
type Codec struct {
	aead   cipher.AEAD
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCodec creates a cookie codec with the given 32-byte AES key.
// A zero ttl selects the default of 8 hours.
func NewCodec(key []byte, ttl time.Duration, secure bool) (*Codec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Codec{
		aead:   aead,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}, nil
}

// SetNow overrides the time function (for testing).
func (c *Codec) SetNow(fn func() time.Time) {
	c.now = fn
}

// TTL returns how long a sealed cookie stays valid.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode seals a SessionCookie into a base64url-encoded value.
func (c *Codec) Encode(payload domain.SessionCookie) (string, error) {
	payload.ExpiresAt = c.now().Add(c.ttl)

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling session cookie: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	// nonce || ciphertext+tag
	ciphertext := c.aead.Seal(nonce, nonce, plaintext, nil)

	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decode opens a base64url-encoded cookie value back into a SessionCookie.
func (c *Codec) Decode(value string) (*domain.SessionCookie, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, domain.ErrInvalidSessionCookie
	}

	if len(raw) < c.aead.NonceSize() {
		return nil, domain.ErrInvalidSessionCookie
	}

	nonce := raw[:c.aead.NonceSize()]
	ciphertext := raw[c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, domain.ErrInvalidSessionCookie
	}

	var payload domain.SessionCookie
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, domain.ErrInvalidSessionCookie
	}

	if c.now().After(payload.ExpiresAt) {
		return nil, domain.ErrExpiredSessionCookie
	}

	return &payload, nil
}

// NeedsRefresh reports whether a cookie has used up half of its lifetime and
// should be re-issued so that an active browser keeps its session.
func (c *Codec) NeedsRefresh(payload *domain.SessionCookie) bool {
	return payload.ExpiresAt.Sub(c.now()) < c.ttl/2
}

// Read extracts and opens the session cookie from a request.
func (c *Codec) Read(r *http.Request) (*domain.SessionCookie, error) {
	ck, err := r.Cookie(Name)
	if err != nil {
		return nil, domain.ErrInvalidSessionCookie
	}
	return c.Decode(ck.Value)
}

// Write seals sessionID and sets it as the session cookie.
func (c *Codec) Write(w http.ResponseWriter, sessionID string) error {
	value, err := c.Encode(domain.SessionCookie{SessionID: sessionID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie in the browser.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

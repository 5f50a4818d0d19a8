package state

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BlackMission/graphprofile/internal/domain"
)

const (
	defaultExpiry = 5 * time.Minute
	nonceBytes    = 16
	issuer        = "graphprofile"
)

type claims struct {
	SessionID  string `json:"sid"`
	ReturnPath string `json:"ret"`
	Nonce      string `json:"nce"`
	jwt.RegisteredClaims
}

// Service generates and validates HS256-signed OAuth state tokens.
type Service struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// NewService creates a state token service with the given HMAC signing key.
func NewService(key []byte) *Service {
	return &Service{
		key:    key,
		expiry: defaultExpiry,
		now:    time.Now,
	}
}

// Generate creates a signed state token bound to the payload's session.
func (s *Service) Generate(payload domain.StatePayload) (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	now := s.now()

	c := claims{
		SessionID:  payload.SessionID,
		ReturnPath: payload.ReturnPath,
		Nonce:      hex.EncodeToString(nonce),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing state token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of a state token.
func (s *Service) Validate(token string) (*domain.StatePayload, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrExpiredState
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, domain.ErrMalformedState
	default:
		return nil, domain.ErrInvalidState
	}

	return &domain.StatePayload{
		SessionID:  c.SessionID,
		ReturnPath: c.ReturnPath,
		Nonce:      c.Nonce,
		ExpiresAt:  c.ExpiresAt.Time,
	}, nil
}

// ValidateForSession validates a state token and checks it was issued to sessionID.
func (s *Service) ValidateForSession(token, sessionID string) (*domain.StatePayload, error) {
	payload, err := s.Validate(token)
	if err != nil {
		return nil, err
	}
	if payload.SessionID != sessionID {
		return nil, domain.ErrStateSessionMismatch
	}
	return payload, nil
}

// SetNow overrides the time function (for testing).
func (s *Service) SetNow(fn func() time.Time) {
	s.now = fn
}

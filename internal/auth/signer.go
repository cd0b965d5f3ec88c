package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/squareit/account-service/internal/domain"
)

// WebhookSigner issues short-lived HS256 tokens that authenticate outbound
// notification webhooks.
type WebhookSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewWebhookSigner builds a signer.
func NewWebhookSigner(secret string, ttlMinutes int) *WebhookSigner {
	if ttlMinutes <= 0 {
		ttlMinutes = 5
	}
	return &WebhookSigner{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// NotificationClaims describes the webhook JWT payload.
type NotificationClaims struct {
	Kind domain.NotificationKind `json:"kind"`
	jwt.RegisteredClaims
}

// Sign returns a bearer token bound to msg.
func (s *WebhookSigner) Sign(msg domain.NotificationMessage) (string, error) {
	now := s.now()
	claims := &NotificationClaims{
		Kind: msg.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        msg.ID,
			Subject:   msg.AccountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates tokenStr and returns its claims.
func (s *WebhookSigner) Parse(tokenStr string) (*NotificationClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &NotificationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*NotificationClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

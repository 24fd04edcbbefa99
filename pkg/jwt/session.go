package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims scope a video credential to one channel, participant and role.
type SessionClaims struct {
	AppID   string    `json:"app_id"`
	Channel string    `json:"channel"`
	UID     uuid.UUID `json:"uid"`
	Role    string    `json:"role"`
	jwt.RegisteredClaims
}

// SessionSigner issues HS256 join tokens for the real-time session provider.
type SessionSigner struct {
	appID  string
	secret []byte
	now    func() time.Time
}

func NewSessionSigner(appID, secret string) *SessionSigner {
	return &SessionSigner{appID: appID, secret: []byte(secret), now: time.Now}
}

// Issue signs a token valid for ttl. ctx is honoured so callers can bound the call.
func (s *SessionSigner) Issue(ctx context.Context, channel string, uid uuid.UUID, role string, ttl time.Duration) (string, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, err
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("session signer has no secret configured")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	claims := SessionClaims{
		AppID:   s.appID,
		Channel: channel,
		UID:     uid,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses a token issued by this signer.
func (s *SessionSigner) Verify(token string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionProvider signs the browser session id into an HS256 token so the
// cookie cannot be forged to pick another visitor's session.
type SessionProvider struct {
	Secret string
	// TTL bounds the token lifetime. Zero issues tokens without expiry.
	TTL time.Duration
}

func NewSessionProvider(secret string, ttl time.Duration) *SessionProvider {
	return &SessionProvider{Secret: secret, TTL: ttl}
}

func (p *SessionProvider) Issue(sid string) (string, error) {
	if sid == "" {
		return "", errors.New("empty session id")
	}

	now := time.Now()
	claims := sessionClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if p.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(p.TTL))
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(p.Secret))
}

// Parse returns the session id of a valid token.
func (p *SessionProvider) Parse(token string) (string, error) {
	claims := new(sessionClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(p.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.SID == "" {
		return "", ErrInvalidToken
	}
	return claims.SID, nil
}

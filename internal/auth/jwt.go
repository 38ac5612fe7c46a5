package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error Validate returns. Malformed tokens, bad
// signatures and expired tokens all collapse into it so callers cannot leak
// which check failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// expiryLeeway absorbs small clock skew between issuer and verifier. It
// applies to the expiry check only; issued-at is never validated.
const expiryLeeway = 30 * time.Second

// Claims is deliberately minimal: the token proves identity and nothing
// else. Handlers that need profile fields re-fetch the user by subject.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues and validates signed bearer tokens. Tokens are stateless,
// nothing is persisted and nothing can be revoked individually. Rotating the
// secret invalidates every outstanding token at once.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token for userID with issued-at now and expiry now+ttl.
func (m *Manager) Issue(userID string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Validate checks the token against the process secret and returns the
// subject user id. It is a pure function of the token bytes and the secret:
// no I/O, no state.
func (m *Manager) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) {
			// Enforce HMAC, reject alg-substitution tokens
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return m.secret, nil
		},
		jwt.WithLeeway(expiryLeeway),
	)

	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

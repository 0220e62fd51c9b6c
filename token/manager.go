// Package token issues and verifies the signed credential that binds a
// request to a session. The credential embeds only the user and session
// identifiers; verification needs the signing secret and no store lookup.
// Whether the session behind a cryptographically valid credential is still
// usable is decided elsewhere, by store-backed validation.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for any credential that fails signature, shape, or
// time checks. Callers never learn which check failed.
var ErrInvalid = errors.New("invalid credential")

// Config defines the signing parameters. Secret must be at least 32 bytes.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

// Claims is the credential payload: user and session identity plus the
// registered time claims.
type Claims struct {
	UID string `json:"uid"`
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager signs and parses credentials with HS256.
//
// Manager instances are intended to be configured during initialization and
// then treated as immutable.
type Manager struct {
	config Config
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("hs256 requires a secret of at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Issue creates a signed credential for the session, expiring after ttl.
func (m *Manager) Issue(userID, sessionID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("invalid credential ttl")
	}

	now := time.Now()
	claims := Claims{
		UID: userID,
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies the signature and time claims and returns the payload.
// Any failure collapses to ErrInvalid.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return m.config.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.config.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.UID == "" || claims.SID == "" {
		return nil, ErrInvalid
	}
	if m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
		return nil, ErrInvalid
	}

	return claims, nil
}

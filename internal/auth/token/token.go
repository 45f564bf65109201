// Package token implements the symmetric session token codec. Validity is
// entirely determined by signature and expiry; no server-side session state.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Aleksandr505/Confa/internal/platform/config"
	dErrors "github.com/Aleksandr505/Confa/pkg/domain-errors"
)

// Claims is the signed claim set carried by access and refresh tokens.
// Scope holds role names; the subject is the user id.
type Claims struct {
	Scope []string `json:"scope"`
	jwt.RegisteredClaims
}

// Pair bundles the access/refresh tokens minted for one login.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Codec mints and decodes HS256-signed tokens with a single static secret.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(cfg config.JWTConfig) *Codec {
	return &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessExpiration,
		refreshTTL: cfg.RefreshExpiration,
	}
}

// MintAccessToken signs a short-lived token for the subject and scope.
func (c *Codec) MintAccessToken(subject string, scope []string) (string, error) {
	return c.mint(subject, scope, c.accessTTL)
}

// MintRefreshToken signs a long-lived token for the subject and scope.
func (c *Codec) MintRefreshToken(subject string, scope []string) (string, error) {
	return c.mint(subject, scope, c.refreshTTL)
}

// MintPair mints an access/refresh pair sharing subject and scope but with
// independent ids and expiries.
func (c *Codec) MintPair(subject string, scope []string) (*Pair, error) {
	access, err := c.MintAccessToken(subject, scope)
	if err != nil {
		return nil, err
	}
	refresh, err := c.MintRefreshToken(subject, scope)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (c *Codec) mint(subject string, scope []string, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Decode verifies signature and expiry and returns the claims.
// All failure modes collapse to CodeUnauthorized so callers cannot
// distinguish a forged token from an expired one.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

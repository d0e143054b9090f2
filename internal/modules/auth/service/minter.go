package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/reshetovitsme/askanon/internal/modules/auth/domain"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
)

// Minter issues HS256 identity tokens for local development and scripting
type Minter struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewMinter creates a minter using the configured HMAC secret
func NewMinter(cfg *config.Config) (*Minter, error) {
	if cfg.AuthHMACSecret == "" {
		return nil, apperrors.ErrMintDisabled
	}
	return &Minter{
		secret:   []byte(cfg.AuthHMACSecret),
		issuer:   cfg.AuthIssuer,
		audience: cfg.AuthAudience,
		now:      time.Now,
	}, nil
}

// Mint signs a token for subject valid for ttl
func (m *Minter) Mint(subject, email string, admin bool, ttl time.Duration) (string, error) {
	now := m.now()
	claims := domain.Claims{
		Admin: admin,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", oops.With("subject", subject, "context", "failed to sign token").Wrap(err)
	}
	return signed, nil
}

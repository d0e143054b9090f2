package service

import (
	"crypto/rsa"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/reshetovitsme/askanon/internal/modules/auth/domain"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
)

// Verifier checks identity tokens issued by the authentication provider
type Verifier struct {
	hmacSecret []byte
	publicKey  *rsa.PublicKey
	parser     *jwt.Parser
}

// NewVerifier builds a verifier from the auth_* settings
func NewVerifier(cfg *config.Config) (*Verifier, error) {
	v := &Verifier{}
	var methods []string

	if cfg.AuthHMACSecret != "" {
		v.hmacSecret = []byte(cfg.AuthHMACSecret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}

	if cfg.AuthPublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.AuthPublicKeyFile)
		if err != nil {
			return nil, oops.With("public_key_file", cfg.AuthPublicKeyFile, "context", "failed to read public key").Wrap(err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, oops.With("public_key_file", cfg.AuthPublicKeyFile, "context", "failed to parse public key").Wrap(err)
		}
		v.publicKey = key
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}

	if len(methods) == 0 {
		return nil, apperrors.ErrMissingAuthKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.AuthIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.AuthIssuer))
	}
	if cfg.AuthAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.AuthAudience))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

// Verify parses and validates a raw token
func (v *Verifier) Verify(raw string) (*domain.Claims, error) {
	if raw == "" {
		return nil, apperrors.ErrMissingToken
	}

	claims := &domain.Claims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, v.keyFunc); err != nil {
		return nil, oops.With("reason", err.Error()).Wrap(apperrors.ErrInvalidToken)
	}
	return claims, nil
}

// VerifyAdmin is Verify plus the admin claim check
func (v *Verifier) VerifyAdmin(raw string) (*domain.Claims, error) {
	claims, err := v.Verify(raw)
	if err != nil {
		return nil, err
	}
	if !claims.Admin {
		return claims, oops.With("subject", claims.Subject).Wrap(apperrors.ErrNotAdmin)
	}
	return claims, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.hmacSecret != nil {
			return v.hmacSecret, nil
		}
	case *jwt.SigningMethodRSA:
		if v.publicKey != nil {
			return v.publicKey, nil
		}
	}
	return nil, oops.With("alg", token.Method.Alg()).Errorf("unexpected signing method")
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sentra/internal/domain"
	"sentra/pkg/platform/sentinel"
)

// Typed verification failures. The orchestrator maps each to its own reason
// code; nothing else about the underlying error leaks to callers.
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrUnknownIssuer = errors.New("unknown issuer")
	ErrVerifyTimeout = errors.New("identity verification timed out")
)

// KeySource resolves issuer verification keys. Implementations call the
// external issuer's key endpoint and must honor context cancellation.
type KeySource interface {
	// Key returns the verification key for the issuer/keyID pair. It returns
	// sentinel.ErrNotFound (wrapped) for issuers this deployment does not
	// federate with.
	Key(ctx context.Context, issuer, keyID string) (any, error)
}

// Claims carries the principal snapshot the issuer embeds in access tokens.
type Claims struct {
	Roles      []string          `json:"roles"`
	Attributes map[string]string `json:"attrs,omitempty"`
	Consent    map[string]bool   `json:"consent,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates presented credentials against issuer keys. It is
// stateless; every call stands alone and is bounded by the configured timeout
// against the key source.
type Verifier struct {
	keys     KeySource
	audience string
	timeout  time.Duration
}

// NewVerifier constructs a Verifier. A zero timeout disables the bound and is
// only appropriate in tests.
func NewVerifier(keys KeySource, audience string, timeout time.Duration) *Verifier {
	return &Verifier{keys: keys, audience: audience, timeout: timeout}
}

// Verify validates the token's signature, expiry, audience, and issuer claim,
// returning the verified principal snapshot.
func (v *Verifier) Verify(ctx context.Context, token string) (domain.VerifiedIdentity, error) {
	if token == "" {
		return domain.VerifiedIdentity{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		issuer, err := t.Claims.GetIssuer()
		if err != nil || issuer == "" {
			return nil, fmt.Errorf("%w: missing issuer claim", ErrUnknownIssuer)
		}
		keyID, _ := t.Header["kid"].(string)
		key, err := v.keys.Key(ctx, issuer, keyID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownIssuer, issuer)
			}
			return nil, err
		}
		return key, nil
	})
	if err != nil {
		return domain.VerifiedIdentity{}, classifyParseError(ctx, err)
	}
	if !parsed.Valid {
		return domain.VerifiedIdentity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return domain.VerifiedIdentity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	return domain.VerifiedIdentity{
		Principal: domain.Principal{
			ID:         claims.Subject,
			Roles:      claims.Roles,
			Attributes: claims.Attributes,
			Consent:    claims.Consent,
		},
		Issuer:    claims.Issuer,
		TokenID:   claims.ID,
		ExpiresAt: expires,
	}, nil
}

func classifyParseError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrUnknownIssuer):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrVerifyTimeout, err)
	case errors.Is(err, sentinel.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrVerifyTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

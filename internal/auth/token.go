package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/flight-agent/internal/domain"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// DefaultTokenTTL is the validity window of issued tokens. It is kept short
// because tokens cannot be revoked.
const DefaultTokenTTL = 5 * time.Minute

// Validation failures. Validate returns exactly one of these.
var (
	ErrTokenExpired          = apperrors.NewDomainError(apperrors.CodeTokenExpired, "token expired", http.StatusForbidden, nil)
	ErrTokenInvalidSignature = apperrors.NewDomainError(apperrors.CodeTokenInvalidSignature, "invalid token signature", http.StatusForbidden, nil)
	ErrTokenMalformed        = apperrors.NewDomainError(apperrors.CodeTokenMalformed, "malformed token", http.StatusForbidden, nil)
	// ErrTokenMissing is reported by the middleware when no token is presented.
	ErrTokenMissing = apperrors.NewDomainError(apperrors.CodeTokenMalformed, "missing token", http.StatusForbidden, nil)
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	tm.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return tm.now() }),
	)
	return tm
}

// Claims describes JWT payload. The registered subject carries the user identifier.
type Claims struct {
	Role domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TTL returns the validity window applied to issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token for subject.
func (tm *TokenManager) Issue(subject string, role domain.Role) (domain.Token, error) {
	if strings.TrimSpace(subject) == "" {
		return domain.Token{}, apperrors.NewValidationError("token subject required", nil)
	}

	// NumericDate has second precision; derive expiry from the truncated
	// issue time so the reported ExpiresAt matches the signed claim.
	issuedAt := tm.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	return domain.Token{
		Value:     signed,
		Subject:   subject,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifies signature and expiry and returns the claims. A token
// checked exactly at its expiry instant is expired.
func (tm *TokenManager) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := tm.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, tm.classify(raw, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func (tm *TokenManager) classify(raw string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed) && tm.onlySignatureBroken(raw):
		return ErrTokenInvalidSignature
	default:
		return ErrTokenMalformed
	}
}

// onlySignatureBroken reports whether header and claims decode cleanly, which
// means the failure came from the signature part. A corrupted signature may
// contain extra dots, so everything after the second dot counts as signature.
func (tm *TokenManager) onlySignatureBroken(raw string) bool {
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 {
		return false
	}
	decoder := jwt.NewParser(jwt.WithStrictDecoding())

	header, err := decoder.DecodeSegment(parts[0])
	if err != nil {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(header, &fields); err != nil || fields == nil {
		return false
	}

	payload, err := decoder.DecodeSegment(parts[1])
	if err != nil {
		return false
	}
	var claims Claims
	return json.Unmarshal(payload, &claims) == nil
}

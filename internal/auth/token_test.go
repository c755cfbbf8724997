package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/flight-agent/internal/domain"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T) (*TokenManager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewTokenManager("super-secret", DefaultTokenTTL, WithClock(clock.Now)), clock
}

func TestIssueAndValidate_Success(t *testing.T) {
	tm, clock := newTestManager(t)

	tok, err := tm.Issue("me@gmail.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, clock.now, tok.IssuedAt)
	assert.Equal(t, clock.now.Add(5*time.Minute), tok.ExpiresAt)
	assert.Equal(t, "me@gmail.com", tok.Subject)

	claims, err := tm.Validate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "me@gmail.com", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestIssue_EmptySubject(t *testing.T) {
	tm, _ := newTestManager(t)

	_, err := tm.Issue("  ", domain.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestIssue_TruncatesToSecond(t *testing.T) {
	tm, clock := newTestManager(t)
	clock.now = clock.now.Add(750 * time.Millisecond)

	tok, err := tm.Issue("u1", domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Truncate(time.Second), tok.IssuedAt)
	assert.Equal(t, tok.IssuedAt.Add(DefaultTokenTTL), tok.ExpiresAt)
}

func TestValidate_ExpiryBoundaryIsInclusive(t *testing.T) {
	tm, clock := newTestManager(t)
	issuedAt := clock.now

	tok, err := tm.Issue("u1", domain.RoleUser)
	require.NoError(t, err)

	clock.now = issuedAt.Add(5*time.Minute - time.Nanosecond)
	_, err = tm.Validate(tok.Value)
	require.NoError(t, err, "token must be valid for the whole window")

	clock.now = issuedAt.Add(5 * time.Minute)
	_, err = tm.Validate(tok.Value)
	assert.ErrorIs(t, err, ErrTokenExpired, "token validated exactly at expiry is expired")

	clock.now = issuedAt.Add(time.Hour)
	_, err = tm.Validate(tok.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_TamperedSignatureEveryByte(t *testing.T) {
	tm, _ := newTestManager(t)

	tok, err := tm.Issue("u1", domain.RoleUser)
	require.NoError(t, err)

	sigStart := strings.LastIndex(tok.Value, ".") + 1
	for i := sigStart; i < len(tok.Value); i++ {
		for bit := 0; bit < 8; bit++ {
			b := []byte(tok.Value)
			b[i] ^= 1 << bit

			_, err := tm.Validate(string(b))
			require.ErrorIsf(t, err, ErrTokenInvalidSignature, "flipping bit %d of byte %d (%q) must invalidate signature", bit, i, b[i])
		}
	}
}

func TestValidate_DotInSignatureIsInvalidSignature(t *testing.T) {
	tm, _ := newTestManager(t)

	tok, err := tm.Issue("u1", domain.RoleUser)
	require.NoError(t, err)

	sigStart := strings.LastIndex(tok.Value, ".") + 1
	b := []byte(tok.Value)
	b[sigStart+3] = '.'

	_, err = tm.Validate(string(b))
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)

	_, err = tm.Validate(tok.Value + ".extra")
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestTokenErrorsDefaultToForbidden(t *testing.T) {
	for _, err := range []error{ErrTokenExpired, ErrTokenInvalidSignature, ErrTokenMalformed, ErrTokenMissing} {
		assert.Equal(t, http.StatusForbidden, apperrors.ToDomainError(err).HTTPStatus, err.Error())
	}
}

func TestValidate_TamperedPayload(t *testing.T) {
	tm, _ := newTestManager(t)

	tok, err := tm.Issue("user@test.com", domain.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	claims["role"] = string(domain.RoleAdmin)
	forged, err := json.Marshal(claims)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = tm.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestValidate_WrongSecret(t *testing.T) {
	tm, clock := newTestManager(t)
	other := NewTokenManager("other-secret", DefaultTokenTTL, WithClock(clock.Now))

	tok, err := other.Issue("u2", domain.RoleUser)
	require.NoError(t, err)

	_, err = tm.Validate(tok.Value)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestValidate_UnexpectedAlgorithm(t *testing.T) {
	tm, clock := newTestManager(t)

	claims := jwt.RegisteredClaims{
		Subject:   "u3",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = tm.Validate(signed)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestValidate_Malformed(t *testing.T) {
	tm, clock := newTestManager(t)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u4"}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":           "",
		"garbage":         "abc",
		"not a jwt":       "not.a.jwt",
		"too many parts":  "a.b.c.d",
		"header not json": base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".e30.c2ln",
		"missing exp":     noExpiry,
		"missing subject": noSubject,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tm.Validate(raw)
			assert.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	tm := NewTokenManager("s", 0)
	assert.Equal(t, DefaultTokenTTL, tm.TTL())
}

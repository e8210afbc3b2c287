package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/ai-stockassistant/pkg/errors"
)

func TestService_IssueAndValidate(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", Issuer: "tests", TokenTTL: time.Hour}, newTestLogger())

	token, expiresAt, err := svc.Issue(context.Background(), "  investor-42 ")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.Validate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "investor-42", claims.Subject)
	_, err = uuid.Parse(claims.TokenID)
	require.NoError(t, err)

	second, _, err := svc.Issue(context.Background(), "investor-42")
	require.NoError(t, err)
	secondClaims, err := svc.Validate(context.Background(), second)
	require.NoError(t, err)
	require.NotEqual(t, claims.TokenID, secondClaims.TokenID)
	require.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestService_RejectsBadTokens(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", Issuer: "tests", TokenTTL: time.Hour}, newTestLogger())
	other := NewService(Config{Secret: "other-secret", Issuer: "tests", TokenTTL: time.Hour}, newTestLogger())
	foreignIssuer := NewService(Config{Secret: "test-secret", Issuer: "elsewhere", TokenTTL: time.Hour}, newTestLogger())

	wrongKey, _, err := other.Issue(context.Background(), "u1")
	require.NoError(t, err)
	wrongIssuer, _, err := foreignIssuer.Issue(context.Background(), "u1")
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  "tests",
		Subject: "u1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        " ",
		"garbage":      "not-a-jwt",
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"no expiry":    noExpiry,
	} {
		_, err := svc.Validate(context.Background(), token)
		require.Error(t, err, name)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken), name)
	}
}

func TestService_RejectsExpiredToken(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TokenTTL: time.Minute}, newTestLogger()).(*service)
	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, _, err := svc.Issue(context.Background(), "u1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(context.Background(), token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestService_IssueValidation(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret"}, newTestLogger())
	_, _, err := svc.Issue(context.Background(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	unsigned := NewService(Config{}, newTestLogger())
	_, _, err = unsigned.Issue(context.Background(), "u1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeAuthError))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

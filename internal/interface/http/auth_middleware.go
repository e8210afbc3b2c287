package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-stockassistant/internal/domain/auth"
	apperrors "github.com/yanqian/ai-stockassistant/pkg/errors"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errMalformedBearer      = errors.New("invalid authorization header")
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedBearer
	}
	return token, nil
}

// authMiddleware admits requests carrying a valid bearer token and stores
// its claims for subjectOf. A missing or malformed header is 401, a token
// that fails validation is 403.
func authMiddleware(tokens auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, codeUnauthorized, err.Error(), nil))
			return
		}

		claims, err := tokens.Validate(c.Request.Context(), token)
		switch {
		case err == nil:
			setClaims(c, claims)
			c.Next()
		case apperrors.IsCode(err, apperrors.CodeInvalidToken):
			abortWithError(c, NewHTTPError(http.StatusForbidden, apperrors.CodeInvalidToken, errMessage(err), err))
		default:
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, apperrors.CodeAuthError, errMessage(err), err))
		}
	}
}

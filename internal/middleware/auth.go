package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"clawe/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// TokenVerifier checks a bearer token issued by the external auth
// provider and returns the identity subject it carries. This codebase
// never issues tokens itself.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (subject string, err error)
}

// JWKSVerifier validates tokens against the auth provider's JWKS
// endpoint. Used when CLAWE_JWKS_URL is configured.
type JWKSVerifier struct {
	jwks *keyfunc.JWKS
}

func NewJWKSVerifier(jwksURL string) (*JWKSVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS from %s: %w", jwksURL, err)
	}
	return &JWKSVerifier{jwks: jwks}, nil
}

func (v *JWKSVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc)
	if err != nil {
		return "", err
	}
	return subjectFromToken(token)
}

// HMACVerifier validates tokens signed with a shared secret. Dev only.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}
	return subjectFromToken(token)
}

func subjectFromToken(token *jwt.Token) (string, error) {
	if !token.Valid {
		return "", fmt.Errorf("token not valid")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("missing subject in token")
	}
	return subject, nil
}

// ExtractBearerToken pulls the token out of an Authorization header.
// Returns "" when the header is missing or not a bearer credential.
func ExtractBearerToken(header string) string {
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}

// BearerAuth validates the Authorization header on every request and puts
// the subject into the request context.
func BearerAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			tokenString := ExtractBearerToken(header)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format")
			}

			subject, err := verifier.Verify(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			ctx := common.WithSubject(c.Request().Context(), subject)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

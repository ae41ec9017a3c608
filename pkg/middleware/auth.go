package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hermannafesehbuma/khalifa-auto/pkg/httputil"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/logger"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// AdminCookieName is the cookie Auth falls back to when no Authorization
// header is present.
const AdminCookieName = "admin_token"

// Claims represents the token claims extracted by the auth middleware.
type Claims struct {
	UserID string
	Email  string
}

// TokenValidator validates a token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

type adminClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator returns a TokenValidator that accepts HS256 tokens signed with
// secret. The subject claim is the user id.
func JWTValidator(secret []byte, issuer string) TokenValidator {
	return func(token string) (*Claims, error) {
		var claims adminClaims
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
		if issuer != "" {
			opts = append(opts, jwt.WithIssuer(issuer))
		}
		_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		if claims.Subject == "" {
			return nil, errors.New("token has no subject")
		}
		return &Claims{UserID: claims.Subject, Email: claims.Email}, nil
	}
}

// IssueJWT signs an HS256 token for userID. It is used by operators to mint
// admin tokens and by tests.
func IssueJWT(secret []byte, issuer, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := adminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Auth validates the bearer token (or the admin cookie) and stores the user
// id in the request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing credentials")
				return
			}

			claims, err := validate(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = logger.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if c, err := r.Cookie(AdminCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// RequireUser allows only the listed user ids through. It must be mounted
// after Auth.
func RequireUser(userIDs ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			allowed[id] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[UserIDFromContext(r.Context())]; !ok {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	httputil.WriteJSON(w, status, httputil.Response{
		Error: &httputil.ErrorResponse{Code: code, Message: message},
	})
}

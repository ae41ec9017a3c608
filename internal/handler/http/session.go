package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hermannafesehbuma/khalifa-auto/pkg/logger"
)

// SessionCookieName is the cookie carrying the signed shopper session.
const SessionCookieName = "storefront_session"

const sessionIssuer = "storefront"

// SessionConfig configures shopper session cookies.
type SessionConfig struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Sessions reads the signed session cookie or starts a new session, and
// stores the session id in the request context. The cart is keyed by it.
// A session past half its lifetime is re-issued with the same id, so an
// active shopper keeps the same cart.
func Sessions(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, expiresAt, err := readSession(r, cfg.Secret)
			if err != nil {
				sid = uuid.NewString()
			}
			if err != nil || time.Until(expiresAt) < cfg.TTL/2 {
				if err := setSessionCookie(w, cfg, sid); err != nil {
					writeJSON(w, http.StatusInternalServerError, response{
						Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
					})
					return
				}
			}

			ctx := logger.WithSessionID(r.Context(), sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func setSessionCookie(w http.ResponseWriter, cfg SessionConfig, sid string) error {
	token, err := issueSession(cfg.Secret, sid, cfg.TTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func readSession(r *http.Request, secret []byte) (string, time.Time, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", time.Time{}, err
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(c.Value, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(sessionIssuer),
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse session: %w", err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", time.Time{}, errors.New("session has no valid id")
	}
	return claims.Subject, claims.ExpiresAt.Time, nil
}

func issueSession(secret []byte, sid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func sessionID(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermannafesehbuma/khalifa-auto/pkg/logger"
)

func sessionEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(logger.SessionIDFromContext(r.Context())))
	})
}

func TestSessions_IssuesCookie(t *testing.T) {
	h := Sessions(SessionConfig{Secret: testSessionSecret, TTL: time.Hour, Secure: true})(sessionEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)

	_, err := uuid.Parse(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, rec.Body.String(), sessionIDFromCookie(t, c))
}

func TestSessions_ReusesValidCookie(t *testing.T) {
	h := Sessions(SessionConfig{Secret: testSessionSecret, TTL: time.Hour})(sessionEcho())
	sid := uuid.NewString()
	token, err := issueSession(testSessionSecret, sid, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Nil(t, sessionCookie(rec))
	assert.Equal(t, sid, rec.Body.String())
}

func TestSessions_ReplacesInvalidCookie(t *testing.T) {
	forged, err := issueSession([]byte("some-other-secret-0123456789abcdef"), uuid.NewString(), time.Hour)
	require.NoError(t, err)
	expired, err := issueSession(testSessionSecret, uuid.NewString(), -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", forged},
		{"expired", expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Sessions(SessionConfig{Secret: testSessionSecret, TTL: time.Hour})(sessionEcho())
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.value})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			c := sessionCookie(rec)
			require.NotNil(t, c)
			assert.NotEqual(t, tt.value, c.Value)
			assert.Equal(t, rec.Body.String(), sessionIDFromCookie(t, c))
		})
	}
}

func TestSessions_RejectsNonUUIDSubject(t *testing.T) {
	token, err := issueSession(testSessionSecret, "../../etc", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})

	_, _, err = readSession(r, testSessionSecret)
	assert.Error(t, err)
}

func TestSessions_RenewsAgingSessionWithSameID(t *testing.T) {
	h := Sessions(SessionConfig{Secret: testSessionSecret, TTL: time.Hour})(sessionEcho())
	sid := uuid.NewString()
	// Less than half the lifetime left.
	token, err := issueSession(testSessionSecret, sid, 20*time.Minute)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, sid, rec.Body.String())
	assert.Equal(t, sid, sessionIDFromCookie(t, c))

	renewed := httptest.NewRequest(http.MethodGet, "/", nil)
	renewed.AddCookie(c)
	_, expiresAt, err := readSession(renewed, testSessionSecret)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)
}

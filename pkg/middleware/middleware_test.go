package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitwise74/contacts-api/config"
	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth map[string]*model.User

func (f fakeAuth) Authenticate(_ context.Context, raw string) (*model.User, error) {
	if u, ok := f[raw]; ok {
		return u, nil
	}
	return nil, apperr.Unauthorized("Authorization token invalid")
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.Use(mw...)
	r.Any("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	r := newEngine(NewJWTMiddleware(fakeAuth{"good": {ID: "u1"}}))

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		userID string
	}{
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"bearer", "Bearer good", "", http.StatusOK, "u1"},
		{"lowercase scheme", "bearer good", "", http.StatusOK, "u1"},
		{"cookie", "", "good", http.StatusOK, "u1"},
		{"invalid", "Bearer bad", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tt.cookie})
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(requestIDHeader))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.userID, body["userID"])
			} else {
				assert.NotEmpty(t, body["error"])
				assert.NotEmpty(t, body["requestID"])
			}
		})
	}
}

func TestBodySizeLimiter(t *testing.T) {
	r := newEngine(BodySizeLimiter(8))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way more than eight bytes")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := newEngine(RateLimiterMiddleware(t.Context(), RateLimiterConfig{RequestsPerSecond: 1, Burst: 2}))

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterCleanupStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	v := rateLimiter(ctx, RateLimiterConfig{
		RequestsPerSecond: 1,
		CleanupInterval:   10 * time.Millisecond,
		TTL:               time.Millisecond,
	})

	v.get("10.0.0.1")
	assert.Eventually(t, func() bool { return v.size() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-v.done:
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine still running after cancel")
	}

	v.get("10.0.0.2")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, v.size())
}

func TestTurnstile(t *testing.T) {
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		_ = json.NewEncoder(w).Encode(turnstileResponse{Success: body["response"] == "human"})
	}))
	t.Cleanup(verifier.Close)

	r := newEngine(NewTurnstileMiddleware(TurnstileOpts{
		Config:    config.Turnstile{Enabled: true, SecretToken: "s"},
		VerifyURL: verifier.URL,
	}))

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("TurnstileToken", token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send(""))
	assert.Equal(t, http.StatusUnauthorized, send("robot"))
	assert.Equal(t, http.StatusOK, send("human"))

	disabled := newEngine(NewTurnstileMiddleware(TurnstileOpts{}))
	w := httptest.NewRecorder()
	disabled.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

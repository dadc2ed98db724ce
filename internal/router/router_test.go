package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/galactic-postbox/config"
	"github.com/oksasatya/galactic-postbox/internal/container"
	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/infrastructure/memory"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

func setupEngine(t *testing.T, withRedis bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	helpers.PasswordCost = bcrypt.MinCost

	cfg := config.Load()
	cfg.Env = "test"
	cfg.RateLimitEnabled = true
	cfg.DebugMetricsEnabled = true

	store := memory.NewStore()
	store.SeedCatalog(entity.DefaultCatalog())

	container.Reset()
	t.Cleanup(container.Reset)
	container.SetConfig(cfg)
	container.SetLogger(helpers.NewNopLogger())
	container.SetMemoryStore(store)
	if withRedis {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		container.SetRedis(rdb)
	}
	return NewEngine()
}

func call(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerToken(t *testing.T, r http.Handler, username, address string) string {
	t.Helper()
	w := call(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@postbox.test",
		"password": "secret1",
		"address":  gin.H{"address": address},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Token
}

func TestEngine_Routes(t *testing.T) {
	r := setupEngine(t, false)

	w := call(r, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = call(r, http.MethodGet, "/api/addresses", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, "/api/mail", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(r, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	token := registerToken(t, r, "alice", "Cloud City, Bespin System")
	w = call(r, http.MethodGet, "/api/mail/sent", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, "/api/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "postbox_http_requests_total")

	w = call(r, http.MethodGet, "/api/debug/vars", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEngine_LogoutRevokesToken(t *testing.T) {
	r := setupEngine(t, true)
	token := registerToken(t, r, "alice", "Cloud City, Bespin System")

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/auth/me", token, nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/api/auth/logout", token, nil).Code)

	for _, path := range []string{"/api/auth/me", "/api/mail", "/api/mail/sent"} {
		w := call(r, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestEngine_LoginRateLimited(t *testing.T) {
	r := setupEngine(t, true)

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last = call(r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "ghost", "password": "secret1"})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.True(t, strings.Contains(last.Body.String(), "Too many requests"))
}

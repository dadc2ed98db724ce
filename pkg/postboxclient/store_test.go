package postboxclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/galactic-postbox/config"
	"github.com/oksasatya/galactic-postbox/internal/container"
	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/infrastructure/memory"
	"github.com/oksasatya/galactic-postbox/internal/router"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
	"github.com/oksasatya/galactic-postbox/pkg/postboxclient"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	helpers.PasswordCost = bcrypt.MinCost

	cfg := config.Load()
	cfg.Env = "test"
	cfg.StoreDriver = "memory"
	cfg.RateLimitEnabled = false
	cfg.HTTPLogEnabled = false
	cfg.GCSBucket = ""

	store := memory.NewStore()
	store.SeedCatalog(entity.DefaultCatalog())

	container.Reset()
	container.SetConfig(cfg)
	container.SetLogger(helpers.NewNopLogger())
	container.SetMemoryStore(store)
	t.Cleanup(container.Reset)

	srv := httptest.NewServer(router.NewEngine())
	t.Cleanup(srv.Close)
	return srv
}

func registerReq(username, address string) postboxclient.RegisterRequest {
	return postboxclient.RegisterRequest{
		Username: username,
		Email:    username + "@postbox.test",
		Password: "secret1",
		Address:  postboxclient.Address{Address: address},
	}
}

func TestStore_EndToEnd(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	sessPath := filepath.Join(t.TempDir(), "session.json")

	catalog, err := postboxclient.New(srv.URL + "/api").Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, len(entity.DefaultCatalog()))

	alice := postboxclient.NewStore(postboxclient.New(srv.URL+"/api"), postboxclient.NewFileSession(sessPath))
	require.NoError(t, alice.Register(ctx, registerReq("alice", "Cloud City, Bespin System")))
	assert.Equal(t, "alice", alice.State().User.Username)

	bob := postboxclient.NewStore(postboxclient.New(srv.URL+"/api"), nil)
	require.NoError(t, bob.Register(ctx, registerReq("bob", "Zion, Machine City Underground")))

	m, err := alice.Send(ctx, postboxclient.SendRequest{
		RecipientAddress: "Zion, Machine City Underground",
		Subject:          "Red pill",
		Content:          "Follow the white rabbit.",
	})
	require.NoError(t, err)
	assert.Equal(t, "letter", m.Type)

	require.NoError(t, bob.LoadInbox(ctx, postboxclient.ListOptions{}))
	st := bob.State()
	require.Len(t, st.Inbox, 1)
	assert.EqualValues(t, 1, st.UnreadCount)
	assert.Equal(t, "alice", st.Inbox[0].Sender.Username)

	opened, err := bob.Open(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, opened.IsRead)
	st = bob.State()
	assert.EqualValues(t, 0, st.UnreadCount)
	assert.True(t, st.Inbox[0].IsRead)

	// alice is not the recipient; the failed action leaves her state alone
	before := alice.State()
	err = alice.Delete(ctx, m.ID)
	var apiErr *postboxclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Mail not found", apiErr.Message)
	after := alice.State()
	assert.Equal(t, before.Token, after.Token)
	assert.Equal(t, err, after.Err)

	require.NoError(t, bob.Delete(ctx, m.ID))
	assert.Empty(t, bob.State().Inbox)

	// a restart restores alice from the session file
	restored := postboxclient.NewStore(postboxclient.New(srv.URL+"/api"), postboxclient.NewFileSession(sessPath))
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, "alice", restored.State().User.Username)

	require.NoError(t, restored.Logout(ctx))
	assert.Empty(t, restored.State().Token)
	saved, err := postboxclient.NewFileSession(sessPath).Load()
	require.NoError(t, err)
	assert.Nil(t, saved)

	assert.ErrorIs(t, restored.LoadInbox(ctx, postboxclient.ListOptions{}), postboxclient.ErrNotLoggedIn)
}

func TestClient_ErrorsCarryServerMessage(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := postboxclient.New(srv.URL + "/api")

	_, _, err := c.Login(ctx, "ghost", "secret1")
	var apiErr *postboxclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)

	_, _, err = c.Register(ctx, postboxclient.RegisterRequest{Username: "al", Email: "bad"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.NotEmpty(t, apiErr.Fields)

	token, _, err := c.Register(ctx, registerReq("carol", "New Tokyo Bay, Sector 7"))
	require.NoError(t, err)
	c.Token = token
	_, err = c.Upload(ctx, "note.txt", strings.NewReader("hi"))
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)

	found, err := c.SearchAddresses(ctx, "tokyo", 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "carol", found[0].Username)
}

func TestStore_FailedActionKeepsState(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/auth/login":
			_, _ = w.Write([]byte(`{"success":true,"token":"tok","user":{"id":"u1","username":"neo"}}`))
		case r.URL.Path == "/mail" && calls == 2:
			_, _ = w.Write([]byte(`{"success":true,"mail":[{"id":"m1","subject":"hi"}],"pagination":{"page":1,"limit":50,"total":1,"pages":1},"unreadCount":1}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"message":"internal server error"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := postboxclient.NewStore(postboxclient.New(srv.URL), nil)
	require.NoError(t, s.Login(ctx, "neo", "secret1"))
	require.NoError(t, s.LoadInbox(ctx, postboxclient.ListOptions{}))

	err := s.LoadInbox(ctx, postboxclient.ListOptions{Page: 2})
	require.Error(t, err)
	st := s.State()
	assert.Len(t, st.Inbox, 1)
	assert.EqualValues(t, 1, st.UnreadCount)
	assert.Equal(t, "tok", st.Token)

	var apiErr *postboxclient.APIError
	require.True(t, errors.As(st.Err, &apiErr))
	assert.Equal(t, "internal server error", apiErr.Message)
}

func TestStore_RestoreDropsRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Token is not valid"}`))
	}))
	defer srv.Close()

	sess := postboxclient.NewFileSession(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, sess.Save(postboxclient.SessionData{Token: "stale"}))

	s := postboxclient.NewStore(postboxclient.New(srv.URL), sess)
	require.Error(t, s.Restore(context.Background()))
	assert.Empty(t, s.State().Token)
	saved, err := sess.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

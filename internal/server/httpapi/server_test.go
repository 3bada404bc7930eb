package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rakgl/Own-Pro-Api/internal/common"
	"github.com/Rakgl/Own-Pro-Api/internal/logging"
	"github.com/Rakgl/Own-Pro-Api/internal/server/auth"
	"github.com/Rakgl/Own-Pro-Api/internal/server/config"
	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
	"github.com/Rakgl/Own-Pro-Api/internal/server/services"
	"github.com/Rakgl/Own-Pro-Api/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

type fakeAuth struct {
	loginFn        func(ctx context.Context, username, password string, client services.ClientInfo) (*services.TokenPair, error)
	refreshFn      func(ctx context.Context, secret string, client services.ClientInfo) (*services.TokenPair, error)
	logoutFn       func(ctx context.Context, user *models.User, tokenID string, client services.ClientInfo) error
	authenticateFn func(ctx context.Context, token string) (*models.User, *auth.Claims, error)
	permissionsFn  func(ctx context.Context, userID string) ([]string, error)
}

func (f *fakeAuth) Login(ctx context.Context, username, password string, client services.ClientInfo) (*services.TokenPair, error) {
	return f.loginFn(ctx, username, password, client)
}

func (f *fakeAuth) Refresh(ctx context.Context, secret string, client services.ClientInfo) (*services.TokenPair, error) {
	return f.refreshFn(ctx, secret, client)
}

func (f *fakeAuth) Logout(ctx context.Context, user *models.User, tokenID string, client services.ClientInfo) error {
	return f.logoutFn(ctx, user, tokenID, client)
}

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	return f.authenticateFn(ctx, token)
}

func (f *fakeAuth) Permissions(ctx context.Context, userID string) ([]string, error) {
	return f.permissionsFn(ctx, userID)
}

var testPair = &services.TokenPair{
	AccessToken:  "header.payload.sig",
	TokenType:    "Bearer",
	ExpiresIn:    7200,
	RefreshToken: strings.Repeat("ab", 32),
	UserID:       "user-1",
}

var testUser = &models.User{ID: "user-1", Username: "admin", Status: models.UserStatusActive}

func authedFake() *fakeAuth {
	return &fakeAuth{
		authenticateFn: func(_ context.Context, token string) (*models.User, *auth.Claims, error) {
			if token != "valid-token" {
				return nil, nil, common.ErrorUnauthorized
			}
			return testUser, &auth.Claims{UserID: "user-1", TokenID: "refresh-rec-1", Scope: "admin"}, nil
		},
	}
}

func newTestServer(t *testing.T, fake *fakeAuth) (*Server, *sessions.Store) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	store := sessions.NewStore(nil)
	return NewServer(cfg, fake, store, nopLogger{}), store
}

func do(t *testing.T, srv *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

// ---- login ----

func TestLoginEndpoint(t *testing.T) {
	fake := authedFake()
	var gotClient services.ClientInfo
	fake.loginFn = func(_ context.Context, username, password string, client services.ClientInfo) (*services.TokenPair, error) {
		gotClient = client
		if username == "admin" && password == "s3cret" {
			return testPair, nil
		}
		return nil, common.ErrInvalidCredentials
	}
	srv, store := newTestServer(t, fake)

	t.Run("success", func(t *testing.T) {
		guest, err := store.Create(context.Background(), "")
		require.NoError(t, err)

		header := http.Header{}
		header.Set("User-Agent", "Mozilla/5.0")
		header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		header.Set("Cookie", "admin_session="+guest.ID)
		rec := do(t, srv, http.MethodPost, "/login", `{"username":"admin","password":"s3cret"}`, header)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Login successfully.", body["message"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Bearer", data["token_type"])
		assert.Equal(t, float64(7200), data["expires_in"])
		assert.Len(t, data["refresh_token"], 64)

		assert.Equal(t, "203.0.113.7", gotClient.IP)
		assert.Equal(t, "Mozilla/5.0", gotClient.UserAgent)

		// the guest session is replaced by a fresh authenticated one
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "admin_session", cookies[0].Name)
		assert.NotEqual(t, guest.ID, cookies[0].Value)
		_, err = store.Get(context.Background(), guest.ID)
		assert.ErrorIs(t, err, common.ErrorNotFound)
		sess, err := store.Get(context.Background(), cookies[0].Value)
		require.NoError(t, err)
		assert.Equal(t, "user-1", sess.UserID)
	})

	t.Run("no cookie for pure API callers", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/login", `{"username":"admin","password":"s3cret"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("bad credentials", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/login", `{"username":"admin","password":"nope"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Incorrect username or password."}`, rec.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, body := range []string{``, `{}`, `{"username":"admin"}`, `{"password":"x"}`, `not json`} {
			rec := do(t, srv, http.MethodPost, "/login", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
			assert.JSONEq(t, `{"success":false,"message":"Username and password are required."}`, rec.Body.String())
		}
	})
}

func TestLoginRateLimitedEndpoint(t *testing.T) {
	fake := authedFake()
	fake.loginFn = func(context.Context, string, string, services.ClientInfo) (*services.TokenPair, error) {
		return nil, &services.RateLimitedError{RetryAfter: 42 * time.Second}
	}
	srv, _ := newTestServer(t, fake)

	rec := do(t, srv, http.MethodPost, "/login", `{"username":"admin","password":"s3cret"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Too many login attempts. Please try again in 42 seconds."}`, rec.Body.String())
}

func TestLoginInternalErrorEndpoint(t *testing.T) {
	fake := authedFake()
	fake.loginFn = func(context.Context, string, string, services.ClientInfo) (*services.TokenPair, error) {
		return nil, common.ErrorInternal
	}
	srv, _ := newTestServer(t, fake)

	rec := do(t, srv, http.MethodPost, "/login", `{"username":"admin","password":"s3cret"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Login failed. Please try again."}`, rec.Body.String())
}

// ---- refresh ----

func TestRefreshEndpoint(t *testing.T) {
	fake := authedFake()
	fake.refreshFn = func(_ context.Context, secret string, _ services.ClientInfo) (*services.TokenPair, error) {
		switch secret {
		case "good-secret":
			return testPair, nil
		case "orphan-secret":
			return nil, common.ErrInactiveUser
		case "broken-secret":
			return nil, common.ErrorInternal
		default:
			return nil, common.ErrInvalidRefreshToken
		}
	}
	srv, _ := newTestServer(t, fake)

	t.Run("success", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/refresh", `{"refresh_token":"good-secret"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Refresh token successfully.", body["message"])
		data := body["data"].(map[string]any)
		assert.Equal(t, testPair.RefreshToken, data["refresh_token"])
	})

	t.Run("missing token", func(t *testing.T) {
		for _, body := range []string{``, `{}`, `{"refresh_token":""}`} {
			rec := do(t, srv, http.MethodPost, "/refresh", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"success":false,"message":"Refresh token is required."}`, rec.Body.String())
		}
	})

	t.Run("dead token", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/refresh", `{"refresh_token":"revoked-secret"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Invalid or expired refresh token."}`, rec.Body.String())
	})

	t.Run("inactive owner", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/refresh", `{"refresh_token":"orphan-secret"}`, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Invalid or inactive user."}`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/refresh", `{"refresh_token":"broken-secret"}`, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Token refresh failed. Please try again."}`, rec.Body.String())
	})
}

// ---- logout ----

func TestLogoutEndpoint(t *testing.T) {
	fake := authedFake()
	var revokedTokenID string
	fake.logoutFn = func(_ context.Context, user *models.User, tokenID string, _ services.ClientInfo) error {
		revokedTokenID = tokenID
		return nil
	}
	srv, store := newTestServer(t, fake)

	sess, err := store.Create(context.Background(), "user-1")
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer valid-token")
	header.Set("Cookie", "admin_session="+sess.ID)
	rec := do(t, srv, http.MethodPost, "/logout", "", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Logout successfully."}`, rec.Body.String())
	assert.Equal(t, "refresh-rec-1", revokedTokenID)

	// the web session is gone and the cookie is expired
	_, err = store.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_session", cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLogoutRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t, authedFake())

	t.Run("no token", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/logout", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Not authenticated."}`, rec.Body.String())
	})

	t.Run("dead token", func(t *testing.T) {
		header := http.Header{}
		header.Set("Authorization", "Bearer revoked-token")
		rec := do(t, srv, http.MethodPost, "/logout", "", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Not authenticated."}`, rec.Body.String())
	})
}

// ---- authenticated reads ----

func TestInfoEndpoint(t *testing.T) {
	fake := authedFake()
	fake.permissionsFn = func(_ context.Context, userID string) ([]string, error) {
		assert.Equal(t, "user-1", userID)
		return []string{"user.create", "user.delete"}, nil
	}
	srv, _ := newTestServer(t, fake)

	header := http.Header{}
	header.Set("Authorization", "Bearer valid-token")
	rec := do(t, srv, http.MethodGet, "/info", "", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "admin", user["username"])
	assert.Equal(t, []any{"user.create", "user.delete"}, data["permissions"])
}

func TestUserAndCheckEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, authedFake())
	header := http.Header{}
	header.Set("Authorization", "Bearer valid-token")

	for _, path := range []string{"/user", "/check"} {
		rec := do(t, srv, http.MethodGet, path, "", header)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		body := decodeBody(t, rec)
		data := body["data"].(map[string]any)
		assert.Equal(t, "user-1", data["id"], path)
		assert.Equal(t, "ACTIVE", data["status"], path)
	}

	// reads are protected too
	rec := do(t, srv, http.MethodGet, "/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenParsing(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer ", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, bearerToken(r), "header %q", tt.header)
	}
}

package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ModelRegistry...))
	return db
}

func newTestRouter(t *testing.T) *router.RouterService {
	t.Helper()

	logger := log.NewLoggerWithJSONOutput()
	issuer, err := token.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewAuthController(openTestDB(t), logger, issuer, CookieSettings{Name: "waitlist_session"}, 100))
	return rs
}

func do(t *testing.T, rs *router.RouterService, method, path string, body any, mutate func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestAuthController_RegisterLoginSession(t *testing.T) {
	rs := newTestRouter(t)

	w, env := do(t, rs, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "Owner@Example.com",
		"password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "owner@example.com", user.Email)

	w, env = do(t, rs, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "owner@example.com",
		"password": "another1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MessageEmailTaken, env.Error)

	w, env = do(t, rs, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "owner@example.com",
		"password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.NotEmpty(t, login.Token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "waitlist_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	t.Run("session from bearer header", func(t *testing.T) {
		w, env := do(t, rs, http.MethodGet, "/api/auth/session", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+login.Token)
		})
		require.Equal(t, http.StatusOK, w.Code)

		var session SessionResponse
		require.NoError(t, json.Unmarshal(env.Data, &session))
		assert.Equal(t, user.ID, session.User.ID)
	})

	t.Run("session from cookie", func(t *testing.T) {
		w, env := do(t, rs, http.MethodGet, "/api/auth/session", nil, func(r *http.Request) {
			r.AddCookie(cookies[0])
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, "null", string(env.Data))
	})

	t.Run("no session is null", func(t *testing.T) {
		w, env := do(t, rs, http.MethodGet, "/api/auth/session", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("garbage token is no session", func(t *testing.T) {
		_, env := do(t, rs, http.MethodGet, "/api/auth/session", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not-a-token")
		})
		assert.Equal(t, "null", string(env.Data))
	})
}

func TestAuthController_LoginRejectsBadCredentials(t *testing.T) {
	rs := newTestRouter(t)

	w, env := do(t, rs, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "secret1",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MessageInvalidCredentials, env.Error)
}

func TestAuthController_RegisterValidation(t *testing.T) {
	rs := newTestRouter(t)

	w, env := do(t, rs, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "not-an-email",
		"password": "123",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MessageInvalidPayload, env.Message)
	assert.NotEqual(t, "null", string(env.Data))
}

func TestAuthController_LogoutClearsCookie(t *testing.T) {
	rs := newTestRouter(t)

	w, _ := do(t, rs, http.MethodPost, "/api/auth/logout", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "waitlist_session", cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}

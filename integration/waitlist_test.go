package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/domain"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/storage"
	"github.com/akeren/waitlist-foundry/pkg/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type WaitlistAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	server    *httptest.Server
	baseURL   string
	client    *http.Client
	logger    *log.Logger
	appConfig *config.ApplicationConfig
}

func (suite *WaitlistAPITestSuite) SetupSuite() {
	var err error
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	suite.db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	err = suite.db.AutoMigrate(models.ModelRegistry...)
	suite.Require().NoError(err)

	suite.logger = log.NewLoggerWithJSONOutput()

	tokens, err := token.NewIssuer("integration-secret", time.Hour)
	suite.Require().NoError(err)

	store, err := storage.NewLocalStore(suite.T().TempDir(), "/uploads")
	suite.Require().NoError(err)

	suite.appConfig = &config.ApplicationConfig{
		DB:      suite.db,
		Logger:  suite.logger,
		Storage: store,
		Tokens:  tokens,
		Config: &config.AppConfig{
			SubscribeRatePerMin: 1000,
			AuthRatePerMin:      1000,
			PublicBaseURL:       "https://waitlists.example.com",
			PublicCacheTTL:      time.Minute,
			Auth:                &config.AuthConfig{CookieName: "waitlist_session"},
		},
	}

	suite.appConfig.RouterService = router.CreateRouterService(suite.logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	})

	domain.SetupCoreDomain(suite.appConfig)

	suite.server = httptest.NewServer(suite.appConfig.RouterService.GetEngine())
	suite.baseURL = suite.server.URL
}

func (suite *WaitlistAPITestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *WaitlistAPITestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM subscribers")
	suite.db.Exec("DELETE FROM waitlists")
	suite.db.Exec("DELETE FROM users")

	jar, err := cookiejar.New(nil)
	suite.Require().NoError(err)
	suite.client = &http.Client{Jar: jar}
}

func (suite *WaitlistAPITestSuite) call(method, path string, body any) (int, envelope) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.client.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (suite *WaitlistAPITestSuite) decode(raw json.RawMessage, into any) {
	suite.Require().NoError(json.Unmarshal(raw, into))
}

func (suite *WaitlistAPITestSuite) signIn(email string) {
	status, _ := suite.call(http.MethodPost, "/api/auth/register", map[string]string{"email": email, "password": "secret1"})
	suite.Require().Equal(http.StatusCreated, status)

	status, env := suite.call(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "secret1"})
	suite.Require().Equal(http.StatusOK, status, env.Error)
}

func (suite *WaitlistAPITestSuite) createWaitlist(slug, title string) string {
	status, env := suite.call(http.MethodPost, "/api/waitlists", map[string]string{"slug": slug, "title": title})
	suite.Require().Equal(http.StatusCreated, status, env.Error)

	var created struct {
		ID string `json:"id"`
	}
	suite.decode(env.Data, &created)
	return created.ID
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	status, env := suite.call(http.MethodGet, "/health", nil)

	suite.Equal(http.StatusOK, status)
	suite.Contains(env.Message, "health check completed")

	var data map[string]int
	suite.decode(env.Data, &data)
	suite.Equal(1, data["database"])
	suite.Equal(1, data["storage"])
	suite.Equal(0, data["cache"])
}

func (suite *WaitlistAPITestSuite) TestDashboardRequiresSession() {
	status, env := suite.call(http.MethodGet, "/api/waitlists", nil)
	suite.Equal(http.StatusUnauthorized, status)
	suite.Equal("Non authentifié", env.Error)

	status, env = suite.call(http.MethodGet, "/api/auth/session", nil)
	suite.Equal(http.StatusOK, status)
	suite.Equal("null", string(env.Data))
}

func (suite *WaitlistAPITestSuite) TestCreateWaitlistAndDuplicateSlug() {
	suite.signIn("owner@example.com")

	status, env := suite.call(http.MethodPost, "/api/waitlists", map[string]string{"slug": "acme-app", "title": "Acme"})
	suite.Require().Equal(http.StatusCreated, status, env.Error)

	var created map[string]any
	suite.decode(env.Data, &created)
	suite.Equal("Acme", created["headline"])
	suite.Equal("dark-modern", created["theme"])

	status, env = suite.call(http.MethodPost, "/api/waitlists", map[string]string{"slug": "acme-app", "title": "Other"})
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("Ce slug est déjà utilisé", env.Error)

	status, env = suite.call(http.MethodGet, "/api/waitlists/check-slug?slug=acme-app", nil)
	suite.Equal(http.StatusOK, status)
	var availability map[string]any
	suite.decode(env.Data, &availability)
	suite.Equal(false, availability["available"])
	suite.Equal("taken", availability["reason"])
}

func (suite *WaitlistAPITestSuite) TestSubscriptionPositions() {
	suite.signIn("owner@example.com")
	id := suite.createWaitlist("acme-app", "Acme")

	for i, email := range []string{"a@x.com", "b@x.com"} {
		status, env := suite.call(http.MethodPost, "/api/subscribe", map[string]string{"waitlistId": id, "email": email})
		suite.Require().Equal(http.StatusCreated, status, env.Error)
		suite.Equal("Inscription réussie", env.Message)

		var result struct {
			Position int `json:"position"`
		}
		suite.decode(env.Data, &result)
		suite.Equal(i+1, result.Position)
	}

	status, env := suite.call(http.MethodPost, "/api/subscribe", map[string]string{"waitlistId": id, "email": "b@x.com"})
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("Cet email est déjà inscrit à cette waitlist", env.Error)

	status, env = suite.call(http.MethodGet, "/api/public/waitlists/acme-app", nil)
	suite.Require().Equal(http.StatusOK, status)
	var page map[string]any
	suite.decode(env.Data, &page)
	suite.Equal(float64(2), page["subscriberCount"])

	status, env = suite.call(http.MethodGet, "/api/waitlists/"+id+"/subscribers", nil)
	suite.Require().Equal(http.StatusOK, status)
	var subscribers []map[string]any
	suite.decode(env.Data, &subscribers)
	suite.Require().Len(subscribers, 2)
	suite.Equal("a@x.com", subscribers[0]["email"])
}

func (suite *WaitlistAPITestSuite) TestExportShareAndDelete() {
	suite.signIn("owner@example.com")
	id := suite.createWaitlist("acme-app", "Acme")

	status, _ := suite.call(http.MethodPost, "/api/subscribe", map[string]string{"waitlistId": id, "email": "a@x.com", "name": "Ada"})
	suite.Require().Equal(http.StatusCreated, status)

	resp, err := suite.client.Get(suite.baseURL + "/api/waitlists/" + id + "/subscribers/export")
	suite.Require().NoError(err)
	csvBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	suite.Require().NoError(err)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(resp.Header.Get("Content-Disposition"), "subscribers-"+id+".csv")
	suite.True(strings.HasPrefix(string(csvBody), "Position,Email,Nom,Entreprise,Date d'inscription"))
	suite.Contains(string(csvBody), "1,a@x.com,Ada,")

	status, env := suite.call(http.MethodGet, "/api/waitlists/"+id+"/share", nil)
	suite.Require().Equal(http.StatusOK, status)
	var links map[string]string
	suite.decode(env.Data, &links)
	suite.Equal("https://waitlists.example.com/w/acme-app", links["publicUrl"])

	status, _ = suite.call(http.MethodDelete, "/api/waitlists/"+id, nil)
	suite.Equal(http.StatusOK, status)

	status, env = suite.call(http.MethodGet, "/api/public/waitlists/acme-app", nil)
	suite.Equal(http.StatusNotFound, status)
	suite.Equal("Waitlist non trouvée", env.Error)

	var remaining int64
	suite.db.Model(&models.Subscriber{}).Count(&remaining)
	suite.Equal(int64(0), remaining)
}

func (suite *WaitlistAPITestSuite) TestOtherOwnersWaitlistIsHidden() {
	suite.signIn("first@example.com")
	id := suite.createWaitlist("first-list", "First")

	jar, err := cookiejar.New(nil)
	suite.Require().NoError(err)
	suite.client = &http.Client{Jar: jar}
	suite.signIn("second@example.com")

	status, env := suite.call(http.MethodGet, "/api/waitlists/"+id, nil)
	suite.Equal(http.StatusNotFound, status)
	suite.Equal("Waitlist non trouvée", env.Error)
}

func TestWaitlistAPISuite(t *testing.T) {
	// Skip integration tests unless explicitly requested
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration tests. Set RUN_INTEGRATION_TESTS=true to run them")
	}

	suite.Run(t, new(WaitlistAPITestSuite))
}

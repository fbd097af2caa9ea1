package integration_test

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/seat-booking-engine/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	app        *TestApp
	containers *containers
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	c, err := startContainers(ctx)
	if err != nil {
		s.T().Fatalf("failed to start containers: %s", err)
	}
	s.containers = c

	cfg := app.Config{
		Port: 3000,
		Env:  "test",
		DB: app.DBConfig{
			DSN:          c.dbDSN,
			MaxOpenConns: 25,
			MaxIdleTime:  2 * time.Minute,
		},
		Redis: app.RedisConfig{
			URL:          c.redisAddr,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			MaxIdleTime:  2 * time.Minute,
		},
		Booking: app.BookingConfig{
			HoldTTL:     5 * time.Minute,
			UnitPrice:   200,
			Currency:    "inr",
			CASAttempts: 2,
			ClaimLease:  2 * time.Minute,
			CartStore:   "postgres",
		},
	}

	testApp, err := newTestApp(cfg)
	if err != nil {
		s.T().Fatalf("cannot initialize app: %s", err)
	}

	s.app = testApp
}

func (s *BaseSuite) SetupTest() {
	resetDatabase(s.T(), s.app.DB)
}

func (s *BaseSuite) TearDownSuite() {
	if s.app != nil {
		s.app.Close()
	}
	if s.containers == nil {
		return
	}
	if err := s.containers.terminate(); err != nil {
		log.Printf("failed to terminate containers: %s", err)
	}
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	ExpectedStatus   int
	ExpectedResponse string
	// BeforeTestFunc returns the session cookie the request is sent with, or nil.
	BeforeTestFunc func(t testing.TB, app *TestApp) *http.Cookie
	AfterTestFunc  func(t testing.TB, app *TestApp, res *http.Response)
}

func (s Scenario) Run(t *testing.T, testApp *TestApp) {
	t.Run(s.Name, func(t *testing.T) {
		resetDatabase(t, testApp.DB)

		var cookie *http.Cookie
		if s.BeforeTestFunc != nil {
			cookie = s.BeforeTestFunc(t, testApp)
		}

		req, err := prepareRequest(s.Method, s.URL, s.Body, s.Headers, cookie)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		testApp.App.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, s.ExpectedStatus, res.StatusCode)

		if s.ExpectedResponse != "" {
			compareResponse(t, res.Body, s.ExpectedResponse)
		}

		if s.AfterTestFunc != nil {
			s.AfterTestFunc(t, testApp, res)
		}
	})
}

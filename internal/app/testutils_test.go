package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/metinatakli/seat-booking-engine/internal/clock"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/metinatakli/seat-booking-engine/internal/mocks"
	"github.com/metinatakli/seat-booking-engine/internal/validator"
)

const (
	testMovieID = 1
	otherMovie  = 2
)

var testNow = time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)

type testDeps struct {
	clock     *clock.Fake
	seats     *mocks.InMemorySeatStore
	carts     *mocks.InMemoryCartStore
	checkouts *mocks.InMemoryCheckoutRepo
	ledger    *mocks.InMemoryLedger
	gateway   *mocks.MockPaymentProvider
	notifier  *mocks.MockNotifier
	redis     *mocks.MockRedisClient
}

func newTestDeps() *testDeps {
	return &testDeps{
		clock:     clock.NewFake(testNow),
		seats:     mocks.NewInMemorySeatStore(),
		carts:     mocks.NewInMemoryCartStore(),
		checkouts: mocks.NewInMemoryCheckoutRepo(),
		ledger:    mocks.NewInMemoryLedger(),
		gateway:   new(mocks.MockPaymentProvider),
		notifier:  &mocks.MockNotifier{},
		redis:     new(mocks.MockRedisClient),
	}
}

func testConfig() Config {
	return Config{
		Port: 3000,
		Env:  "test",
		Booking: BookingConfig{
			HoldTTL:     5 * time.Minute,
			UnitPrice:   200,
			Currency:    "inr",
			CASAttempts: 2,
			ClaimLease:  2 * time.Minute,
			CartStore:   "postgres",
		},
	}
}

func newTestApplication(deps *testDeps, opts ...func(*Application)) *Application {
	app := NewApp(
		testConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		deps.redis,
		validator.NewValidator(),
		scs.New(),
		deps.clock,
		mocks.StaticMovies(
			domain.Movie{ID: testMovieID, Title: "Interstellar"},
			domain.Movie{ID: otherMovie, Title: "Inception"},
		),
		deps.seats,
		deps.carts,
		deps.checkouts,
		deps.ledger,
		deps.gateway,
		deps.notifier,
	)

	for _, opt := range opts {
		opt(app)
	}

	return app
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader = http.NoBody

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// browser replays the session cookie across requests like a real client.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newBrowser(t *testing.T, app *Application) *browser {
	return &browser{t: t, handler: app.Routes()}
}

func (b *browser) do(method, url string, body any) *httptest.ResponseRecorder {
	w, r := executeRequest(b.t, method, url, body)
	if b.cookie != nil {
		r.AddCookie(b.cookie)
	}

	b.handler.ServeHTTP(w, r)

	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			b.cookie = c
		}
	}

	return w
}

// sessionID returns the hold owner identity of the browser, creating the
// session on first use.
func (b *browser) sessionID() string {
	if b.cookie == nil {
		b.do(http.MethodGet, "/cart", nil)
	}

	if b.cookie == nil {
		b.t.Fatal("no session cookie issued")
	}

	return b.cookie.Value
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return v
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		if len(validationResp.ValidationErrors) == 0 {
			if tt.wantErrMessage != "" && validationResp.Message != tt.wantErrMessage {
				t.Errorf("Error message = %v, want %v", validationResp.Message, tt.wantErrMessage)
			}
			return
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp":     {},
	"requestId":     {},
	"holdExpiresAt": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string, cookie *http.Cookie) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if cookie != nil {
		req.AddCookie(cookie)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}

		switch nested := m[k].(type) {
		case map[string]any:
			cleanMap(nested)
		case []any:
			for _, item := range nested {
				if im, ok := item.(map[string]any); ok {
					cleanMap(im)
				}
			}
		}
	}
}

func resetDatabase(t testing.TB, db *pgxpool.Pool) {
	_, err := db.Exec(context.Background(),
		`TRUNCATE bookings, checkouts, session_cart_items, seats, movies RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// seedMovie inserts movie 1 with the test seats, numbered from id 1.
func seedMovie(t testing.TB, db *pgxpool.Pool) (int, []int) {
	ctx := context.Background()

	var movieID int
	err := db.QueryRow(ctx,
		`INSERT INTO movies (title, genre, language) VALUES ($1, $2, $3) RETURNING id`,
		TestMovieTitle, TestMovieGenre, TestMovieLanguage,
	).Scan(&movieID)
	require.NoError(t, err)

	seatIDs := make([]int, len(TestSeatNumbers))
	for i, number := range TestSeatNumbers {
		err = db.QueryRow(ctx,
			`INSERT INTO seats (movie_id, seat_number) VALUES ($1, $2) RETURNING id`,
			movieID, number,
		).Scan(&seatIDs[i])
		require.NoError(t, err)
	}

	return movieID, seatIDs
}

func seatStatus(t testing.TB, db *pgxpool.Pool, seatID int) string {
	var status string
	err := db.QueryRow(context.Background(), `SELECT status FROM seats WHERE id = $1`, seatID).Scan(&status)
	require.NoError(t, err)
	return status
}

// newSession opens a browser session and returns its cookie.
func newSession(t testing.TB, app *TestApp) *http.Cookie {
	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}

	t.Fatal("no session cookie issued")
	return nil
}

// do sends a request as the session owning cookie.
func do(t testing.TB, app *TestApp, method, path string, body io.Reader, cookie *http.Cookie) *httptest.ResponseRecorder {
	req, err := prepareRequest(method, path, body, nil, cookie)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	return rec
}

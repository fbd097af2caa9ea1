package app

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/seat-booking-engine/internal/jsonutil"
)

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	return jsonutil.WriteJSON(w, status, data, headers)
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return jsonutil.ReadJSON(w, r, dst)
}

// readIDParam parses a positive integer URL parameter.
func readIDParam(r *http.Request, name, label string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s ID must be greater than zero", label)
	}

	return id, nil
}

// runInBackground runs fn after the response is sent. Panics are recovered and
// logged; shutdown waits for running tasks.
func (app *Application) runInBackground(fn func()) {
	app.background.Add(1)

	go func() {
		defer app.background.Done()

		defer func() {
			if err := recover(); err != nil {
				app.logger.Error(fmt.Sprintf("%v", err))
			}
		}()

		fn()
	}()
}

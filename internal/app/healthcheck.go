package app

import (
	"context"
	"net/http"
	"time"
)

func (app *Application) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	// Holds, sessions and carts are unusable without Redis.
	err := app.redis.Ping(ctx).Err()
	if err != nil {
		app.logger.Error("healthcheck: redis unreachable", "error", err)
		status = "DOWN"
		code = http.StatusServiceUnavailable
	}

	resp := HealthcheckResponse{
		Status: status,
		SystemInfo: SystemInfo{
			Version:     version,
			Environment: app.config.Env,
		},
	}

	err = app.writeJSON(w, code, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

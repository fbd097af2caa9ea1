package app

import (
	"log/slog"
	"net/http"
)

type sessionKey string

const (
	SessionKeyGuest  = sessionKey("guest")
	SessionKeyLogger = sessionKey("logger")
)

func (s sessionKey) String() string {
	return string(s)
}

// sessionID is the hold owner identity: the scs token of the browser session.
func (app *Application) sessionID(r *http.Request) string {
	return app.sessionManager.Token(r.Context())
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(SessionKeyLogger).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}

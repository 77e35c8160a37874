package httpapi

import (
	"database/sql"
	"net/http"

	"lorasense/internal/deadletter"
	"lorasense/internal/formatter"
	"lorasense/internal/metrics"
)

type Deps struct {
	DB        *sql.DB
	MQTT      ConnectionStatus
	Formatter *formatter.Formatter
	// DeadLetters is nil when dead letters are disabled; the routes are
	// then not registered.
	DeadLetters deadletter.Repository
	Metrics     *metrics.Metrics
}

func NewMux(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, deps.DB, deps.MQTT)
	if deps.Formatter != nil {
		registerFrames(mux, deps.Formatter)
	}
	if deps.DeadLetters != nil {
		registerDeadLetters(mux, deps.DeadLetters)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
	return mux
}

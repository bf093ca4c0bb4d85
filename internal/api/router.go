package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lightcade/lightcade/internal/api/handler"
	"github.com/lightcade/lightcade/internal/middleware"
	"github.com/lightcade/lightcade/internal/services/ledger"
	"github.com/lightcade/lightcade/internal/services/relay"
	"github.com/lightcade/lightcade/internal/services/slots"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	SlotRegistry *slots.Service
	ScoreLedger  *ledger.Service
	ScoreRelay   *relay.Relay
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	slotHandler := handler.NewSlotHandler(cfg.SlotRegistry)
	scoreHandler := handler.NewScoreHandler(cfg.SlotRegistry, cfg.ScoreLedger, cfg.ScoreRelay)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))
	api.Use(middleware.Logging(cfg.Logger))

	// Slot routes
	api.HandleFunc("/slots", slotHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/slots/{index}/device", slotHandler.AssignDevice).Methods(http.MethodPut)
	api.HandleFunc("/slots/{index}/login", slotHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/slots/{index}/guest", slotHandler.SetGuest).Methods(http.MethodPost)
	api.HandleFunc("/slots/{index}/logout", slotHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/devices/{index}/identity", slotHandler.ResolveDevice).Methods(http.MethodGet)

	// Score routes
	api.HandleFunc("/slots/{index}/scores", scoreHandler.Submit).Methods(http.MethodPost)
	api.HandleFunc("/slots/{index}/best", scoreHandler.Best).Methods(http.MethodGet)
	api.HandleFunc("/scores/queue", scoreHandler.QueueLength).Methods(http.MethodGet)
	api.HandleFunc("/connectivity/restored", scoreHandler.ConnectivityRestored).Methods(http.MethodPost)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

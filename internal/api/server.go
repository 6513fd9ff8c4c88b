// Package api exposes the user-interaction surface over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/leafcare/planty/internal/analyze"
	"github.com/leafcare/planty/internal/care"
	"github.com/leafcare/planty/internal/logging"
	"github.com/leafcare/planty/internal/photos"
	"github.com/leafcare/planty/internal/refresh"
	"github.com/leafcare/planty/internal/store"
	"github.com/leafcare/planty/internal/wikimedia"
)

// Server wires the HTTP handlers to the care engine and its collaborators.
// Analyzer may be nil when no API key is configured; plant registration then
// answers 503, everything else keeps working.
type Server struct {
	store     *store.Store
	sync      *care.Synchronizer
	completer *care.Completer
	worker    *refresh.Worker
	analyzer  *analyze.Client
	wiki      *wikimedia.Client
	photos    *photos.Dir
	now       func() time.Time
}

func NewServer(st *store.Store, sync *care.Synchronizer, completer *care.Completer, worker *refresh.Worker, analyzer *analyze.Client, wiki *wikimedia.Client, photoDir *photos.Dir) *Server {
	return &Server{
		store:     st,
		sync:      sync,
		completer: completer,
		worker:    worker,
		analyzer:  analyzer,
		wiki:      wiki,
		photos:    photoDir,
		now:       time.Now,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/plants", s.handleListPlants).Methods(http.MethodGet)
	api.HandleFunc("/plants", s.handleCreatePlant).Methods(http.MethodPost)
	api.HandleFunc("/plants/search", s.handleSearchPlants).Methods(http.MethodGet)
	api.HandleFunc("/plants/{id:[0-9]+}", s.handleGetPlant).Methods(http.MethodGet)
	api.HandleFunc("/plants/{id:[0-9]+}", s.handleUpdatePlant).Methods(http.MethodPatch)
	api.HandleFunc("/plants/{id:[0-9]+}", s.handleDeletePlant).Methods(http.MethodDelete)
	api.HandleFunc("/plants/{id:[0-9]+}/care", s.handleCarePlant).Methods(http.MethodPost)
	api.HandleFunc("/plants/{id:[0-9]+}/diary", s.handleListDiary).Methods(http.MethodGet)
	api.HandleFunc("/plants/{id:[0-9]+}/diary", s.handleAddDiary).Methods(http.MethodPost)
	api.HandleFunc("/diary/{id:[0-9]+}", s.handleDeleteDiary).Methods(http.MethodDelete)

	api.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.handleAddCustomTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.handleDeleteTasks).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id:[0-9]+}/toggle", s.handleToggleTask).Methods(http.MethodPost)

	api.HandleFunc("/home", s.handleHome).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/species/search", s.handleSpeciesSearch).Methods(http.MethodGet)
	api.HandleFunc("/species/summary", s.handleSpeciesSummary).Methods(http.MethodGet)

	r.Use(logRequests)
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debug("api", "%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logging.Error("api", "encode response: %v", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

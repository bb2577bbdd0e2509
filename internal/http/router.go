package http

import (
	"net/http"

	"choiros-backend/internal/handlers"
	"choiros-backend/internal/health"
	"choiros-backend/internal/metrics"
	"choiros-backend/internal/middleware"

	"github.com/gorilla/mux"
)

// ServerHandlers groups the handlers and middleware of the ChoirOS API.
type ServerHandlers struct {
	Auth        *handlers.AuthHandler
	Attendance  *handlers.AttendanceHandler
	CheckInCode *handlers.CheckInCodeHandler
	Agents      *handlers.AgentsHandler

	AuthMiddleware   *middleware.AuthMiddleware
	TenantMiddleware *middleware.TenantMiddleware
	LoginLimiter     *middleware.RateLimiter

	Health  *health.HealthChecker
	Metrics *metrics.Metrics
}

func NewRouter(s ServerHandlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequestMetrics(s.Metrics))

	r.HandleFunc("/health", s.Health.Handler).Methods(http.MethodGet)
	r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)

	// Station wake-up channel
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(s.AuthMiddleware.Authenticate, s.TenantMiddleware.Resolve)
	ws.HandleFunc("/agents", s.Agents.Connect).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.GzipCompression)

	login := http.HandlerFunc(s.Auth.Login)
	if s.LoginLimiter != nil {
		api.Handle("/auth/login", s.LoginLimiter.Middleware(login)).Methods(http.MethodPost)
	} else {
		api.Handle("/auth/login", login).Methods(http.MethodPost)
	}

	org := api.PathPrefix("/orgs/{org}").Subrouter()
	org.Use(s.AuthMiddleware.Authenticate, s.TenantMiddleware.Resolve)

	org.HandleFunc("/attendance", s.Attendance.Record).Methods(http.MethodPost)

	manage := org.NewRoute().Subrouter()
	manage.Use(middleware.RequireManager)
	manage.HandleFunc("/events/{id:[0-9]+}/attendance", s.Attendance.ListForEvent).Methods(http.MethodGet)
	manage.HandleFunc("/events/{id:[0-9]+}/checkin-code", s.CheckInCode.Get).Methods(http.MethodGet)
	manage.HandleFunc("/agents/sync", s.Agents.TriggerSync).Methods(http.MethodPost)

	return r
}

// NewStationRouter serves the local API of a check-in station.
func NewStationRouter(station *handlers.StationHandler, hc *health.HealthChecker, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestMetrics(m))

	r.HandleFunc("/health", hc.Handler).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws/events", station.StreamEvents).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", station.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/pending", station.ListPending).Methods(http.MethodGet)
	api.HandleFunc("/sync", station.TriggerSync).Methods(http.MethodPost)
	api.HandleFunc("/scanner/start", station.StartScanner).Methods(http.MethodPost)
	api.HandleFunc("/scanner/stop", station.StopScanner).Methods(http.MethodPost)
	api.HandleFunc("/scanner/scan", station.Scan).Methods(http.MethodPost)

	return r
}

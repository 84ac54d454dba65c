package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type HealthResponse struct {
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Environment   string    `json:"environment,omitempty"`
	Port          string    `json:"port,omitempty"`
	UptimeSeconds float64   `json:"uptime,omitempty"`
}

func HealthRouter(r *mux.Router, h *Handler) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/health", h.APIHealth).Methods(http.MethodGet)
	r.HandleFunc("/api", h.APIInfo).Methods(http.MethodGet)
	r.HandleFunc(API_PREFIX+"/health", h.UserRoutesHealth).Methods(http.MethodGet)
}

func writeRaw(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Message:   "Server is running",
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) APIHealth(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, HealthResponse{
		Status:        "OK",
		Message:       "Authentication Discovery System is running",
		Timestamp:     time.Now().UTC(),
		Environment:   h.cfg.Env,
		Port:          h.cfg.Port,
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	})
}

func (h *Handler) UserRoutesHealth(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Message:   "User routes are working",
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) APIInfo(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, map[string]interface{}{
		"message": "Authentication Discovery System API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health": "/health",
			"auth":   API_PREFIX,
		},
		"challenge": "Can you discover the secret key? Start with " + API_PREFIX + "/admin-panel",
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"message": "API endpoint not found",
		"path":    r.URL.Path,
	})
}

package routes

import (
	"context"
	"net/http"

	"github.com/authdiscovery/apiv1/discovery"
	"github.com/authdiscovery/apiv1/middlewares"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/gorilla/mux"
)

func DiscoveryRouter(s *mux.Router, h *Handler) {
	gated := func(f http.HandlerFunc) http.Handler {
		return chain(f,
			h.auth.IsAccessTokenAuthorized,
			h.guard.TrackSession,
			h.guard.ValidateSession,
			h.sensitive.RateLimitSensitive,
		)
	}
	s.Handle("/admin-panel", gated(h.GetAdminPanel)).Methods(http.MethodGet)
	s.Handle(discovery.DiagnosticsEndpoint, gated(h.GetSystemDiagnostics)).Methods(http.MethodGet)
	s.Handle(discovery.SecretKeyEndpoint, gated(h.GetSecretKey)).Methods(http.MethodGet)
	s.Handle("/vault-access", gated(h.GetVaultAccess)).Methods(http.MethodGet)
	s.Handle("/analytics", chain(h.GetUserAnalytics, h.auth.IsAccessTokenAuthorized, h.guard.TrackSession)).Methods(http.MethodGet)
}

func (h *Handler) GetAdminPanel(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
	defer cancel()
	panel, err := h.gate.AdminPanel(ctx, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Admin panel data retrieved successfully", panel)
}

func (h *Handler) GetSystemDiagnostics(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	diagnostics, err := h.gate.Diagnostics(user, r.URL.Query().Get("maintenanceCode"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Diagnostics retrieved successfully", diagnostics)
}

func (h *Handler) GetSecretKey(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	secret, err := h.gate.SecretKey(r.Context(), user, r.URL.Query().Get("accessCode"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Secret key unlocked through discovery!", secret)
}

func (h *Handler) GetVaultAccess(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	session, _ := middlewares.SessionFromContext(r.Context())
	utils.WriteJSON(w, http.StatusOK, "Vault access granted successfully", h.gate.Vault(user, session))
}

func (h *Handler) GetUserAnalytics(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, "User analytics retrieved successfully", h.gate.Analytics(user, middlewares.ClientIP(r)))
}

package handlers

import (
	"net/http"

	"choiros-backend/internal/middleware"
	"choiros-backend/internal/models"
	"choiros-backend/internal/wakeup"
)

// AgentsHandler connects check-in stations to the wake-up hub.
type AgentsHandler struct {
	Hub *wakeup.Hub
}

func NewAgentsHandler(hub *wakeup.Hub) *AgentsHandler {
	return &AgentsHandler{Hub: hub}
}

// Connect upgrades a station connection.
// GET /ws/agents?org=slug
func (h *AgentsHandler) Connect(w http.ResponseWriter, r *http.Request) {
	org, ok := middleware.GetTenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "tenant_not_found", "organization not specified")
		return
	}
	h.Hub.ServeWS(w, r, org.Slug)
}

// TriggerSync asks every connected station of the tenant to sync now.
// POST /api/orgs/{org}/agents/sync
func (h *AgentsHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	org, ok := middleware.GetTenantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "authentication required")
		return
	}
	n := h.Hub.Broadcast(org.Slug, "manual")
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":  true,
		"stations": n,
	})
}

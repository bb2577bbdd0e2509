package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"choiros-backend/internal/models"
	"choiros-backend/internal/services"
)

type CheckInCodeHandler struct {
	Service *services.CheckInCodeService
}

func NewCheckInCodeHandler(service *services.CheckInCodeService) *CheckInCodeHandler {
	return &CheckInCodeHandler{Service: service}
}

// Get returns the check-in code of an event as JSON, or as a PNG image
// with ?format=png (optional &size=pixels).
// GET /api/orgs/{org}/events/{id}/checkin-code
func (h *CheckInCodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, _, ok := tenantActor(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	payload, err := h.Service.Generate(r.Context(), org, eventID)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, models.ErrCodeEventNotFound, "Event not found")
			return
		}
		log.Printf("[CheckInCode] Failed to generate code for event %d: %v", eventID, err)
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to generate code")
		return
	}

	if r.URL.Query().Get("format") != "png" {
		writeJSON(w, http.StatusOK, payload)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size > 2048 {
		size = 2048
	}
	img, err := services.RenderPNG(payload, size)
	if err != nil {
		log.Printf("[CheckInCode] Failed to render code for event %d: %v", eventID, err)
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to render code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img)
}

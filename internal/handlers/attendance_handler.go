package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"choiros-backend/internal/middleware"
	"choiros-backend/internal/models"
	"choiros-backend/internal/services"

	"github.com/gorilla/mux"
)

type AttendanceHandler struct {
	Service *services.AttendanceService
}

func NewAttendanceHandler(service *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{Service: service}
}

// Record stores one check-in.
// POST /api/orgs/{org}/attendance
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	org, actor, ok := tenantActor(w, r)
	if !ok {
		return
	}

	var req models.RecordAttendanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.Service.RecordAttendance(r.Context(), org.ID, actor, req)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrEventNotFound):
		writeError(w, http.StatusNotFound, models.ErrCodeEventNotFound, "Event not found")
		return
	case errors.Is(err, services.ErrNotMember):
		writeError(w, http.StatusForbidden, models.ErrCodeNotMember, "User is not a member of this organization")
		return
	case errors.Is(err, services.ErrNotPermitted):
		writeError(w, http.StatusForbidden, models.ErrCodeForbidden, err.Error())
		return
	default:
		log.Printf("[Attendance] Failed to record check-in for event %d: %v", req.EventID, err)
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to record attendance")
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// ListForEvent returns the check-ins of an event.
// GET /api/orgs/{org}/events/{id}/attendance
func (h *AttendanceHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	org, _, ok := tenantActor(w, r)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.Service.ListEventAttendance(r.Context(), org.ID, eventID)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, models.ErrCodeEventNotFound, "Event not found")
			return
		}
		log.Printf("[Attendance] Failed to list event %d: %v", eventID, err)
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to list attendance")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// tenantActor reads the tenant and caller placed on the context by the
// auth and tenant middleware.
func tenantActor(w http.ResponseWriter, r *http.Request) (*models.Organization, services.Actor, bool) {
	org, okOrg := middleware.GetTenantFromContext(r.Context())
	claims, okClaims := middleware.GetClaimsFromContext(r.Context())
	membership, okMember := middleware.GetMembershipFromContext(r.Context())
	if !okOrg || !okClaims || !okMember {
		writeError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "authentication required")
		return nil, services.Actor{}, false
	}
	return org, services.Actor{
		UserID:     claims.UserID,
		Role:       membership.Role,
		Superadmin: claims.IsSuperadmin,
	}, true
}

func eventIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid event ID")
		return 0, false
	}
	return id, true
}

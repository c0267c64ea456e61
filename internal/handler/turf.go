package handler

import (
	"net/http"
	"strconv"

	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/service"
)

// TurfHandler serves turf listings.
type TurfHandler struct {
	turfSvc *service.TurfService
}

// NewTurfHandler creates a new TurfHandler.
func NewTurfHandler(turfSvc *service.TurfService) *TurfHandler {
	return &TurfHandler{turfSvc: turfSvc}
}

// List handles GET /api/turfs.
func (h *TurfHandler) List(w http.ResponseWriter, r *http.Request) {
	q := service.TurfQuery{Pagination: Pagination(r)}
	if raw := r.URL.Query().Get("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			RespondError(w, domain.ErrValidation("invalid approved"))
			return
		}
		q.Approved = &approved
	}
	var err error
	if q.MinPrice, err = queryFloat(r, "minPrice"); err != nil {
		RespondError(w, err)
		return
	}
	if q.MaxPrice, err = queryFloat(r, "maxPrice"); err != nil {
		RespondError(w, err)
		return
	}

	page, err := h.turfSvc.List(r.Context(), q)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// Nearby handles GET /api/turfs/nearby?lat=&lng=&distance=.
func (h *TurfHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, errLat := queryFloat(r, "lat")
	lng, errLng := queryFloat(r, "lng")
	if errLat != nil || errLng != nil || lat == nil || lng == nil {
		RespondError(w, domain.ErrValidation("please provide latitude and longitude"))
		return
	}
	distance, err := queryFloat(r, "distance")
	if err != nil {
		RespondError(w, err)
		return
	}
	var meters float64
	if distance != nil {
		meters = *distance
	}

	turfs, err := h.turfSvc.Nearby(r.Context(), *lat, *lng, meters)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"count": len(turfs), "data": turfs})
}

// Get handles GET /api/turfs/{id}.
func (h *TurfHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	t, err := h.turfSvc.Get(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, t)
}

// Create handles POST /api/turfs.
func (h *TurfHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.TurfInput
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}
	t, err := h.turfSvc.Create(r.Context(), auth.AccountIDFromContext(r.Context()), input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, t)
}

// Update handles PUT /api/turfs/{id}.
func (h *TurfHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := PathUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	var input service.TurfInput
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	t, err := h.turfSvc.Update(r.Context(), auth.AccountIDFromContext(r.Context()), claims.Role, id, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/turfs/{id}.
func (h *TurfHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := PathUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	if err := h.turfSvc.Delete(r.Context(), auth.AccountIDFromContext(r.Context()), claims.Role, id); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "Turf deleted"})
}

// Mine handles GET /api/turfs/owner/my.
func (h *TurfHandler) Mine(w http.ResponseWriter, r *http.Request) {
	turfs, err := h.turfSvc.Mine(r.Context(), auth.AccountIDFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"count": len(turfs), "data": turfs})
}

// Approve handles PUT /api/turfs/{id}/approve.
func (h *TurfHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := PathUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	t, err := h.turfSvc.Approve(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, t)
}

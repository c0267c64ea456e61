package admin

import (
	"net/http"

	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/handler"
	"github.com/turfease/platform/internal/service"
)

// OwnerAdminHandler serves owner approval and account listings.
type OwnerAdminHandler struct {
	approvals *service.ApprovalService
}

// NewOwnerAdminHandler creates a new OwnerAdminHandler.
func NewOwnerAdminHandler(approvals *service.ApprovalService) *OwnerAdminHandler {
	return &OwnerAdminHandler{approvals: approvals}
}

// ListUsers handles GET /api/admin/users?role=&page=&limit=.
func (h *OwnerAdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.approvals.ListAccounts(r.Context(), domain.Role(r.URL.Query().Get("role")), handler.Pagination(r))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, page)
}

// ListOwners handles GET /api/admin/owners?status=&page=&limit=.
func (h *OwnerAdminHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	status := domain.ApprovalStatus(r.URL.Query().Get("status"))
	page, err := h.approvals.ListOwners(r.Context(), status, handler.Pagination(r))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, page)
}

// ListPendingOwners handles GET /api/admin/pending-owners.
func (h *OwnerAdminHandler) ListPendingOwners(w http.ResponseWriter, r *http.Request) {
	page, err := h.approvals.ListPendingOwners(r.Context(), handler.Pagination(r))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, page)
}

// GetOwner handles GET /api/admin/owners/{id}.
func (h *OwnerAdminHandler) GetOwner(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathUUID(r, "id")
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	owner, err := h.approvals.GetOwner(r.Context(), id)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, owner)
}

type decisionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// DecideOwner handles PUT /api/admin/owners/{id}/approval.
func (h *OwnerAdminHandler) DecideOwner(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathUUID(r, "id")
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	var req decisionRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	owner, err := h.approvals.Decide(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Owner " + string(owner.ApprovalStatus) + " successfully",
		"owner":   owner,
	})
}

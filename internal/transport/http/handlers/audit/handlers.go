package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestor/internal/domain/audit"
	"gestor/internal/domain/auth"
	"gestor/internal/transport/http/api"
	"gestor/internal/transport/http/middleware"
	"gestor/internal/transport/http/shared"
)

type Handler struct {
	Audit *audit.Service
	Perms middleware.PermissionStore
}

func NewHandler(auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/audit-events", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
		ActorUser:  r.URL.Query().Get("actor"),
	}
	includeDetails := r.URL.Query().Get("details") == "true"

	total, err := h.Audit.Count(r.Context(), user.CompanyID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", middleware.GetRequestID(r.Context()))
		return
	}
	events, err := h.Audit.List(r.Context(), user.CompanyID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"items": events, "total": total}, middleware.GetRequestID(r.Context()))
}

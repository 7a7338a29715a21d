package financehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestor/internal/domain/audit"
	"gestor/internal/domain/auth"
	"gestor/internal/domain/finance"
	"gestor/internal/transport/http/api"
	"gestor/internal/transport/http/middleware"
	"gestor/internal/transport/http/shared"
)

type Handler struct {
	Store *finance.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *finance.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/finance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFinanceRead, h.Perms)).Get("/transactions/{transactionID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermFinanceRead, h.Perms)).Get("/payrolls/{payrollID}/transactions", h.handleListByPayroll)
		r.With(middleware.RequirePermission(auth.PermFinancePost, h.Perms)).Post("/payrolls/{payrollID}/reverse", h.handleReverse)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	t, err := h.Store.Get(r.Context(), user.CompanyID, chi.URLParam(r, "transactionID"))
	if err != nil {
		failFinance(w, r, err)
		return
	}
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListByPayroll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	transactions, err := h.Store.ListByPayroll(r.Context(), user.CompanyID, chi.URLParam(r, "payrollID"))
	if err != nil {
		failFinance(w, r, err)
		return
	}
	api.Success(w, map[string]any{"items": transactions, "total": len(transactions)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payrollID := chi.URLParam(r, "payrollID")
	reversalIDs, err := h.Store.ReversePayrollPostings(r.Context(), user.CompanyID, payrollID)
	if err != nil {
		failFinance(w, r, err)
		return
	}
	if h.Audit != nil {
		_ = h.Audit.Record(r.Context(), user.CompanyID, user.UserID, "finance.reverse", "payroll", payrollID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]any{"reversalIds": reversalIDs})
	}
	api.Success(w, map[string]any{"reversalIds": reversalIDs}, middleware.GetRequestID(r.Context()))
}

func failFinance(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, finance.ErrTransactionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, finance.ErrNothingToReverse), errors.Is(err, finance.ErrAlreadyReversed):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, finance.ErrDistributionSum):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", reqID)
	}
}

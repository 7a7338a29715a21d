package contracthandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gestor/internal/domain/audit"
	"gestor/internal/domain/auth"
	"gestor/internal/domain/contract"
	"gestor/internal/transport/http/api"
	"gestor/internal/transport/http/middleware"
	"gestor/internal/transport/http/shared"
)

type Handler struct {
	Store *contract.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *contract.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermContractsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermContractsWrite, h.Perms)).Post("/", h.handleCreate)
		r.Route("/{contractID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermContractsRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermContractsWrite, h.Perms)).Post("/benefit-discounts", h.handleAddBenefitDiscount)
			r.With(middleware.RequirePermission(auth.PermContractsWrite, h.Perms)).Delete("/benefit-discounts/{benefitDiscountID}", h.handleRemoveBenefitDiscount)
			r.With(middleware.RequirePermission(auth.PermContractsWrite, h.Perms)).Put("/cost-centers", h.handleSetCostCenters)
		})
	})
}

type contractRequest struct {
	EmployeeID string `json:"employeeId"`
	Value      int64  `json:"value"`
	Type       string `json:"type"`
	IsPayroll  bool   `json:"isPayroll"`
	HasINSS    bool   `json:"hasInss"`
	HasIRRF    bool   `json:"hasIrrf"`
	HasFGTS    bool   `json:"hasFgts"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type benefitDiscountRequest struct {
	Description    string `json:"description"`
	Kind           string `json:"kind"`
	Application    string `json:"application"`
	Amount         int64  `json:"amount"`
	Month          int    `json:"month"`
	IsProportional bool   `json:"isProportional"`
	HasTaxes       bool   `json:"hasTaxes"`
}

type costCenterShareRequest struct {
	CostCenterID string `json:"costCenterId"`
	Percent      string `json:"percent"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	contracts, err := h.Store.ListByCompany(r.Context(), user.CompanyID, page.Limit, page.Offset)
	if err != nil {
		failContract(w, r, err)
		return
	}
	api.Success(w, contracts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	c, err := h.Store.Get(r.Context(), user.CompanyID, chi.URLParam(r, "contractID"))
	if err != nil {
		failContract(w, r, err)
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload contractRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Enum("type", payload.Type, []string{contract.TypeMonthly, contract.TypeDaily, contract.TypeHourly}, "must be monthly, daily or hourly")
	v.NonNegative("value", payload.Value, "must not be negative")
	startDate, _ := v.Date("startDate", payload.StartDate)
	var endDate *time.Time
	if payload.EndDate != "" {
		if parsed, ok := v.Date("endDate", payload.EndDate); ok {
			endDate = &parsed
			v.DateOrder("startDate", startDate, "endDate", parsed)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	c := contract.Contract{
		CompanyID:  user.CompanyID,
		EmployeeID: payload.EmployeeID,
		Value:      payload.Value,
		Type:       strings.ToLower(strings.TrimSpace(payload.Type)),
		IsPayroll:  payload.IsPayroll,
		HasINSS:    payload.HasINSS,
		HasIRRF:    payload.HasIRRF,
		HasFGTS:    payload.HasFGTS,
		StartDate:  startDate,
		EndDate:    endDate,
	}
	id, err := h.Store.Create(r.Context(), &c)
	if err != nil {
		failContract(w, r, err)
		return
	}
	h.record(r, user, "contract.create", "contract", id, nil, c)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddBenefitDiscount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	contractID := chi.URLParam(r, "contractID")

	if _, err := h.Store.Get(r.Context(), user.CompanyID, contractID); err != nil {
		failContract(w, r, err)
		return
	}

	var payload benefitDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	bd := contract.BenefitDiscount{
		ContractID:     contractID,
		Description:    payload.Description,
		Kind:           strings.ToLower(strings.TrimSpace(payload.Kind)),
		Application:    strings.ToLower(strings.TrimSpace(payload.Application)),
		Amount:         payload.Amount,
		Month:          payload.Month,
		IsProportional: payload.IsProportional,
		HasTaxes:       payload.HasTaxes,
	}
	if err := bd.Validate(); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_benefit_discount", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.AddBenefitDiscount(r.Context(), &bd)
	if err != nil {
		failContract(w, r, err)
		return
	}
	h.record(r, user, "contract.benefit_discount.add", "contract", contractID, nil, bd)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveBenefitDiscount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	contractID := chi.URLParam(r, "contractID")

	if _, err := h.Store.Get(r.Context(), user.CompanyID, contractID); err != nil {
		failContract(w, r, err)
		return
	}

	benefitDiscountID := chi.URLParam(r, "benefitDiscountID")
	if err := h.Store.RemoveBenefitDiscount(r.Context(), contractID, benefitDiscountID); err != nil {
		failContract(w, r, err)
		return
	}
	h.record(r, user, "contract.benefit_discount.remove", "contract", contractID, map[string]string{"benefitDiscountId": benefitDiscountID}, nil)
	api.Success(w, map[string]string{"status": "removed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetCostCenters(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	contractID := chi.URLParam(r, "contractID")

	if _, err := h.Store.Get(r.Context(), user.CompanyID, contractID); err != nil {
		failContract(w, r, err)
		return
	}

	var payload []costCenterShareRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	shares := make([]contract.CostCenterShare, 0, len(payload))
	v := shared.NewValidator()
	for _, item := range payload {
		v.Required("costCenterId", item.CostCenterID, "costCenterId is required")
		percent, err := decimal.NewFromString(strings.TrimSpace(item.Percent))
		if err != nil {
			v.Add("percent", "must be a decimal number")
			continue
		}
		shares = append(shares, contract.CostCenterShare{
			ContractID:   contractID,
			CostCenterID: item.CostCenterID,
			Percent:      percent,
		})
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Store.SetCostCenters(r.Context(), contractID, shares); err != nil {
		failContract(w, r, err)
		return
	}
	h.record(r, user, "contract.cost_centers.set", "contract", contractID, nil, shares)
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	_ = h.Audit.Record(r.Context(), user.CompanyID, user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
}

func failContract(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, contract.ErrContractNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, contract.ErrInvalidDistribution),
		errors.Is(err, contract.ErrNegativeAmount),
		errors.Is(err, contract.ErrInvalidKind),
		errors.Is(err, contract.ErrInvalidApplication),
		errors.Is(err, contract.ErrInvalidMonth):
		api.Fail(w, http.StatusBadRequest, "invalid_contract", err.Error(), reqID)
	case errors.Is(err, contract.ErrInactiveCostCenter):
		api.Fail(w, http.StatusConflict, "inactive_cost_center", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", reqID)
	}
}

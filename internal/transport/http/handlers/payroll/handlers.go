package payrollhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gestor/internal/domain/audit"
	"gestor/internal/domain/auth"
	"gestor/internal/domain/payroll"
	"gestor/internal/transport/http/api"
	"gestor/internal/transport/http/middleware"
	"gestor/internal/transport/http/shared"
)

type Handler struct {
	Service     *payroll.Service
	Perms       middleware.PermissionStore
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(svc *payroll.Service, perms middleware.PermissionStore, auditSvc *audit.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: svc, Perms: perms, Audit: auditSvc, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payrolls", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/", h.handleCreate)
		r.Route("/{payrollID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/recalculate", h.handleRecalculate)
			r.With(middleware.RequirePermission(auth.PermPayrollClose, h.Perms)).Post("/close", h.handleClose)
			r.With(middleware.RequirePermission(auth.PermPayrollReopen, h.Perms)).Post("/reopen", h.handleReopen)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/thirteenth", h.handleApplyThirteenth)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Delete("/thirteenth", h.handleRemoveThirteenth)
			r.Route("/employees/{payrollEmployeeID}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/days", h.handleSetDays)
				r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/items", h.handleAddItem)
				r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/vacation", h.handleApplyVacation)
				r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Delete("/vacation", h.handleRemoveVacation)
				r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/payslip", h.handlePayslip)
			})
			r.Route("/items/{itemID}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/", h.handleUpdateItem)
				r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Delete("/", h.handleRemoveItem)
			})
		})
	})
}

type createRequest struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

type daysRequest struct {
	DaysWorked  int `json:"daysWorked"`
	HoursWorked int `json:"hoursWorked"`
}

type itemRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      int64  `json:"amount"`
}

type thirteenthRequest struct {
	Percent   string `json:"percent"`
	WithTaxes bool   `json:"withTaxes"`
}

type vacationRequest struct {
	Days             int    `json:"days"`
	StartDate        string `json:"startDate"`
	IncludeTaxes     bool   `json:"includeTaxes"`
	AdvanceNextMonth bool   `json:"advanceNextMonth"`
	Notes            string `json:"notes"`
}

type closeRequest struct {
	AccountID   string `json:"accountId"`
	PaymentDate string `json:"paymentDate"`
	INSSAmount  int64  `json:"inssAmount"`
	FGTSAmount  int64  `json:"fgtsAmount"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 20, 100)
	payrolls, total, err := h.Service.List(r.Context(), user.CompanyID, page.Limit, page.Offset)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	api.Success(w, map[string]any{"items": payrolls, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	start, _ := v.Date("periodStart", payload.PeriodStart)
	end, _ := v.Date("periodEnd", payload.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	p, err := h.Service.Create(r.Context(), user.CompanyID, start, end)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.create", p.ID, nil, map[string]any{"periodStart": payload.PeriodStart, "periodEnd": payload.PeriodEnd})
	api.Created(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p, err := h.owned(r, user)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	p, err := h.Service.Recalculate(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.recalculate", p.ID, nil, nil)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var payload closeRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	payrollID := chi.URLParam(r, "payrollID")
	endpoint := "payrolls/" + payrollID + "/close"
	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(raw)
	if idemKey != "" {
		stored, replayed, err := h.Idempotency.Check(r.Context(), user.CompanyID, user.UserID, endpoint, idemKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			failPayroll(w, r, err)
			return
		}
		if replayed {
			api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	v := shared.NewValidator()
	v.Required("accountId", payload.AccountID, "accountId is required")
	paymentDate, _ := v.Date("paymentDate", payload.PaymentDate)
	v.NonNegative("inssAmount", payload.INSSAmount, "must not be negative")
	v.NonNegative("fgtsAmount", payload.FGTSAmount, "must not be negative")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	p, err := h.Service.Close(r.Context(), payrollID, payload.AccountID, paymentDate, payload.INSSAmount, payload.FGTSAmount, user.UserID)
	if err != nil {
		failPayroll(w, r, err)
		return
	}

	if idemKey != "" {
		if response, err := json.Marshal(p); err == nil {
			_ = h.Idempotency.Save(r.Context(), user.CompanyID, user.UserID, endpoint, idemKey, requestHash, response)
		}
	}
	h.record(r, user, "payroll.close", p.ID, nil, map[string]any{"accountId": payload.AccountID, "paymentDate": payload.PaymentDate})
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	p, err := h.Service.Reopen(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.reopen", p.ID, nil, nil)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetDays(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	var payload daysRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.DaysWorked < 0 || payload.HoursWorked < 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_days", "daysWorked and hoursWorked must not be negative", middleware.GetRequestID(r.Context()))
		return
	}

	p, err := h.Service.SetEmployeeDays(r.Context(), chi.URLParam(r, "payrollID"), chi.URLParam(r, "payrollEmployeeID"), payload.DaysWorked, payload.HoursWorked)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("description", payload.Description, "description is required")
	v.Enum("type", payload.Type, []string{payroll.ItemTypeCredit, payroll.ItemTypeDebit}, "must be credit or debit")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	p, err := h.Service.AddItem(r.Context(), chi.URLParam(r, "payrollID"), chi.URLParam(r, "payrollEmployeeID"), payload.Description, payload.Type, payload.Category, payload.Amount)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.item.add", p.ID, nil, payload)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	p, err := h.Service.UpdateItem(r.Context(), chi.URLParam(r, "payrollID"), chi.URLParam(r, "itemID"), payload.Description, payload.Amount)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.item.update", p.ID, nil, payload)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	itemID := chi.URLParam(r, "itemID")
	p, err := h.Service.RemoveItem(r.Context(), chi.URLParam(r, "payrollID"), itemID)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.item.remove", p.ID, map[string]string{"itemId": itemID}, nil)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApplyThirteenth(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	var payload thirteenthRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	percent, err := decimal.NewFromString(payload.Percent)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_percent", "percent must be a decimal number", middleware.GetRequestID(r.Context()))
		return
	}

	p, err := h.Service.ApplyThirteenth(r.Context(), chi.URLParam(r, "payrollID"), percent, payload.WithTaxes)
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.thirteenth.apply", p.ID, nil, payload)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveThirteenth(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	p, err := h.Service.RemoveThirteenth(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.thirteenth.remove", p.ID, nil, nil)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApplyVacation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	var payload vacationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	var startDate time.Time
	if payload.StartDate != "" {
		parsed, err := shared.ParseDate(payload.StartDate)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "startDate must be a valid date", middleware.GetRequestID(r.Context()))
			return
		}
		startDate = parsed
	}

	p, err := h.Service.ApplyVacation(r.Context(), chi.URLParam(r, "payrollID"), chi.URLParam(r, "payrollEmployeeID"), payroll.VacationParams{
		Days:             payload.Days,
		StartDate:        startDate,
		IncludeTaxes:     payload.IncludeTaxes,
		AdvanceNextMonth: payload.AdvanceNextMonth,
		Notes:            payload.Notes,
	})
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.vacation.apply", p.ID, nil, payload)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveVacation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, err := h.owned(r, user); err != nil {
		failPayroll(w, r, err)
		return
	}

	p, err := h.Service.RemoveVacation(r.Context(), chi.URLParam(r, "payrollID"), chi.URLParam(r, "payrollEmployeeID"))
	if err != nil {
		failPayroll(w, r, err)
		return
	}
	h.record(r, user, "payroll.vacation.remove", p.ID, nil, nil)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p, err := h.owned(r, user)
	if err != nil {
		failPayroll(w, r, err)
		return
	}

	payrollEmployeeID := chi.URLParam(r, "payrollEmployeeID")
	var target *payroll.PayrollEmployee
	for i := range p.Employees {
		if p.Employees[i].ID == payrollEmployeeID {
			target = &p.Employees[i]
			break
		}
	}
	if target == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll employee not found", middleware.GetRequestID(r.Context()))
		return
	}

	var buf bytes.Buffer
	if err := renderPayslip(&buf, p, target); err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_error", "failed to render payslip", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="payslip-`+target.EmployeeID+`.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

// owned loads the payroll and enforces company scoping; a payroll that
// exists but belongs to another company is reported as not found.
func (h *Handler) owned(r *http.Request, user auth.UserContext) (*payroll.Payroll, error) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		return nil, err
	}
	if p.CompanyID != user.CompanyID {
		return nil, payroll.ErrPayrollNotFound
	}
	return p, nil
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, payrollID string, before, after any) {
	if h.Audit == nil {
		return
	}
	_ = h.Audit.Record(r.Context(), user.CompanyID, user.UserID, action, "payroll", payrollID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
}

func failPayroll(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrPayrollNotFound),
		errors.Is(err, payroll.ErrEmployeeNotFound),
		errors.Is(err, payroll.ErrItemNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrPayrollClosed),
		errors.Is(err, payroll.ErrPayrollNotClosed),
		errors.Is(err, payroll.ErrOverlappingPeriod),
		errors.Is(err, payroll.ErrThirteenthAlreadyApplied),
		errors.Is(err, payroll.ErrThirteenthNotApplied),
		errors.Is(err, payroll.ErrVacationAlreadyApplied),
		errors.Is(err, payroll.ErrVacationNotApplied):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrEmptyPayroll),
		errors.Is(err, payroll.ErrNegativeAmount),
		errors.Is(err, payroll.ErrInvalidItemType),
		errors.Is(err, payroll.ErrInvalidVacationDays),
		errors.Is(err, payroll.ErrNoShares),
		errors.Is(err, payroll.ErrPercentagesNotNormalized):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
	case errors.Is(err, payroll.ErrAggregateMismatch):
		api.Fail(w, http.StatusInternalServerError, "aggregate_mismatch", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", reqID)
	}
}

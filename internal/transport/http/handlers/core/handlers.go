package corehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gestor/internal/domain/audit"
	"gestor/internal/domain/auth"
	"gestor/internal/domain/core"
	"gestor/internal/transport/http/api"
	"gestor/internal/transport/http/middleware"
	"gestor/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(svc *core.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: svc, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/company", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCompanyRead, h.Perms)).Get("/", h.handleGetCompany)
		r.With(middleware.RequirePermission(auth.PermCompanyWrite, h.Perms)).Put("/", h.handleUpdateCompany)
	})
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/deactivate", h.handleDeactivateEmployee)
		})
	})
	r.Route("/accounts", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFinanceRead, h.Perms)).Get("/", h.handleListAccounts)
		r.With(middleware.RequirePermission(auth.PermFinancePost, h.Perms)).Post("/", h.handleCreateAccount)
	})
	r.Route("/cost-centers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermContractsRead, h.Perms)).Get("/", h.handleListCostCenters)
		r.With(middleware.RequirePermission(auth.PermContractsWrite, h.Perms)).Post("/", h.handleCreateCostCenter)
		r.Route("/{costCenterID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermContractsWrite, h.Perms)).Put("/", h.handleUpdateCostCenter)
			r.With(middleware.RequirePermission(auth.PermContractsWrite, h.Perms)).Post("/deactivate", h.handleDeactivateCostCenter)
		})
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{
		"id":        user.UserID,
		"companyId": user.CompanyID,
		"roleId":    user.RoleID,
		"role":      user.RoleName,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	company, err := h.Service.GetCompany(r.Context(), user.CompanyID)
	if err != nil {
		failCore(w, r, err)
		return
	}
	api.Success(w, company, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload core.Company
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateCompany(r.Context(), user.CompanyID, payload); err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.company.update", "company", user.CompanyID, nil, payload)
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

type employeeRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Document    string `json:"document"`
	Role        string `json:"role"`
	DateOfBirth string `json:"dateOfBirth"`
	HireDate    string `json:"hireDate"`
	Status      string `json:"status"`
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employees, err := h.Service.ListEmployees(r.Context(), user.CompanyID)
	if err != nil {
		failCore(w, r, err)
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employee, err := h.Service.GetEmployee(r.Context(), user.CompanyID, chi.URLParam(r, "employeeID"))
	if err != nil {
		failCore(w, r, err)
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employee, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}

	id, err := h.Service.CreateEmployee(r.Context(), user.CompanyID, employee)
	if err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.employee.create", "employee", id, nil, employee)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	employee, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}

	if err := h.Service.UpdateEmployee(r.Context(), user.CompanyID, employeeID, employee); err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.employee.update", "employee", employeeID, nil, employee)
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.DeactivateEmployee(r.Context(), user.CompanyID, employeeID); err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.employee.deactivate", "employee", employeeID, nil, nil)
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	accounts, err := h.Service.ListAccounts(r.Context(), user.CompanyID)
	if err != nil {
		failCore(w, r, err)
		return
	}
	api.Success(w, accounts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload core.Account
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("type", payload.Type, "type is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateAccount(r.Context(), user.CompanyID, payload)
	if err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.account.create", "account", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCostCenters(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	activeOnly := r.URL.Query().Get("active") == "true"
	costCenters, err := h.Service.ListCostCenters(r.Context(), user.CompanyID, activeOnly)
	if err != nil {
		failCore(w, r, err)
		return
	}
	api.Success(w, costCenters, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCostCenter(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload core.CostCenter
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateCostCenter(r.Context(), user.CompanyID, payload)
	if err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.cost_center.create", "cost_center", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCostCenter(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	costCenterID := chi.URLParam(r, "costCenterID")
	var payload core.CostCenter
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.UpdateCostCenter(r.Context(), user.CompanyID, costCenterID, payload); err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.cost_center.update", "cost_center", costCenterID, nil, payload)
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateCostCenter(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	costCenterID := chi.URLParam(r, "costCenterID")
	if err := h.Service.DeactivateCostCenter(r.Context(), user.CompanyID, costCenterID); err != nil {
		failCore(w, r, err)
		return
	}
	h.record(r, user, "core.cost_center.deactivate", "cost_center", costCenterID, nil, nil)
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeEmployee(w http.ResponseWriter, r *http.Request) (core.Employee, bool) {
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return core.Employee{}, false
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Enum("status", payload.Status, []string{core.EmployeeStatusActive, core.EmployeeStatusInactive}, "must be active or inactive")

	var dob, hireDate *time.Time
	if payload.DateOfBirth != "" {
		if parsed, ok := v.Date("dateOfBirth", payload.DateOfBirth); ok {
			dob = &parsed
		}
	}
	if payload.HireDate != "" {
		if parsed, ok := v.Date("hireDate", payload.HireDate); ok {
			hireDate = &parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return core.Employee{}, false
	}

	return core.Employee{
		Name:        payload.Name,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Document:    payload.Document,
		Role:        payload.Role,
		DateOfBirth: dob,
		HireDate:    hireDate,
		Status:      payload.Status,
	}, true
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), user.CompanyID, user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func failCore(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, core.ErrCompanyNotFound),
		errors.Is(err, core.ErrEmployeeNotFound),
		errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrCostCenterNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, core.ErrCostCenterInUse):
		api.Fail(w, http.StatusConflict, "in_use", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", reqID)
	}
}

package auth

const (
	RoleAdmin    = "admin"
	RoleFinance  = "finance"
	RoleHR       = "hr"
	RoleViewer   = "viewer"
)

const (
	PermCompanyRead    = "core.company.read"
	PermCompanyWrite   = "core.company.write"
	PermEmployeesRead  = "core.employees.read"
	PermEmployeesWrite = "core.employees.write"
	PermContractsRead  = "contracts.read"
	PermContractsWrite = "contracts.write"
	PermPayrollRead    = "payroll.read"
	PermPayrollWrite   = "payroll.write"
	PermPayrollClose   = "payroll.close"
	PermPayrollReopen  = "payroll.reopen"
	PermFinanceRead    = "finance.read"
	PermFinancePost    = "finance.post"
	PermAuditRead      = "audit.read"
	PermSystemAdmin    = "admin.system"
)

var DefaultPermissions = []string{
	PermCompanyRead,
	PermCompanyWrite,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermContractsRead,
	PermContractsWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollClose,
	PermPayrollReopen,
	PermFinanceRead,
	PermFinancePost,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleViewer: {
		PermCompanyRead,
		PermEmployeesRead,
		PermContractsRead,
		PermPayrollRead,
		PermFinanceRead,
	},
	RoleHR: {
		PermCompanyRead,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermContractsRead,
		PermContractsWrite,
		PermPayrollRead,
		PermPayrollWrite,
	},
	RoleFinance: {
		PermCompanyRead,
		PermEmployeesRead,
		PermContractsRead,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollClose,
		PermPayrollReopen,
		PermFinanceRead,
		PermFinancePost,
		PermAuditRead,
	},
	RoleAdmin: {
		PermCompanyRead,
		PermCompanyWrite,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermContractsRead,
		PermContractsWrite,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollClose,
		PermPayrollReopen,
		PermFinanceRead,
		PermFinancePost,
		PermAuditRead,
		PermSystemAdmin,
	},
}

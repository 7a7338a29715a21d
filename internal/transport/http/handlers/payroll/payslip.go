package payrollhandler

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"gestor/internal/domain/payroll"
)

func renderPayslip(w io.Writer, p *payroll.Payroll, pe *payroll.PayrollEmployee) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", pe.EmployeeID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Days worked: %d of %d", pe.DaysWorked, pe.DaysInPeriod))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(95, 8, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(45, 8, "Credit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(45, 8, "Debit", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, item := range pe.Items {
		credit, debit := "", ""
		if item.Type == payroll.ItemTypeCredit {
			credit = formatMoney(item.Amount)
		} else {
			debit = formatMoney(item.Amount)
		}
		pdf.CellFormat(95, 7, item.Description, "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, credit, "", 0, "R", false, 0, "")
		pdf.CellFormat(45, 7, debit, "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %s", formatMoney(pe.TotalGrossPay)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %s", formatMoney(pe.TotalDeductions)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %s", formatMoney(pe.TotalNetPay)))

	return pdf.Output(w)
}

func formatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	statement "stayledger/internal/statement/domain"
)

func propertyList(ids []statement.PropertyID) string {
	var out string
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d", id)
	}
	return out
}

func channelLabel(line statement.PayoutLine) string {
	label := string(line.Channel)
	if line.CohostAirbnb {
		label += " (co-host)"
	}
	return label
}

// BuildStatementPDF renders an owner statement as a PDF.
func BuildStatementPDF(stmt *statement.Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Owner Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Properties: %s", propertyList(stmt.PropertyIDs)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s (%s)", stmt.Period.Start, stmt.Period.End, stmt.Period.Calculation))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Version: %d", stmt.Version))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", stmt.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", stmt.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	if stmt.CalendarConversionNotice != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, stmt.CalendarConversionNotice, "", "L", false)
		pdf.SetFont("Arial", "", 10)
		pdf.Ln(3)
	}

	// Reservation lines. The commission column shows the displayed fee even
	// when nothing was deducted, so waived and co-host rows stay legible.
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(24, 6, "Check-in", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Check-out", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Channel", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.CellFormat(26, 6, "PM Fee", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Tax", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Cleaning", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Payout", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range stmt.Lines {
		pdf.CellFormat(24, 6, line.CheckIn.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, line.CheckOut.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, channelLabel(line), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.2f", statement.RoundCurrency(line.Revenue)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, fmt.Sprintf("%.2f", statement.RoundCurrency(line.FeeDisplayed)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.2f", statement.RoundCurrency(line.TaxAdded)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(22, 6, fmt.Sprintf("%.2f", statement.RoundCurrency(line.CleaningFee)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.2f", statement.RoundCurrency(line.Payout)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(stmt.Expenses) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(28, 6, "Date", "1", 0, "C", false, 0, "")
		pdf.CellFormat(110, 6, "Expense", "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, "Amount", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, exp := range stmt.Expenses {
			pdf.CellFormat(28, 6, exp.Date.String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(110, 6, exp.Description, "1", 0, "L", false, 0, "")
			pdf.CellFormat(28, 6, fmt.Sprintf("%.2f", statement.RoundCurrency(exp.Amount)), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total Revenue: %.2f", statement.RoundCurrency(stmt.TotalRevenue)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("PM Commission: %.2f (deducted %.2f)",
		statement.RoundCurrency(stmt.CommissionDisplayed), statement.RoundCurrency(stmt.CommissionDeducted)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tax Added: %.2f", statement.RoundCurrency(stmt.TaxAdded)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Cleaning Fees: %.2f", statement.RoundCurrency(stmt.CleaningFeeActual)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Expenses: %.2f", statement.RoundCurrency(stmt.ExpenseTotal)))
	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Owner Payout: %.2f", statement.RoundCurrency(stmt.OwnerPayout)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatementXLSX renders an owner statement as an XLSX workbook.
func BuildStatementXLSX(stmt *statement.Statement) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	linesSheet := "reservations"
	expenseSheet := "expenses"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(linesSheet)
	f.NewSheet(expenseSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Owner Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Properties")
	_ = f.SetCellValue(summarySheet, "B3", propertyList(stmt.PropertyIDs))
	_ = f.SetCellValue(summarySheet, "A4", "Period Start")
	_ = f.SetCellValue(summarySheet, "B4", stmt.Period.Start.String())
	_ = f.SetCellValue(summarySheet, "A5", "Period End")
	_ = f.SetCellValue(summarySheet, "B5", stmt.Period.End.String())
	_ = f.SetCellValue(summarySheet, "A6", "Calculation")
	_ = f.SetCellValue(summarySheet, "B6", string(stmt.Period.Calculation))
	_ = f.SetCellValue(summarySheet, "A7", "Version")
	_ = f.SetCellValue(summarySheet, "B7", stmt.Version)
	_ = f.SetCellValue(summarySheet, "A8", "Status")
	_ = f.SetCellValue(summarySheet, "B8", stmt.Status)
	_ = f.SetCellValue(summarySheet, "A9", "Total Revenue")
	_ = f.SetCellValue(summarySheet, "B9", statement.RoundCurrency(stmt.TotalRevenue))
	_ = f.SetCellValue(summarySheet, "A10", "PM Commission")
	_ = f.SetCellValue(summarySheet, "B10", statement.RoundCurrency(stmt.CommissionDisplayed))
	_ = f.SetCellValue(summarySheet, "A11", "PM Commission Deducted")
	_ = f.SetCellValue(summarySheet, "B11", statement.RoundCurrency(stmt.CommissionDeducted))
	_ = f.SetCellValue(summarySheet, "A12", "Tax Added")
	_ = f.SetCellValue(summarySheet, "B12", statement.RoundCurrency(stmt.TaxAdded))
	_ = f.SetCellValue(summarySheet, "A13", "Cleaning Fees")
	_ = f.SetCellValue(summarySheet, "B13", statement.RoundCurrency(stmt.CleaningFeeActual))
	_ = f.SetCellValue(summarySheet, "A14", "Expenses")
	_ = f.SetCellValue(summarySheet, "B14", statement.RoundCurrency(stmt.ExpenseTotal))
	_ = f.SetCellValue(summarySheet, "A15", "Owner Payout")
	_ = f.SetCellValue(summarySheet, "B15", statement.RoundCurrency(stmt.OwnerPayout))
	if stmt.CalendarConversionNotice != "" {
		_ = f.SetCellValue(summarySheet, "A17", "Notice")
		_ = f.SetCellValue(summarySheet, "B17", stmt.CalendarConversionNotice)
	}

	_ = f.SetCellValue(linesSheet, "A1", "Reservation")
	_ = f.SetCellValue(linesSheet, "B1", "Property")
	_ = f.SetCellValue(linesSheet, "C1", "Channel")
	_ = f.SetCellValue(linesSheet, "D1", "Check-in")
	_ = f.SetCellValue(linesSheet, "E1", "Check-out")
	_ = f.SetCellValue(linesSheet, "F1", "Revenue")
	_ = f.SetCellValue(linesSheet, "G1", "PM Fee")
	_ = f.SetCellValue(linesSheet, "H1", "PM Fee Deducted")
	_ = f.SetCellValue(linesSheet, "I1", "Tax Added")
	_ = f.SetCellValue(linesSheet, "J1", "Cleaning")
	_ = f.SetCellValue(linesSheet, "K1", "Payout")
	for i, line := range stmt.Lines {
		row := i + 2
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("A%d", row), line.ReservationID)
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("B%d", row), int64(line.PropertyID))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("C%d", row), channelLabel(line))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("D%d", row), line.CheckIn.String())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("E%d", row), line.CheckOut.String())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("F%d", row), statement.RoundCurrency(line.Revenue))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("G%d", row), statement.RoundCurrency(line.FeeDisplayed))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("H%d", row), statement.RoundCurrency(line.FeeDeducted))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("I%d", row), statement.RoundCurrency(line.TaxAdded))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("J%d", row), statement.RoundCurrency(line.CleaningFee))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("K%d", row), statement.RoundCurrency(line.Payout))
	}

	_ = f.SetCellValue(expenseSheet, "A1", "Date")
	_ = f.SetCellValue(expenseSheet, "B1", "Description")
	_ = f.SetCellValue(expenseSheet, "C1", "Amount")
	for i, exp := range stmt.Expenses {
		row := i + 2
		_ = f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", row), exp.Date.String())
		_ = f.SetCellValue(expenseSheet, fmt.Sprintf("B%d", row), exp.Description)
		_ = f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", row), statement.RoundCurrency(exp.Amount))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

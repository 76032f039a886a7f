package notify

import (
	"context"
	"fmt"
	"strings"

	statement "stayledger/internal/statement/domain"
)

// Mailer delivers owner statements. Delivery transport is a collaborator of
// the engine, not part of it; callers gate every send on the domain's
// CanSendEmail decision before reaching a Mailer.
type Mailer interface {
	IsConfigured() bool
	Send(ctx context.Context, to, subject string, stmt *statement.Statement) error
}

// FormatStatementBody renders the plain-text email body for a statement.
func FormatStatementBody(stmt *statement.Statement) string {
	if stmt == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Owner statement %s - %s\n\n", stmt.Period.Start, stmt.Period.End)
	fmt.Fprintf(&b, "Revenue: %.2f\n", statement.RoundCurrency(stmt.TotalRevenue))
	fmt.Fprintf(&b, "Management fee: %.2f\n", statement.RoundCurrency(stmt.CommissionDisplayed))
	if stmt.CommissionDeducted != stmt.CommissionDisplayed {
		fmt.Fprintf(&b, "Management fee deducted: %.2f\n", statement.RoundCurrency(stmt.CommissionDeducted))
	}
	if stmt.TaxAdded != 0 {
		fmt.Fprintf(&b, "Tax added: %.2f\n", statement.RoundCurrency(stmt.TaxAdded))
	}
	if stmt.CleaningFeeActual != 0 {
		fmt.Fprintf(&b, "Cleaning fees: %.2f\n", statement.RoundCurrency(stmt.CleaningFeeActual))
	}
	if stmt.ExpenseTotal != 0 {
		fmt.Fprintf(&b, "Expenses: %.2f\n", statement.RoundCurrency(stmt.ExpenseTotal))
	}
	fmt.Fprintf(&b, "Owner payout: %.2f\n", statement.RoundCurrency(stmt.OwnerPayout))
	if stmt.ShouldConvertToCalendar {
		fmt.Fprintf(&b, "\nNote: %s\n", stmt.CalendarConversionNotice)
	}
	return b.String()
}

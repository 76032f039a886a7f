package statement

import (
	"fmt"
	"regexp"
)

// ReasonNegativeBalance is the guardrail reason code for negative payouts.
const ReasonNegativeBalance = "NEGATIVE_BALANCE"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// GuardrailResult is the outcome of the negative-balance gate.
type GuardrailResult struct {
	CanSend bool   `json:"can_send"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// CheckNegativeBalanceGuardrail is the single gate called before any
// automated send. A negative owner payout is not an error, it is a statement
// state requiring human review. A missing statement contributes a zero
// payout here; "no statement" is reported by CanSendEmail instead.
func CheckNegativeBalanceGuardrail(stmt *Statement) GuardrailResult {
	var payout float64
	if stmt != nil {
		payout = stmt.OwnerPayout
	}
	if payout < 0 {
		return GuardrailResult{
			CanSend: false,
			Reason:  ReasonNegativeBalance,
			Message: fmt.Sprintf("owner payout is negative (%.2f); statement requires review before sending", payout),
		}
	}
	return GuardrailResult{CanSend: true}
}

// ValidEmail reports whether the address matches the local@domain.tld shape.
func ValidEmail(address string) bool {
	return emailPattern.MatchString(address)
}

// CanSendEmail aggregates every independent reason an automated send is
// blocked. All applicable reasons are reported, not just the first; an empty
// slice means the send may proceed.
func CanSendEmail(stmt *Statement, recipientEmail string, smtpConfigured bool) []string {
	var reasons []string
	if !smtpConfigured {
		reasons = append(reasons, "smtp is not configured")
	}
	switch {
	case recipientEmail == "":
		reasons = append(reasons, "recipient email is missing")
	case !ValidEmail(recipientEmail):
		reasons = append(reasons, fmt.Sprintf("recipient email %q is invalid", recipientEmail))
	}
	if stmt == nil {
		reasons = append(reasons, "no statement to send")
	}
	if guard := CheckNegativeBalanceGuardrail(stmt); !guard.CanSend {
		reasons = append(reasons, guard.Message)
	}
	return reasons
}

package application

import (
	"fmt"
	"strings"

	statement "stayledger/internal/statement/domain"
)

// Statement delivery frequencies, derived from property tags.
const (
	FrequencyWeekly   = "Weekly"
	FrequencyBiWeekly = "Bi-Weekly"
	FrequencyMonthly  = "Monthly"
)

// FrequencyFromTags interprets property tags as a delivery frequency.
// Matching is case-insensitive and exact per tag; anything unrecognized
// falls through to Monthly.
func FrequencyFromTags(tags []string) string {
	for _, tag := range tags {
		switch strings.ToLower(strings.TrimSpace(tag)) {
		case "weekly":
			return FrequencyWeekly
		case "bi-weekly":
			return FrequencyBiWeekly
		case "monthly":
			return FrequencyMonthly
		}
	}
	return FrequencyMonthly
}

// EmailSubject builds the owner-statement subject line for a period.
// Weekly and bi-weekly statements use the numeric span with no leading
// zeros; monthly statements use the end date's month and year.
func EmailSubject(frequency string, start, end statement.Date) string {
	switch frequency {
	case FrequencyWeekly, FrequencyBiWeekly:
		return fmt.Sprintf("Owner Statement - %d.%d-%d.%d.%d",
			int(start.Month), start.Day, int(end.Month), end.Day, end.Year)
	default:
		return fmt.Sprintf("Owner Statement - %s %d", end.Month.String(), end.Year)
	}
}

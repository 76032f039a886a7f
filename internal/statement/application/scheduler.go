package application

import (
	"context"
	"log"
	"time"

	"stayledger/internal/notify"
	"stayledger/internal/observability/metrics"
	statement "stayledger/internal/statement/domain"
)

// TagSource reads delivery tags for a property.
type TagSource interface {
	PropertyTags(ctx context.Context, tenantID string, propertyID statement.PropertyID) ([]string, error)
}

// Scheduler delivers recurring owner statements. It ticks every minute,
// fires at the configured daily time, and decides per property whether the
// day closes a weekly, bi-weekly or monthly period.
type Scheduler struct {
	service *StatementService
	mailer  notify.Mailer
	cfg     AutomationConfig
	tags    TagSource
	logger  *log.Logger
}

// NewScheduler constructs a Scheduler. tags may be nil; it supplies delivery
// tags for properties the automation config lists without any.
func NewScheduler(service *StatementService, mailer notify.Mailer, cfg AutomationConfig, tags TagSource, logger *log.Logger) *Scheduler {
	return &Scheduler{service: service, mailer: mailer, cfg: cfg, tags: tags, logger: logger}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.service == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.RunOnce(ctx, statement.DateOf(now.UTC()))
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	t, err := time.Parse("15:04", s.cfg.DailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == t.Hour() && now.Minute() == t.Minute()
}

// RunOnce processes every configured property for the given day.
func (s *Scheduler) RunOnce(ctx context.Context, today statement.Date) {
	metrics.IncSchedulerRun()
	for _, prop := range s.cfg.Properties {
		tags := prop.Tags
		if len(tags) == 0 && s.tags != nil {
			loaded, err := s.tags.PropertyTags(ctx, s.service.TenantID(), statement.PropertyID(prop.PropertyID))
			if err != nil {
				s.logf("statement tags error: property=%d err=%v", prop.PropertyID, err)
			} else {
				tags = loaded
			}
		}
		frequency := FrequencyFromTags(tags)
		period, due := PeriodClosing(frequency, today)
		if !due {
			continue
		}
		s.deliver(ctx, prop, frequency, period.Start, period.End)
	}
}

func (s *Scheduler) deliver(ctx context.Context, prop AutomationProperty, frequency string, start, end statement.Date) {
	stmt, err := s.service.Generate(ctx, GenerateRequest{
		PropertyIDs:    []statement.PropertyID{statement.PropertyID(prop.PropertyID)},
		Start:          start,
		End:            end,
		Calculation:    statement.CalculationType(s.cfg.CalculationType),
		RecipientEmail: prop.Recipient,
	})
	if err != nil {
		if err == statement.ErrNothingToBill {
			return
		}
		s.logf("statement schedule error: property=%d err=%v", prop.PropertyID, err)
		return
	}

	smtpConfigured := s.mailer != nil && s.mailer.IsConfigured()
	reasons := statement.CanSendEmail(stmt, prop.Recipient, smtpConfigured)
	if len(reasons) > 0 {
		// A negative balance still transitions the statement so it lands in
		// the review queue; every other reason only logs.
		if guard := statement.CheckNegativeBalanceGuardrail(stmt); !guard.CanSend {
			if _, err := s.service.Apply(ctx, stmt.ID, statement.ActionSend); err != nil {
				s.logf("statement flag error: id=%s err=%v", stmt.ID, err)
			}
		}
		s.logf("statement send blocked: id=%s reasons=%v", stmt.ID, reasons)
		metrics.IncStatementSend(metrics.SendBlocked)
		return
	}

	subject := EmailSubject(frequency, start, end)
	if err := s.mailer.Send(ctx, prop.Recipient, subject, stmt); err != nil {
		s.logf("statement send error: id=%s err=%v", stmt.ID, err)
		metrics.IncStatementSend(metrics.SendError)
		return
	}
	if _, err := s.service.Apply(ctx, stmt.ID, statement.ActionSend); err != nil {
		s.logf("statement status error: id=%s err=%v", stmt.ID, err)
	}
	metrics.IncStatementSend(metrics.SendSuccess)
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// PeriodClosing returns the statement period a frequency closes on the given
// day, and whether the day closes one at all. Monthly periods close on the
// first of the month for the previous month; weekly on Mondays for the
// previous Monday through Sunday; bi-weekly on Mondays of even ISO weeks for
// the previous fourteen days.
func PeriodClosing(frequency string, today statement.Date) (statement.Period, bool) {
	weekday := today.Time().Weekday()
	switch frequency {
	case FrequencyWeekly:
		if weekday != time.Monday {
			return statement.Period{}, false
		}
		return statement.Period{Start: today.AddDays(-7), End: today.AddDays(-1)}, true
	case FrequencyBiWeekly:
		_, week := today.Time().ISOWeek()
		if weekday != time.Monday || week%2 != 0 {
			return statement.Period{}, false
		}
		return statement.Period{Start: today.AddDays(-14), End: today.AddDays(-1)}, true
	default:
		if today.Day != 1 {
			return statement.Period{}, false
		}
		end := today.AddDays(-1)
		start := statement.Date{Year: end.Year, Month: end.Month, Day: 1}
		return statement.Period{Start: start, End: end}, true
	}
}

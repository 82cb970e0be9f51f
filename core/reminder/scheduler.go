package reminder

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/sae"
)

var (
	nowFunc   = time.Now   // mockable
	pauseFunc = time.Sleep // mockable
)

// Email template names. Which template a pass uses is a parameter: the
// scheduler itself is agnostic to template choice.
const (
	TemplateReminder = "reminder"
	// TemplateReminderUrgent is the escalation template for due-tomorrow
	// reminders.
	TemplateReminderUrgent = "reminder_urgent"
)

// TemplateForDelay routes 1-day reminders to the urgent template.
func TemplateForDelay(delayDays int) string {
	if delayDays <= 1 {
		return TemplateReminderUrgent
	}
	return TemplateReminder
}

type (
	// Scheduler queries attributions approaching their due date, filters out
	// combinations already reminded today and dispatches the rest.
	Scheduler struct {
		saeRepo sae.Repository
		tracker *Tracker
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
	}

	reminderData struct {
		StudentName    string
		SaeTitle       string
		DueDate        time.Time
		SupervisorName string
		DelayDays      int
	}
)

func NewScheduler(saeRepo sae.Repository, tracker *Tracker, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Scheduler {
	return &Scheduler{
		saeRepo: saeRepo,
		tracker: tracker,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
}

// SendImmediate dispatches a reminder to every attribution due in exactly
// delayDays days, skipping combinations already reminded today. Individual
// send failures land in Stats.Failed and never abort the batch; only a
// storage outage is returned as an error.
func (s *Scheduler) SendImmediate(ctx context.Context, delayDays int, template string) (Stats, error) {
	due, err := s.saeRepo.FindAttributionsDueIn(ctx, delayDays)
	if err != nil {
		return Stats{}, errors.Wrap(err, "finding due attributions")
	}

	today := nowFunc()
	stats := Stats{Total: len(due)}
	for i, row := range due {
		if i > 0 {
			// spread out sends within a pass
			pauseFunc(s.conf.Reminder.SendPause)
		}

		if s.tracker.AlreadySent(ctx, row.SaeID, row.StudentID, row.DueDate, delayDays, today) {
			stats.Skipped++
			continue
		}

		if err := s.mailSvc.SendMessage(s.newReminderMessage(row, delayDays, template)); err != nil {
			// not marked sent: a retried pass can still reach this student today
			stats.Failed++
			s.logger.Error(fmt.Sprintf("sending reminder to %s: %v", row.StudentEmail, err), err)
			continue
		}

		key := TrackingKey(row.SaeID, row.StudentID, row.DueDate, delayDays)
		if err := s.tracker.MarkSent(ctx, key, today); err != nil {
			// fail open: worst case is a duplicate reminder on the next pass
			s.logger.Warn(fmt.Sprintf("tracking reminder %s: %v", key, err), err)
		}
		stats.Sent++
	}
	return stats, nil
}

// RunAutomaticSweep performs one pass over every configured delay threshold,
// at most once per calendar day. The daily marker advances whatever the
// individual send outcomes were, so one bad recipient never wedges the
// marker; only a storage outage leaves it untouched for a retry on the
// next trigger. Deployments running sweeps from multiple processes
// must serialize the check-and-record pair externally.
func (s *Scheduler) RunAutomaticSweep(ctx context.Context, today time.Time) error {
	if !s.tracker.ShouldRunAutomaticCheck(ctx, today) {
		return nil
	}

	for _, delay := range s.tracker.Delays(ctx) {
		stats, err := s.SendImmediate(ctx, delay, TemplateForDelay(delay))
		if err != nil {
			return errors.Wrapf(err, "sweeping %d-day reminders", delay)
		}
		s.logger.Info(fmt.Sprintf(
			"%d-day reminder sweep: %d due, %d sent, %d failed, %d skipped",
			delay, stats.Total, stats.Sent, stats.Failed, stats.Skipped,
		))
	}

	return s.tracker.RecordCheckRan(ctx, today)
}

func (s *Scheduler) newReminderMessage(row sae.DueAttribution, delayDays int, template string) *core.EmailMessage {
	subject := fmt.Sprintf("SAE %q is due in %d days", row.SaeTitle, delayDays)
	if delayDays <= 1 {
		subject = fmt.Sprintf("SAE %q is due tomorrow", row.SaeTitle)
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: row.StudentName, Address: row.StudentEmail}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: reminderData{
			StudentName:    row.StudentName,
			SaeTitle:       row.SaeTitle,
			DueDate:        row.DueDate,
			SupervisorName: row.SupervisorName,
			DelayDays:      delayDays,
		},
	}
}

package reminder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/tchaleu/saetrack/core"
)

// Tracker owns the reminder tracking state. Reads fail open: a tracking
// storage outage degrades to possible duplicate reminders rather than
// silently withholding deadline notices.
type Tracker struct {
	repo   Repository
	logger core.Logger
}

func NewTracker(repo Repository, logger core.Logger) *Tracker {
	return &Tracker{
		repo:   repo,
		logger: logger,
	}
}

// AlreadySent reports whether the reminder identified by the attribution and
// delay was already dispatched today.
func (t *Tracker) AlreadySent(ctx context.Context, saeID, studentID int, due time.Time, delayDays int, today time.Time) bool {
	key := TrackingKey(saeID, studentID, due, delayDays)
	sentOn, err := t.repo.GetSentDate(ctx, key)
	if err != nil {
		if err != ErrRecordNotFound {
			// fail open
			t.logger.Warn(fmt.Sprintf("reading sent record: %v", err), err)
		}
		return false
	}
	return sentOn.Equal(core.Day(today))
}

// MarkSent records that the reminder behind `key` went out today, and drops
// records older than the retention window in the same write cycle.
func (t *Tracker) MarkSent(ctx context.Context, key string, today time.Time) error {
	day := core.Day(today)
	if err := t.repo.MarkSent(ctx, key, day); err != nil {
		return errors.Wrap(err, "marking reminder sent")
	}
	if err := t.repo.PurgeSentBefore(ctx, day.AddDate(0, 0, -retentionDays)); err != nil {
		t.logger.Warn(fmt.Sprintf("purging stale sent records: %v", err), err)
	}
	return nil
}

// Delays returns the configured delay thresholds, falling back to
// DefaultDelays when unset or unreadable.
func (t *Tracker) Delays(ctx context.Context) []int {
	delays, err := t.repo.GetDelays(ctx)
	if err != nil {
		t.logger.Warn(fmt.Sprintf("reading delay config: %v", err), err)
	}
	if len(delays) == 0 {
		return append([]int(nil), DefaultDelays...)
	}
	return delays
}

// SetDelays replaces the configured delay set. Values are validated against
// the 1-30 day range before any write, deduplicated and stored largest
// first (display priority only).
func (t *Tracker) SetDelays(ctx context.Context, delays []int) error {
	if len(delays) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "delays", Error: "at least one delay is required"})
	}

	seen := make(map[int]bool, len(delays))
	cleaned := make([]int, 0, len(delays))
	for _, d := range delays {
		if d < 1 || d > MaxDelayDays {
			return core.NewValidationError(nil, core.FieldError{
				Field: "delays",
				Error: fmt.Sprintf("delay %d is out of range; must be between 1 and %d days", d, MaxDelayDays),
			})
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		cleaned = append(cleaned, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(cleaned)))

	if err := t.repo.SetDelays(ctx, cleaned); err != nil {
		return errors.Wrap(err, "storing delay config")
	}
	return nil
}

// ShouldRunAutomaticCheck reports whether the automatic sweep has not yet run
// today. It does not advance the marker: callers must call RecordCheckRan
// after a successful pass, so a crash mid-sweep retries on the next trigger
// instead of silently skipping a day.
func (t *Tracker) ShouldRunAutomaticCheck(ctx context.Context, today time.Time) bool {
	last, err := t.repo.GetLastCheck(ctx)
	if err != nil {
		// fail open
		t.logger.Warn(fmt.Sprintf("reading last check marker: %v", err), err)
		return true
	}
	return !core.Day(today).Equal(last)
}

// RecordCheckRan advances the daily marker.
func (t *Tracker) RecordCheckRan(ctx context.Context, today time.Time) error {
	if err := t.repo.SetLastCheck(ctx, core.Day(today)); err != nil {
		return errors.Wrap(err, "recording check marker")
	}
	return nil
}

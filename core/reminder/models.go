package reminder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// DefaultDelays is the delay-threshold set used until an admin configures
	// their own: reminders at 10, 7 and 3 days out, urgent at 1 day out.
	DefaultDelays = []int{10, 7, 3, 1}

	// errors
	ErrRecordNotFound = errors.New("reminder record not found")
)

// MaxDelayDays caps configurable delay thresholds.
const MaxDelayDays = 30

// retentionDays is how long sent-records are kept before the retention sweep
// drops them.
const retentionDays = MaxDelayDays

type (
	// SentRecord maps a tracking key to the calendar date its reminder was
	// last sent, guaranteeing at-most-once-per-day delivery.
	SentRecord struct {
		Key    string    `db:"key"`
		SentOn time.Time `db:"sent_on"` // UTC, date precision
	}

	// Stats aggregates the outcome of one reminder pass.
	Stats struct {
		Total   int `json:"total"`
		Sent    int `json:"sent"`
		Failed  int `json:"failed"`
		Skipped int `json:"skipped"`
	}

	// Repository persists the tracking state: the sent-record set, the
	// configured delay thresholds and the last automatic check marker.
	Repository interface {
		GetSentDate(ctx context.Context, key string) (time.Time, error)
		MarkSent(ctx context.Context, key string, day time.Time) error
		PurgeSentBefore(ctx context.Context, day time.Time) error

		GetDelays(ctx context.Context) ([]int, error)
		SetDelays(ctx context.Context, delays []int) error

		GetLastCheck(ctx context.Context) (time.Time, error)
		SetLastCheck(ctx context.Context, day time.Time) error
	}
)

// TrackingKey derives the deterministic reminder deduplication key from an
// attribution and a delay threshold.
func TrackingKey(saeID, studentID int, due time.Time, delayDays int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%s|%d", saeID, studentID, due.UTC().Format("2006-01-02"), delayDays)))
	return hex.EncodeToString(h[:])
}

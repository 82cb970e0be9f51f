package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/reminder"
)

// reminderRepository persists the reminder tracking state: the sent-record
// table plus the single-row config table (delays + last-check marker),
// guarded by the storage engine's own concurrency control.
type reminderRepository struct {
	db core.DBExecutor
}

var _ reminder.Repository = (*reminderRepository)(nil) // interface compliance check

func NewReminderRepository(db core.DBExecutor) *reminderRepository {
	return &reminderRepository{db: db}
}

func (repo reminderRepository) GetSentDate(ctx context.Context, key string) (time.Time, error) {
	var sentOn time.Time
	query := `SELECT sent_on FROM reminder_sent WHERE key = $1`
	if err := repo.db.GetContext(ctx, &sentOn, query, key); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, reminder.ErrRecordNotFound
		}
		return time.Time{}, errors.Wrap(err, "getting sent record")
	}
	return core.Day(sentOn), nil
}

func (repo reminderRepository) MarkSent(ctx context.Context, key string, day time.Time) error {
	query := `INSERT INTO reminder_sent (key, sent_on) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET sent_on = EXCLUDED.sent_on`
	if _, err := repo.db.ExecContext(ctx, query, key, day); err != nil {
		return errors.Wrap(err, "upserting sent record")
	}
	return nil
}

func (repo reminderRepository) PurgeSentBefore(ctx context.Context, day time.Time) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM reminder_sent WHERE sent_on < $1`, day); err != nil {
		return errors.Wrap(err, "purging sent records")
	}
	return nil
}

func (repo reminderRepository) GetDelays(ctx context.Context) ([]int, error) {
	var stored pq.Int64Array
	query := `SELECT delays FROM reminder_config WHERE id = 1`
	if err := repo.db.GetContext(ctx, &stored, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting delay config")
	}
	delays := make([]int, 0, len(stored))
	for _, d := range stored {
		delays = append(delays, int(d))
	}
	return delays, nil
}

func (repo reminderRepository) SetDelays(ctx context.Context, delays []int) error {
	stored := make(pq.Int64Array, 0, len(delays))
	for _, d := range delays {
		stored = append(stored, int64(d))
	}
	query := `INSERT INTO reminder_config (id, delays) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET delays = EXCLUDED.delays`
	if _, err := repo.db.ExecContext(ctx, query, stored); err != nil {
		return errors.Wrap(err, "upserting delay config")
	}
	return nil
}

func (repo reminderRepository) GetLastCheck(ctx context.Context) (time.Time, error) {
	var lastCheck null.Time
	query := `SELECT last_check FROM reminder_config WHERE id = 1`
	if err := repo.db.GetContext(ctx, &lastCheck, query); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, errors.Wrap(err, "getting last check marker")
	}
	if !lastCheck.Valid {
		return time.Time{}, nil
	}
	return core.Day(lastCheck.Time), nil
}

func (repo reminderRepository) SetLastCheck(ctx context.Context, day time.Time) error {
	query := `INSERT INTO reminder_config (id, delays, last_check) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET last_check = EXCLUDED.last_check`
	stored := make(pq.Int64Array, 0, len(reminder.DefaultDelays))
	for _, d := range reminder.DefaultDelays {
		stored = append(stored, int64(d))
	}
	if _, err := repo.db.ExecContext(ctx, query, stored, day); err != nil {
		return errors.Wrap(err, "upserting last check marker")
	}
	return nil
}

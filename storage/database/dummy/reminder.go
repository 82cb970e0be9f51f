package dummydb

import (
	"context"
	"time"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/reminder"
)

type reminderRepository struct {
	db *reminderState

	// FailNext makes every call return this error until cleared; for
	// exercising the fail-open tracking paths in tests.
	FailNext error
}

var _ reminder.Repository = (*reminderRepository)(nil) // interface compliance check

func NewReminderRepository(db *DB) *reminderRepository {
	return &reminderRepository{db: db.reminder}
}

func (repo *reminderRepository) GetSentDate(ctx context.Context, key string) (time.Time, error) {
	if repo.FailNext != nil {
		return time.Time{}, repo.FailNext
	}
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sentOn, ok := repo.db.sent[key]; ok {
		return sentOn, nil
	}
	return time.Time{}, reminder.ErrRecordNotFound
}

func (repo *reminderRepository) MarkSent(ctx context.Context, key string, day time.Time) error {
	if repo.FailNext != nil {
		return repo.FailNext
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.sent[key] = core.Day(day)
	return nil
}

func (repo *reminderRepository) PurgeSentBefore(ctx context.Context, day time.Time) error {
	if repo.FailNext != nil {
		return repo.FailNext
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	for key, sentOn := range repo.db.sent {
		if sentOn.Before(core.Day(day)) {
			delete(repo.db.sent, key)
		}
	}
	return nil
}

func (repo *reminderRepository) GetDelays(ctx context.Context) ([]int, error) {
	if repo.FailNext != nil {
		return nil, repo.FailNext
	}
	repo.db.RLock()
	defer repo.db.RUnlock()

	return append([]int(nil), repo.db.delays...), nil
}

func (repo *reminderRepository) SetDelays(ctx context.Context, delays []int) error {
	if repo.FailNext != nil {
		return repo.FailNext
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.delays = append([]int(nil), delays...)
	return nil
}

func (repo *reminderRepository) GetLastCheck(ctx context.Context) (time.Time, error) {
	if repo.FailNext != nil {
		return time.Time{}, repo.FailNext
	}
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.lastCheck, nil
}

func (repo *reminderRepository) SetLastCheck(ctx context.Context, day time.Time) error {
	if repo.FailNext != nil {
		return repo.FailNext
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.lastCheck = core.Day(day)
	return nil
}

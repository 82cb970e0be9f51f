package reminder_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/reminder"
	dummydb "github.com/tchaleu/saetrack/storage/database/dummy"
	testutil "github.com/tchaleu/saetrack/tests"
)

func setupTracker(t *testing.T) (*reminder.Tracker, *dummydb.DB) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return reminder.NewTracker(dummydb.NewReminderRepository(db), testutil.NewLogger(t)), db
}

func TestTrackingKey(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	key := reminder.TrackingKey(1, 2, due, 7)
	if key != reminder.TrackingKey(1, 2, due, 7) {
		t.Error("same inputs must yield the same key")
	}
	if key != reminder.TrackingKey(1, 2, due.Add(10*time.Hour), 7) {
		t.Error("the key must only depend on the due date's calendar day")
	}

	variants := []string{
		reminder.TrackingKey(9, 2, due, 7),
		reminder.TrackingKey(1, 9, due, 7),
		reminder.TrackingKey(1, 2, due.AddDate(0, 0, 1), 7),
		reminder.TrackingKey(1, 2, due, 3),
	}
	for i, variant := range variants {
		if variant == key {
			t.Errorf("variant %d should differ from the base key", i)
		}
	}
}

func TestTracker_AlreadySent(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 9, 3, 9, 15, 0, 0, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		tracker, _ := setupTracker(t)

		if tracker.AlreadySent(ctx, 1, 2, due, 7, today) {
			t.Error("AlreadySent() = true before any send")
		}

		key := reminder.TrackingKey(1, 2, due, 7)
		if err := tracker.MarkSent(ctx, key, today); err != nil {
			t.Fatalf("MarkSent() failed: %v", err)
		}

		if !tracker.AlreadySent(ctx, 1, 2, due, 7, today) {
			t.Error("AlreadySent() = false after MarkSent")
		}
		if tracker.AlreadySent(ctx, 1, 2, due, 7, today.AddDate(0, 0, 1)) {
			t.Error("AlreadySent() = true on the next day")
		}
		if tracker.AlreadySent(ctx, 1, 3, due, 7, today) {
			t.Error("AlreadySent() = true for another student")
		}
	})

	t.Run("fails open on storage errors", func(t *testing.T) {
		db, err := dummydb.Open()
		if err != nil {
			t.Fatalf("dummydb.Open() failed: %v", err)
		}
		repo := dummydb.NewReminderRepository(db)
		tracker := reminder.NewTracker(repo, testutil.NewLogger(t))

		repo.FailNext = errors.New("connection refused")
		if tracker.AlreadySent(ctx, 1, 2, due, 7, today) {
			t.Error("AlreadySent() must report false when the tracking store is down")
		}
	})
}

func TestTracker_MarkSent_purgesStaleRecords(t *testing.T) {
	ctx := context.Background()
	tracker, db := setupTracker(t)
	repo := dummydb.NewReminderRepository(db)

	today := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	staleKey := reminder.TrackingKey(1, 1, today, 1)
	if err := repo.MarkSent(ctx, staleKey, today.AddDate(0, 0, -31)); err != nil {
		t.Fatalf("MarkSent() failed: %v", err)
	}

	freshKey := reminder.TrackingKey(2, 2, today.AddDate(0, 0, 7), 7)
	if err := tracker.MarkSent(ctx, freshKey, today); err != nil {
		t.Fatalf("MarkSent() failed: %v", err)
	}

	if _, err := repo.GetSentDate(ctx, staleKey); err != reminder.ErrRecordNotFound {
		t.Errorf("stale record error = %v, want %v", err, reminder.ErrRecordNotFound)
	}
	if _, err := repo.GetSentDate(ctx, freshKey); err != nil {
		t.Errorf("fresh record should be kept: %v", err)
	}
}

func TestTracker_Delays(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to defaults", func(t *testing.T) {
		tracker, _ := setupTracker(t)
		if got := tracker.Delays(ctx); !reflect.DeepEqual(got, reminder.DefaultDelays) {
			t.Errorf("Delays() = %v, want %v", got, reminder.DefaultDelays)
		}
	})

	t.Run("falls back to defaults when unreadable", func(t *testing.T) {
		db, err := dummydb.Open()
		if err != nil {
			t.Fatalf("dummydb.Open() failed: %v", err)
		}
		repo := dummydb.NewReminderRepository(db)
		tracker := reminder.NewTracker(repo, testutil.NewLogger(t))

		repo.FailNext = errors.New("connection refused")
		if got := tracker.Delays(ctx); !reflect.DeepEqual(got, reminder.DefaultDelays) {
			t.Errorf("Delays() = %v, want %v", got, reminder.DefaultDelays)
		}
	})
}

func TestTracker_SetDelays(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   []int
		want    []int
		wantErr bool
	}{
		{name: "empty set rejected", input: nil, wantErr: true},
		{name: "out of range high", input: []int{3, 45, 1}, wantErr: true},
		{name: "out of range low", input: []int{3, -1}, wantErr: true},
		{name: "mixed invalid rejected as a whole", input: []int{3, 45, -1, 3}, wantErr: true},
		{name: "duplicates deduped", input: []int{3, 1, 3}, want: []int{3, 1}},
		{name: "stored largest first", input: []int{1, 7, 30}, want: []int{30, 7, 1}},
		{name: "single delay", input: []int{14}, want: []int{14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, _ := setupTracker(t)

			err := tracker.SetDelays(ctx, tt.input)
			if tt.wantErr {
				if _, ok := err.(*core.ValidationError); !ok {
					t.Fatalf("SetDelays() error = %v, want *core.ValidationError", err)
				}
				// rejected writes must leave the config untouched
				if got := tracker.Delays(ctx); !reflect.DeepEqual(got, reminder.DefaultDelays) {
					t.Errorf("Delays() = %v, want untouched defaults %v", got, reminder.DefaultDelays)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetDelays() failed: %v", err)
			}
			if got := tracker.Delays(ctx); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Delays() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker_automaticCheckMarker(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 9, 3, 8, 0, 0, 0, time.UTC)

	t.Run("runs once per day", func(t *testing.T) {
		tracker, _ := setupTracker(t)

		if !tracker.ShouldRunAutomaticCheck(ctx, today) {
			t.Fatal("ShouldRunAutomaticCheck() = false before any check")
		}
		// reading the marker must not advance it
		if !tracker.ShouldRunAutomaticCheck(ctx, today) {
			t.Fatal("ShouldRunAutomaticCheck() advanced the marker on read")
		}

		if err := tracker.RecordCheckRan(ctx, today); err != nil {
			t.Fatalf("RecordCheckRan() failed: %v", err)
		}
		if tracker.ShouldRunAutomaticCheck(ctx, today.Add(5*time.Hour)) {
			t.Error("ShouldRunAutomaticCheck() = true again on the same day")
		}
		if !tracker.ShouldRunAutomaticCheck(ctx, today.AddDate(0, 0, 1)) {
			t.Error("ShouldRunAutomaticCheck() = false on the next day")
		}
	})

	t.Run("fails open on storage errors", func(t *testing.T) {
		db, err := dummydb.Open()
		if err != nil {
			t.Fatalf("dummydb.Open() failed: %v", err)
		}
		repo := dummydb.NewReminderRepository(db)
		tracker := reminder.NewTracker(repo, testutil.NewLogger(t))

		repo.FailNext = errors.New("connection refused")
		if !tracker.ShouldRunAutomaticCheck(ctx, today) {
			t.Error("ShouldRunAutomaticCheck() must report true when the marker is unreadable")
		}
	})
}

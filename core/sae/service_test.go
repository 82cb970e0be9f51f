package sae_test

import (
	"context"
	"testing"
	"time"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/sae"
	"github.com/tchaleu/saetrack/core/user"
	dummydb "github.com/tchaleu/saetrack/storage/database/dummy"
	testutil "github.com/tchaleu/saetrack/tests"
)

type serviceFixture struct {
	svc     sae.ServiceInterface
	repo    sae.Repository
	usrRepo user.Repository

	sup1, sup2, stu1, stu2, stu3 user.User
}

func setup(t *testing.T) *serviceFixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewSaeRepository(db)
	usrRepo := dummydb.NewUserRepository(db)

	fix := &serviceFixture{
		svc:     sae.NewService(repo, usrRepo, testutil.NewLogger(t)),
		repo:    repo,
		usrRepo: usrRepo,
	}
	fix.sup1 = testutil.CreateUser(t, usrRepo, "Prof Martin", "martin", "martin@univ.fr", "", []string{user.RoleSupervisor}, true)
	fix.sup2 = testutil.CreateUser(t, usrRepo, "Prof Dubois", "dubois", "dubois@univ.fr", "", []string{user.RoleSupervisor}, true)
	fix.stu1 = testutil.CreateUser(t, usrRepo, "Alice Petit", "alice", "alice@univ.fr", "", []string{user.RoleStudent}, true)
	fix.stu2 = testutil.CreateUser(t, usrRepo, "Bob Moreau", "bob", "bob@univ.fr", "", []string{user.RoleStudent}, true)
	fix.stu3 = testutil.CreateUser(t, usrRepo, "Chloé Roux", "chloe", "chloe@univ.fr", "", []string{user.RoleStudent}, true)
	return fix
}

func TestService_Attribute(t *testing.T) {
	ctx := context.Background()

	t.Run("SAE not found", func(t *testing.T) {
		fix := setup(t)
		if err := fix.svc.Attribute(ctx, 404, []int{fix.stu1.ID}, fix.sup1.ID); err != sae.ErrNotFound {
			t.Errorf("Attribute() error = %v, want %v", err, sae.ErrNotFound)
		}
	})

	t.Run("no students", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)

		err := fix.svc.Attribute(ctx, s.ID, nil, fix.sup1.ID)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Attribute() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("first attribution defaults the due date to today", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)

		if err := fix.svc.Attribute(ctx, s.ID, []int{fix.stu1.ID, fix.stu2.ID}, fix.sup1.ID); err != nil {
			t.Fatalf("Attribute() failed: %v", err)
		}

		atts, err := fix.repo.FindAttributionsBySae(ctx, s.ID)
		if err != nil {
			t.Fatalf("FindAttributionsBySae() failed: %v", err)
		}
		if len(atts) != 2 {
			t.Fatalf("got %d attributions, want 2", len(atts))
		}
		today := core.Day(time.Now())
		for _, att := range atts {
			if !att.DueDate.Equal(today) {
				t.Errorf("att %d due date = %v, want %v", att.ID, att.DueDate, today)
			}
			if att.SupervisorID != fix.sup1.ID {
				t.Errorf("att %d supervisor = %d, want %d", att.ID, att.SupervisorID, fix.sup1.ID)
			}
		}
	})

	t.Run("same supervisor extends the group with its due date", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)
		due := core.Day(time.Now().AddDate(0, 0, 14))
		testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu1.ID, fix.sup1.ID, due)

		if err := fix.svc.Attribute(ctx, s.ID, []int{fix.stu2.ID}, fix.sup1.ID); err != nil {
			t.Fatalf("Attribute() failed: %v", err)
		}

		att, err := fix.repo.GetAttribution(ctx, s.ID, fix.stu2.ID)
		if err != nil {
			t.Fatalf("GetAttribution() failed: %v", err)
		}
		if !att.DueDate.Equal(due) {
			t.Errorf("due date = %v, want group due date %v", att.DueDate, due)
		}
	})

	t.Run("another supervisor is rejected before any write", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)
		testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu1.ID, fix.sup1.ID, time.Now())

		err := fix.svc.Attribute(ctx, s.ID, []int{fix.stu2.ID, fix.stu3.ID}, fix.sup2.ID)
		conflict, ok := err.(*sae.AlreadyAssignedError)
		if !ok {
			t.Fatalf("Attribute() error = %v, want *sae.AlreadyAssignedError", err)
		}
		if conflict.SaeTitle != s.Title || conflict.SupervisorName != fix.sup1.Name {
			t.Errorf("conflict = %+v, want title %q and supervisor %q", conflict, s.Title, fix.sup1.Name)
		}
		if !sae.IsConflict(err) {
			t.Error("IsConflict() = false, want true")
		}

		if count, _ := fix.repo.CountAttributions(ctx, s.ID); count != 1 {
			t.Errorf("attribution count = %d, want 1", count)
		}
	})

	t.Run("already assigned student aborts mid-batch, earlier inserts stay", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)
		testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu2.ID, fix.sup1.ID, time.Now())

		err := fix.svc.Attribute(ctx, s.ID, []int{fix.stu1.ID, fix.stu2.ID, fix.stu3.ID}, fix.sup1.ID)
		conflict, ok := err.(*sae.StudentAssignedError)
		if !ok {
			t.Fatalf("Attribute() error = %v, want *sae.StudentAssignedError", err)
		}
		if conflict.StudentName != fix.stu2.Name {
			t.Errorf("conflict student = %q, want %q", conflict.StudentName, fix.stu2.Name)
		}

		// stu1 got in before the conflict, stu3 did not
		if _, err := fix.repo.GetAttribution(ctx, s.ID, fix.stu1.ID); err != nil {
			t.Errorf("GetAttribution(stu1) failed: %v", err)
		}
		if _, err := fix.repo.GetAttribution(ctx, s.ID, fix.stu3.ID); err != sae.ErrAttributionNotFound {
			t.Errorf("GetAttribution(stu3) error = %v, want %v", err, sae.ErrAttributionNotFound)
		}
	})
}

func TestService_Unassign(t *testing.T) {
	ctx := context.Background()

	t.Run("attribution not found", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)

		if err := fix.svc.Unassign(ctx, s.ID, fix.stu1.ID, fix.sup1.ID); err != sae.ErrAttributionNotFound {
			t.Errorf("Unassign() error = %v, want %v", err, sae.ErrAttributionNotFound)
		}
	})

	t.Run("only the attributing supervisor may unassign", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)
		testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu1.ID, fix.sup1.ID, time.Now())

		err := fix.svc.Unassign(ctx, s.ID, fix.stu1.ID, fix.sup2.ID)
		if _, ok := err.(*sae.UnauthorizedUnassignError); !ok {
			t.Fatalf("Unassign() error = %v, want *sae.UnauthorizedUnassignError", err)
		}
		if _, err := fix.repo.GetAttribution(ctx, s.ID, fix.stu1.ID); err != nil {
			t.Errorf("attribution should have been kept: %v", err)
		}
	})

	t.Run("owner unassigns", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)
		testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu1.ID, fix.sup1.ID, time.Now())

		if err := fix.svc.Unassign(ctx, s.ID, fix.stu1.ID, fix.sup1.ID); err != nil {
			t.Fatalf("Unassign() failed: %v", err)
		}
		if _, err := fix.repo.GetAttribution(ctx, s.ID, fix.stu1.ID); err != sae.ErrAttributionNotFound {
			t.Errorf("GetAttribution() error = %v, want %v", err, sae.ErrAttributionNotFound)
		}
	})
}

func TestService_UpdateDueDate(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)
	s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)
	testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu1.ID, fix.sup1.ID, time.Now())
	testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu2.ID, fix.sup1.ID, time.Now())

	due := time.Date(2026, 10, 2, 15, 30, 0, 0, time.UTC) // time part must be dropped
	if err := fix.svc.UpdateDueDate(ctx, s.ID, fix.sup1.ID, due); err != nil {
		t.Fatalf("UpdateDueDate() failed: %v", err)
	}

	atts, err := fix.repo.FindAttributionsBySae(ctx, s.ID)
	if err != nil {
		t.Fatalf("FindAttributionsBySae() failed: %v", err)
	}
	want := core.Day(due)
	for _, att := range atts {
		if !att.DueDate.Equal(want) {
			t.Errorf("att %d due date = %v, want %v", att.ID, att.DueDate, want)
		}
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("only the creator may delete", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)

		err := fix.svc.Delete(ctx, s.ID, fix.sup2.ID)
		if _, ok := err.(*sae.NotCreatorError); !ok {
			t.Errorf("Delete() error = %v, want *sae.NotCreatorError", err)
		}
	})

	t.Run("refused while students are assigned", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)
		testutil.CreateAttribution(t, fix.repo, s.ID, fix.stu1.ID, fix.sup1.ID, time.Now())

		err := fix.svc.Delete(ctx, s.ID, fix.sup1.ID)
		if _, ok := err.(*sae.SaeAssignedError); !ok {
			t.Errorf("Delete() error = %v, want *sae.SaeAssignedError", err)
		}
		if _, err := fix.svc.Get(ctx, s.ID); err != nil {
			t.Errorf("SAE should have been kept: %v", err)
		}
	})

	t.Run("creator deletes an unassigned SAE", func(t *testing.T) {
		fix := setup(t)
		s := testutil.CreateSae(t, fix.repo, "Dev Web", fix.sup1.ID)

		if err := fix.svc.Delete(ctx, s.ID, fix.sup1.ID); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if _, err := fix.svc.Get(ctx, s.ID); err != sae.ErrNotFound {
			t.Errorf("Get() error = %v, want %v", err, sae.ErrNotFound)
		}
	})
}

package sae

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/user"
)

var nowFunc = time.Now // mockable

type (
	ServiceInterface interface {
		Create(ctx context.Context, ns NewSae, creatorID int) (Sae, error)
		Get(ctx context.Context, id int) (Sae, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Sae, error)
		Delete(ctx context.Context, saeID, requestingCreatorID int) error

		Attribute(ctx context.Context, saeID int, studentIDs []int, supervisorID int) error
		Unassign(ctx context.Context, saeID, studentID, requestingSupervisorID int) error
		UpdateDueDate(ctx context.Context, saeID, supervisorID int, due time.Time) error
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		logger  core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, logger core.Logger) ServiceInterface {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		logger:  logger,
	}
}

func (svc *service) Create(ctx context.Context, ns NewSae, creatorID int) (Sae, error) {
	s := Sae{
		Title:       ns.Title,
		Description: ns.Description,
		CreatedBy:   creatorID,
		CreatedAt:   nowFunc().UTC(),
	}
	s, err := svc.repo.CreateSae(ctx, s)
	if err != nil {
		return Sae{}, errors.Wrap(err, "creating SAE")
	}
	return s, nil
}

func (svc *service) Get(ctx context.Context, id int) (Sae, error) {
	return svc.repo.GetSae(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Sae, error) {
	filter.Clean()
	return svc.repo.QuerySaes(ctx, filter, ordering)
}

// Attribute binds each student in studentIDs (in input order) to the SAE
// under supervisorID. The SAE must not be held by another supervisor; a
// student already bound to it aborts the call on the spot.
//
// This is a best-effort batch: students inserted before a conflict is hit
// stay inserted. Callers wanting all-or-nothing must wrap it in a
// transaction themselves.
func (svc *service) Attribute(ctx context.Context, saeID int, studentIDs []int, supervisorID int) error {
	if len(studentIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "student_ids", Error: "at least one student is required"})
	}

	s, err := svc.repo.GetSae(ctx, saeID)
	if err != nil {
		if err == ErrNotFound {
			return err
		}
		return errors.Wrap(err, "finding SAE")
	}

	existing, err := svc.repo.FindAttributionsBySae(ctx, saeID)
	if err != nil {
		return errors.Wrap(err, "finding attributions")
	}

	// exclusivity check before any write
	for _, att := range existing {
		if att.SupervisorID != supervisorID {
			return &AlreadyAssignedError{
				SaeTitle:       s.Title,
				SupervisorName: svc.displayName(ctx, att.SupervisorID),
			}
		}
	}

	// reuse the group's due date if the supervisor already has attributions
	// on this SAE, else default to today
	due := core.Day(nowFunc())
	if len(existing) > 0 {
		due = existing[0].DueDate
	}

	now := nowFunc().UTC()
	for _, studentID := range studentIDs {
		if _, err := svc.repo.GetAttribution(ctx, saeID, studentID); err == nil {
			return &StudentAssignedError{
				SaeTitle:    s.Title,
				StudentName: svc.displayName(ctx, studentID),
			}
		} else if err != ErrAttributionNotFound {
			return errors.Wrap(err, "checking attribution")
		}

		att := Attribution{
			SaeID:        saeID,
			StudentID:    studentID,
			SupervisorID: supervisorID,
			DueDate:      due,
			CreatedAt:    now,
		}
		if _, err := svc.repo.CreateAttribution(ctx, att); err != nil {
			return errors.Wrap(err, "creating attribution")
		}
	}
	return nil
}

// Unassign removes one (sae, student) attribution. Ownership gates the
// action: only the supervisor who attributed the student may remove them.
func (svc *service) Unassign(ctx context.Context, saeID, studentID, requestingSupervisorID int) error {
	att, err := svc.repo.GetAttribution(ctx, saeID, studentID)
	if err != nil {
		if err == ErrAttributionNotFound {
			return err
		}
		return errors.Wrap(err, "finding attribution")
	}

	if att.SupervisorID != requestingSupervisorID {
		s, err := svc.repo.GetSae(ctx, saeID)
		if err != nil {
			return errors.Wrap(err, "finding SAE")
		}
		return &UnauthorizedUnassignError{SaeTitle: s.Title}
	}

	if err := svc.repo.DeleteAttribution(ctx, saeID, studentID); err != nil {
		return errors.Wrap(err, "deleting attribution")
	}
	return nil
}

// UpdateDueDate moves the due date of every attribution in the
// (sae, supervisor) group in one logical operation. No-op if none match.
func (svc *service) UpdateDueDate(ctx context.Context, saeID, supervisorID int, due time.Time) error {
	if err := svc.repo.UpdateDueDate(ctx, saeID, supervisorID, core.Day(due)); err != nil {
		return errors.Wrap(err, "updating due date")
	}
	return nil
}

// Delete removes an SAE. Refused while any student is attached, regardless of
// who owns the attribution; only the creator may delete.
func (svc *service) Delete(ctx context.Context, saeID, requestingCreatorID int) error {
	s, err := svc.repo.GetSae(ctx, saeID)
	if err != nil {
		if err == ErrNotFound {
			return err
		}
		return errors.Wrap(err, "finding SAE")
	}

	if s.CreatedBy != requestingCreatorID {
		return &NotCreatorError{SaeTitle: s.Title}
	}

	count, err := svc.repo.CountAttributions(ctx, saeID)
	if err != nil {
		return errors.Wrap(err, "counting attributions")
	}
	if count > 0 {
		return &SaeAssignedError{SaeTitle: s.Title}
	}

	if err := svc.repo.DeleteSae(ctx, saeID); err != nil {
		return errors.Wrap(err, "deleting SAE")
	}
	return nil
}

// displayName resolves a user's display name for conflict messages; falls
// back to the name's absence rather than failing the operation.
func (svc *service) displayName(ctx context.Context, userID int) string {
	usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: userID})
	if err != nil {
		svc.logger.Warn("resolving user display name", err)
		return "another user"
	}
	return usr.Name
}

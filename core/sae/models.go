package sae

import (
	"context"
	"errors"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tchaleu/saetrack/core"
)

var (
	// errors
	ErrNotFound            = errors.New("SAE not found")
	ErrAttributionNotFound = errors.New("attribution not found")
)

type (
	// Sae is a unit of student work proposed by a creator and tracked to a
	// deadline. Never mutated once created; deleted only while unassigned.
	Sae struct {
		ID          int       `json:"id" db:"id"`
		Title       string    `json:"title" db:"title"`
		Description string    `json:"description" db:"description"`
		CreatedBy   int       `json:"created_by" db:"created_by"`
		CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	}

	// Attribution binds one student to one SAE under one supervisor with a
	// shared due date. One row per (sae, student) pair.
	Attribution struct {
		ID           int       `json:"id" db:"id"`
		SaeID        int       `json:"sae_id" db:"sae_id"`
		StudentID    int       `json:"student_id" db:"student_id"`
		SupervisorID int       `json:"supervisor_id" db:"supervisor_id"`
		DueDate      time.Time `json:"due_date" db:"due_date"` // UTC, date precision
		CreatedAt    time.Time `json:"created_at" db:"created_at"`
	}

	// DueAttribution is a reminder recipient row: an attribution joined with
	// the student's and supervisor's display data.
	DueAttribution struct {
		SaeID          int       `db:"sae_id"`
		StudentID      int       `db:"student_id"`
		SaeTitle       string    `db:"sae_title"`
		StudentName    string    `db:"student_name"`
		StudentEmail   string    `db:"student_email"`
		SupervisorName string    `db:"supervisor_name"`
		DueDate        time.Time `db:"due_date"`
	}

	Repository interface {
		CreateSae(ctx context.Context, s Sae) (Sae, error)
		GetSae(ctx context.Context, id int) (Sae, error)
		QuerySaes(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Sae, error)
		DeleteSae(ctx context.Context, id int) error

		FindAttributionsBySae(ctx context.Context, saeID int) ([]Attribution, error)
		GetAttribution(ctx context.Context, saeID, studentID int) (Attribution, error)
		CreateAttribution(ctx context.Context, att Attribution) (Attribution, error)
		DeleteAttribution(ctx context.Context, saeID, studentID int) error
		UpdateDueDate(ctx context.Context, saeID, supervisorID int, due time.Time) error
		CountAttributions(ctx context.Context, saeID int) (int, error)

		// FindAttributionsDueIn returns recipient rows for every attribution
		// whose due date is exactly `days` days from today.
		FindAttributionsDueIn(ctx context.Context, days int) ([]DueAttribution, error)
	}
)

// NewSae contains information needed to propose a new Sae.
type NewSae struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

func (ns *NewSae) Validate(validate *validator.Validate, _ ut.Translator) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

// NewAttribution is the payload of an attribute call: a non-empty ordered set
// of students to bind to one SAE.
type NewAttribution struct {
	StudentIDs []int `json:"student_ids" validate:"required,min=1,dive,min=1"`
}

func (na *NewAttribution) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

// NewDueDate carries a supervisor-group due date update.
type NewDueDate struct {
	DueDate time.Time `json:"due_date" validate:"required"`
}

func (nd *NewDueDate) Validate(validate *validator.Validate) error {
	return validate.Struct(nd)
}

type QueryFilter struct {
	Search    string `query:"search"`
	CreatedBy int    `query:"created_by"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CreatedBy == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

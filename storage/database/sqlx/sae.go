package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/sae"
)

type saeRepository struct {
	db core.DBExecutor
}

var _ sae.Repository = (*saeRepository)(nil) // interface compliance check

func NewSaeRepository(db core.DBExecutor) *saeRepository {
	return &saeRepository{db: db}
}

type saeRow struct {
	ID          int         `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	CreatedBy   null.Int    `db:"created_by"`
	CreatedAt   null.Time   `db:"created_at"`
}

func (r saeRow) model() sae.Sae {
	return sae.Sae{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		CreatedBy:   r.CreatedBy.Int,
		CreatedAt:   r.CreatedAt.Time,
	}
}

type attributionRow struct {
	ID           int       `db:"id"`
	SaeID        int       `db:"sae_id"`
	StudentID    int       `db:"student_id"`
	SupervisorID int       `db:"supervisor_id"`
	DueDate      time.Time `db:"due_date"`
	CreatedAt    null.Time `db:"created_at"`
}

func (r attributionRow) model() sae.Attribution {
	return sae.Attribution{
		ID:           r.ID,
		SaeID:        r.SaeID,
		StudentID:    r.StudentID,
		SupervisorID: r.SupervisorID,
		DueDate:      core.Day(r.DueDate),
		CreatedAt:    r.CreatedAt.Time,
	}
}

func (repo saeRepository) CreateSae(ctx context.Context, s sae.Sae) (sae.Sae, error) {
	query := `INSERT INTO sae (title, description, created_by, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`
	if err := repo.db.GetContext(
		ctx, &s.ID, query,
		s.Title, null.NewString(s.Description, s.Description != ""), null.NewInt(s.CreatedBy, s.CreatedBy != 0), s.CreatedAt,
	); err != nil {
		return sae.Sae{}, errors.Wrap(err, "inserting SAE")
	}
	return s, nil
}

func (repo saeRepository) GetSae(ctx context.Context, id int) (sae.Sae, error) {
	var row saeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM sae WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return sae.Sae{}, sae.ErrNotFound
		}
		return sae.Sae{}, errors.Wrap(err, "getting SAE")
	}
	return row.model(), nil
}

func (repo saeRepository) QuerySaes(ctx context.Context, filter sae.QueryFilter, ordering []core.DBOrdering) ([]sae.Sae, error) {
	query := `SELECT * FROM sae`
	var clauses []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf(`(title ILIKE $%d OR description ILIKE $%d)`, len(args), len(args)))
	}
	if filter.CreatedBy != 0 {
		args = append(args, filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf(`created_by = $%d`, len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY created_at DESC"
	}

	var rows []saeRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying SAEs")
	}
	saes := make([]sae.Sae, 0, len(rows))
	for _, row := range rows {
		saes = append(saes, row.model())
	}
	return saes, nil
}

func (repo saeRepository) DeleteSae(ctx context.Context, id int) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM sae WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting SAE")
	}
	return nil
}

func (repo saeRepository) FindAttributionsBySae(ctx context.Context, saeID int) ([]sae.Attribution, error) {
	var rows []attributionRow
	query := `SELECT * FROM sae_attribution WHERE sae_id = $1 ORDER BY id`
	if err := repo.db.SelectContext(ctx, &rows, query, saeID); err != nil {
		return nil, errors.Wrap(err, "querying attributions")
	}
	atts := make([]sae.Attribution, 0, len(rows))
	for _, row := range rows {
		atts = append(atts, row.model())
	}
	return atts, nil
}

func (repo saeRepository) GetAttribution(ctx context.Context, saeID, studentID int) (sae.Attribution, error) {
	var row attributionRow
	query := `SELECT * FROM sae_attribution WHERE sae_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, saeID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return sae.Attribution{}, sae.ErrAttributionNotFound
		}
		return sae.Attribution{}, errors.Wrap(err, "getting attribution")
	}
	return row.model(), nil
}

func (repo saeRepository) CreateAttribution(ctx context.Context, att sae.Attribution) (sae.Attribution, error) {
	query := `INSERT INTO sae_attribution (sae_id, student_id, supervisor_id, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := repo.db.GetContext(
		ctx, &att.ID, query,
		att.SaeID, att.StudentID, att.SupervisorID, att.DueDate, att.CreatedAt,
	); err != nil {
		return sae.Attribution{}, errors.Wrap(err, "inserting attribution")
	}
	return att, nil
}

func (repo saeRepository) DeleteAttribution(ctx context.Context, saeID, studentID int) error {
	query := `DELETE FROM sae_attribution WHERE sae_id = $1 AND student_id = $2`
	if _, err := repo.db.ExecContext(ctx, query, saeID, studentID); err != nil {
		return errors.Wrap(err, "deleting attribution")
	}
	return nil
}

func (repo saeRepository) UpdateDueDate(ctx context.Context, saeID, supervisorID int, due time.Time) error {
	query := `UPDATE sae_attribution SET due_date = $3 WHERE sae_id = $1 AND supervisor_id = $2`
	if _, err := repo.db.ExecContext(ctx, query, saeID, supervisorID, due); err != nil {
		return errors.Wrap(err, "updating due date")
	}
	return nil
}

func (repo saeRepository) CountAttributions(ctx context.Context, saeID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sae_attribution WHERE sae_id = $1`
	if err := repo.db.GetContext(ctx, &count, query, saeID); err != nil {
		return 0, errors.Wrap(err, "counting attributions")
	}
	return count, nil
}

func (repo saeRepository) FindAttributionsDueIn(ctx context.Context, days int) ([]sae.DueAttribution, error) {
	var rows []sae.DueAttribution
	query := `SELECT a.sae_id, a.student_id, s.title AS sae_title,
			stu.name AS student_name, stu.email AS student_email,
			sup.name AS supervisor_name, a.due_date
		FROM sae_attribution a
			JOIN sae s ON s.id = a.sae_id
			JOIN "user" stu ON stu.id = a.student_id
			JOIN "user" sup ON sup.id = a.supervisor_id
		WHERE a.due_date = CURRENT_DATE + $1
		ORDER BY a.sae_id, a.student_id`
	if err := repo.db.SelectContext(ctx, &rows, query, days); err != nil {
		return nil, errors.Wrap(err, "querying due attributions")
	}
	for i := range rows {
		rows[i].DueDate = core.Day(rows[i].DueDate)
	}
	return rows, nil
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/user"
)

type userRepository struct {
	db core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DBExecutor) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           int            `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
}

func (r userRow) model() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive.Ptr(),
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var clauses []string
	var args []interface{}
	if filter.ID != 0 {
		args = append(args, filter.ID)
		clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.UsernameOrEmail != "" {
		args = append(args, filter.UsernameOrEmail)
		clauses = append(clauses, fmt.Sprintf("(username = $%d OR email = $%d)", len(args), len(args)))
	}
	if len(clauses) == 0 {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	query := `SELECT * FROM "user" WHERE ` + strings.Join(clauses, " OR ")
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.model(), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "user" ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.model())
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	query := `UPDATE "user"
		SET name = $2, username = $3, email = $4, is_active = $5, roles = $6, password_hash = $7, updated_at = $8
		WHERE id = $1`
	if _, err := repo.db.ExecContext(
		ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, null.BoolFromPtr(usr.IsActive),
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.UpdatedAt,
	); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID != 0 {
		return repo.UpdateUser(ctx, usr)
	}

	now := time.Now().UTC()
	usr.CreatedAt = now
	usr.UpdatedAt = now
	query := `INSERT INTO "user" (name, username, email, is_active, roles, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := repo.db.GetContext(
		ctx, &usr.ID, query,
		usr.Name, usr.Username, usr.Email, null.BoolFromPtr(usr.IsActive),
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

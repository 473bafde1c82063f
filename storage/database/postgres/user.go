package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/user"
)

const userColumns = `id, name, username, email, matric_number, department_id, is_active, roles, password_hash,
created_at, updated_at, last_login`

var userOrderings = []string{"name", "username", "email", "matric_number", "is_active", "created_at"}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	MatricNumber string         `db:"matric_number"`
	DepartmentID string         `db:"department_id"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func toUserRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		MatricNumber: usr.MatricNumber,
		DepartmentID: usr.DepartmentID,
		IsActive:     usr.IsActive,
		Roles:        roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
}

func (r userRow) user() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		MatricNumber: r.MatricNumber,
		DepartmentID: r.DepartmentID,
		IsActive:     r.IsActive,
		Roles:        []string(r.Roles),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(
	ctx context.Context,
	username, email, matricNumber string,
	excludedUsers ...user.User,
) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	checks := []struct {
		column, value string
		err           error
	}{
		{"username", username, user.ErrUsernameExists},
		{"email", email, user.ErrEmailExists},
		{"matric_number", matricNumber, user.ErrMatricNumberExists},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		var found bool
		q := "SELECT EXISTS (SELECT 1 FROM users WHERE " + c.column + " = $1 AND NOT (id::text = ANY($2)))"
		if err := repo.db.GetContext(ctx, &found, q, c.value, pq.Array(excluded)); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if found {
			return c.err
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := toUserRow(usr)
	q := `INSERT INTO users (` + userColumns + `) VALUES (:id, :name, :username, :email, :matric_number, :department_id,
:is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.user(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			where = append(where, "(name ILIKE "+p+" OR username ILIKE "+p+" OR email ILIKE "+p+" OR matric_number ILIKE "+p+")")
		}
		if filter.Roles != nil {
			where = append(where, "roles && "+arg(pq.Array(filter.Roles)))
		}
		if filter.DepartmentID != "" {
			where = append(where, "department_id = "+arg(filter.DepartmentID))
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			where = append(where, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	q := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(core.AllowedOrderings(ordering, userOrderings...))

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		cond string
		args []interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		cond, args = "id = $1", []interface{}{filter.ID}
	case filter.Username != "":
		cond, args = "username = $1", []interface{}{filter.Username}
	case filter.Email != "":
		cond, args = "email = $1", []interface{}{filter.Email}
	case filter.UsernameOrEmail != "":
		cond, args = "(username = $1 OR email = $1)", []interface{}{filter.UsernameOrEmail}
	case filter.MatricNumber != "":
		cond, args = "matric_number = $1", []interface{}{filter.MatricNumber}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := "SELECT " + userColumns + " FROM users WHERE " + cond + " ORDER BY seq LIMIT 1"
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "finding user")
	}
	return row.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := toUserRow(usr)
	q := `UPDATE users SET name = :name, username = :username, email = :email, matric_number = :matric_number,
department_id = :department_id, is_active = :is_active, roles = :roles, password_hash = :password_hash,
updated_at = :updated_at, last_login = :last_login WHERE id = :id RETURNING ` + userColumns

	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return user.User{}, errors.Wrap(err, "preparing user update")
	}
	defer func() { _ = stmt.Close() }()

	var saved userRow
	if err = stmt.GetContext(ctx, &saved, row); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "updating user")
	}
	return saved.user(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM users WHERE id::text = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

// orderBy renders validated orderings, falling back to insertion order.
func orderBy(ords []core.DBOrdering) string {
	if len(ords) == 0 {
		return "seq"
	}
	list := make([]string, 0, len(ords)+1)
	for _, ord := range ords {
		list = append(list, ord.String())
	}
	return strings.Join(append(list, "seq"), ", ")
}

// trapNoRows maps sql.ErrNoRows to notFound.
func trapNoRows(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

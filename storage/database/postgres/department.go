package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/department"
)

const departmentColumns = "id, name, code, created_at"

type departmentRepository struct {
	db *sqlx.DB
}

var _ department.Repository = (*departmentRepository)(nil)

func NewDepartmentRepository(db *sqlx.DB) department.Repository {
	return &departmentRepository{db: db}
}

func (repo *departmentRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded ...department.Department) error {
	ids := make([]string, 0, len(excluded))
	for _, dept := range excluded {
		ids = append(ids, dept.ID)
	}
	var found bool
	q := "SELECT EXISTS (SELECT 1 FROM departments WHERE code = $1 AND NOT (id::text = ANY($2)))"
	if err := repo.db.GetContext(ctx, &found, q, code, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking department code uniqueness")
	}
	if found {
		return department.ErrCodeExists
	}
	return nil
}

func (repo *departmentRepository) CreateDepartment(ctx context.Context, dept department.Department) (department.Department, error) {
	dept.ID = uuid.New().String()
	dept.CreatedAt = dept.CreatedAt.UTC()
	q := "INSERT INTO departments (" + departmentColumns + ") VALUES (:id, :name, :code, :created_at)"
	if _, err := repo.db.NamedExecContext(ctx, q, dept); err != nil {
		return department.Department{}, errors.Wrap(err, "inserting department")
	}
	return dept, nil
}

func (repo *departmentRepository) QueryDepartments(ctx context.Context, search string) ([]department.Department, error) {
	depts := []department.Department{}
	var err error
	if search == "" {
		err = repo.db.SelectContext(ctx, &depts, "SELECT "+departmentColumns+" FROM departments ORDER BY seq")
	} else {
		q := "SELECT " + departmentColumns + " FROM departments WHERE name ILIKE $1 OR code ILIKE $1 ORDER BY seq"
		err = repo.db.SelectContext(ctx, &depts, q, "%"+search+"%")
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	return depts, nil
}

func (repo *departmentRepository) GetDepartment(ctx context.Context, id string) (department.Department, error) {
	if _, err := uuid.Parse(id); err != nil {
		return department.Department{}, department.ErrNotFound
	}
	var dept department.Department
	q := "SELECT " + departmentColumns + " FROM departments WHERE id = $1"
	if err := repo.db.GetContext(ctx, &dept, q, id); err != nil {
		return department.Department{}, trapNoRows(err, department.ErrNotFound, "finding department")
	}
	return dept, nil
}

func (repo *departmentRepository) UpdateDepartment(ctx context.Context, dept department.Department) (department.Department, error) {
	var saved department.Department
	q := "UPDATE departments SET name = $1, code = $2 WHERE id = $3 RETURNING " + departmentColumns
	if err := repo.db.GetContext(ctx, &saved, q, dept.Name, dept.Code, dept.ID); err != nil {
		return department.Department{}, trapNoRows(err, department.ErrNotFound, "updating department")
	}
	return saved, nil
}

func (repo *departmentRepository) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return department.ErrNotFound
	}
	return deleteByID(ctx, repo.db, "departments", id, department.ErrNotFound)
}

func deleteByID(ctx context.Context, db *sqlx.DB, table, id string, notFound error) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/course"
)

const courseColumns = "id, title, code, unit, department_id, lecturer_ids, created_at"

type courseRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Code         string         `db:"code"`
	Unit         int            `db:"unit"`
	DepartmentID string         `db:"department_id"`
	LecturerIDs  pq.StringArray `db:"lecturer_ids"`
	CreatedAt    time.Time      `db:"created_at"`
}

func toCourseRow(crs course.Course) courseRow {
	lecturers := crs.LecturerIDs
	if lecturers == nil {
		lecturers = []string{}
	}
	return courseRow{
		ID:           crs.ID,
		Title:        crs.Title,
		Code:         crs.Code,
		Unit:         crs.Unit,
		DepartmentID: crs.DepartmentID,
		LecturerIDs:  lecturers,
		CreatedAt:    crs.CreatedAt.UTC(),
	}
}

func (r courseRow) course() course.Course {
	crs := course.Course{
		ID:           r.ID,
		Title:        r.Title,
		Code:         r.Code,
		Unit:         r.Unit,
		DepartmentID: r.DepartmentID,
		LecturerIDs:  []string(r.LecturerIDs),
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if crs.LecturerIDs == nil {
		crs.LecturerIDs = []string{}
	}
	return crs
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded ...course.Course) error {
	ids := make([]string, 0, len(excluded))
	for _, crs := range excluded {
		ids = append(ids, crs.ID)
	}
	var found bool
	q := "SELECT EXISTS (SELECT 1 FROM courses WHERE code = $1 AND NOT (id::text = ANY($2)))"
	if err := repo.db.GetContext(ctx, &found, q, code, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if found {
		return course.ErrCodeExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	row := toCourseRow(crs)
	q := "INSERT INTO courses (" + courseColumns + ") VALUES (:id, :title, :code, :unit, :department_id, :lecturer_ids, :created_at)"
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter) ([]course.Course, error) {
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
			where = append(where, "(title ILIKE "+p+" OR code ILIKE "+p+")")
		}
		if filter.DepartmentID != "" {
			if _, err := uuid.Parse(filter.DepartmentID); err != nil {
				return []course.Course{}, nil
			}
			where = append(where, "department_id = "+arg(filter.DepartmentID))
		}
		if filter.LecturerID != "" {
			where = append(where, arg(filter.LecturerID)+" = ANY(lecturer_ids)")
		}
	}

	q := "SELECT " + courseColumns + " FROM courses"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq"

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	var row courseRow
	var err error
	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return course.Course{}, course.ErrNotFound
		}
		err = repo.db.GetContext(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE id = $1", filter.ID)
	case filter.Code != "":
		err = repo.db.GetContext(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE code = $1", filter.Code)
	default:
		return course.Course{}, course.ErrNotFound
	}
	if err != nil {
		return course.Course{}, trapNoRows(err, course.ErrNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row := toCourseRow(crs)
	q := `UPDATE courses SET title = $1, code = $2, unit = $3, department_id = $4, lecturer_ids = $5
WHERE id = $6 RETURNING ` + courseColumns

	var saved courseRow
	err := repo.db.GetContext(ctx, &saved, q, row.Title, row.Code, row.Unit, row.DepartmentID, row.LecturerIDs, row.ID)
	if err != nil {
		return course.Course{}, trapNoRows(err, course.ErrNotFound, "updating course")
	}
	return saved.course(), nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return course.ErrNotFound
	}
	return deleteByID(ctx, repo.db, "courses", id, course.ErrNotFound)
}

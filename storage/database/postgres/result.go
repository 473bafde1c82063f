package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/result"
)

const resultColumns = `id, student_id, student_name, course_id, course_code, course_title, score, grade, unit, semester,
session, created_at, updated_at`

type resultRepository struct {
	db *sqlx.DB
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(db *sqlx.DB) result.Repository {
	return &resultRepository{db: db}
}

// SaveResult upserts on the result key. xmax is 0 for freshly inserted rows.
func (repo *resultRepository) SaveResult(ctx context.Context, res result.Result) (result.Result, bool, error) {
	q := `INSERT INTO results (` + resultColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (student_id, course_code, session, semester) DO UPDATE SET
	student_name = EXCLUDED.student_name,
	course_id = EXCLUDED.course_id,
	course_title = EXCLUDED.course_title,
	score = EXCLUDED.score,
	grade = EXCLUDED.grade,
	unit = EXCLUDED.unit,
	updated_at = EXCLUDED.updated_at
RETURNING ` + resultColumns + `, (xmax = 0) AS created`

	var saved struct {
		result.Result
		Created bool `db:"created"`
	}
	err := repo.db.GetContext(ctx, &saved, q,
		uuid.New().String(), res.StudentID, res.StudentName, res.CourseID, res.CourseCode, res.CourseTitle,
		res.Score, res.Grade, res.Unit, res.Semester, res.Session, res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
	)
	if err != nil {
		return result.Result{}, false, errors.Wrap(err, "saving result")
	}
	saved.CreatedAt = saved.CreatedAt.UTC()
	saved.UpdatedAt = saved.UpdatedAt.UTC()
	return saved.Result, saved.Created, nil
}

func (repo *resultRepository) QueryResults(ctx context.Context, filter *result.QueryFilter) ([]result.Result, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter != nil {
		if filter.StudentID != "" {
			where = append(where, "student_id = "+arg(filter.StudentID))
		}
		if filter.CourseCode != "" {
			where = append(where, "course_code = "+arg(filter.CourseCode))
		}
		if filter.Session != "" {
			where = append(where, "session = "+arg(filter.Session))
		}
		if filter.Semester != "" {
			where = append(where, "semester = "+arg(filter.Semester))
		}
		if filter.CourseCodes != nil {
			where = append(where, "course_code = ANY("+arg(pq.Array(filter.CourseCodes))+")")
		}
	}

	q := "SELECT " + resultColumns + " FROM results"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq"

	results := []result.Result{}
	if err := repo.db.SelectContext(ctx, &results, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	for i := range results {
		results[i].CreatedAt = results[i].CreatedAt.UTC()
		results[i].UpdatedAt = results[i].UpdatedAt.UTC()
	}
	return results, nil
}

func (repo *resultRepository) GetResult(ctx context.Context, id string) (result.Result, error) {
	if _, err := uuid.Parse(id); err != nil {
		return result.Result{}, result.ErrNotFound
	}
	var res result.Result
	if err := repo.db.GetContext(ctx, &res, "SELECT "+resultColumns+" FROM results WHERE id = $1", id); err != nil {
		return result.Result{}, trapNoRows(err, result.ErrNotFound, "finding result")
	}
	res.CreatedAt = res.CreatedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()
	return res, nil
}

func (repo *resultRepository) DeleteResult(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return result.ErrNotFound
	}
	return deleteByID(ctx, repo.db, "results", id, result.ErrNotFound)
}

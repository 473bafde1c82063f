package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/feedback"
)

const feedbackColumns = `id, student_id, course_id, course_code, lecturer_id, rating, comment, sentiment, session, semester,
anonymous, created_at, updated_at`

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil)

func NewFeedbackRepository(db *sqlx.DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) SaveFeedback(ctx context.Context, fb feedback.Feedback) (feedback.Feedback, bool, error) {
	q := `INSERT INTO feedback (` + feedbackColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (student_id, course_id, lecturer_id, session, semester) DO UPDATE SET
	course_code = EXCLUDED.course_code,
	rating = EXCLUDED.rating,
	comment = EXCLUDED.comment,
	sentiment = EXCLUDED.sentiment,
	anonymous = EXCLUDED.anonymous,
	updated_at = EXCLUDED.updated_at
RETURNING ` + feedbackColumns + `, (xmax = 0) AS created`

	var saved struct {
		feedback.Feedback
		Created bool `db:"created"`
	}
	err := repo.db.GetContext(ctx, &saved, q,
		uuid.New().String(), fb.StudentID, fb.CourseID, fb.CourseCode, fb.LecturerID, fb.Rating, fb.Comment,
		fb.Sentiment, fb.Session, fb.Semester, fb.Anonymous, fb.CreatedAt.UTC(), fb.UpdatedAt.UTC(),
	)
	if err != nil {
		return feedback.Feedback{}, false, errors.Wrap(err, "saving feedback")
	}
	saved.CreatedAt = saved.CreatedAt.UTC()
	saved.UpdatedAt = saved.UpdatedAt.UTC()
	return saved.Feedback, saved.Created, nil
}

func (repo *feedbackRepository) QueryFeedback(ctx context.Context, filter *feedback.QueryFilter) ([]feedback.Feedback, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter != nil {
		if filter.CourseCode != "" {
			where = append(where, "course_code = "+arg(filter.CourseCode))
		}
		if filter.LecturerID != "" {
			where = append(where, "lecturer_id = "+arg(filter.LecturerID))
		}
		if filter.Session != "" {
			where = append(where, "session = "+arg(filter.Session))
		}
		if filter.Semester != "" {
			where = append(where, "semester = "+arg(filter.Semester))
		}
		if filter.Sentiment != "" {
			where = append(where, "sentiment = "+arg(filter.Sentiment))
		}
	}

	q := "SELECT " + feedbackColumns + " FROM feedback"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC"

	list := []feedback.Feedback{}
	if err := repo.db.SelectContext(ctx, &list, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}
	for i := range list {
		list[i].CreatedAt = list[i].CreatedAt.UTC()
		list[i].UpdatedAt = list[i].UpdatedAt.UTC()
	}
	return list, nil
}

func (repo *feedbackRepository) GetFeedback(ctx context.Context, id string) (feedback.Feedback, error) {
	if _, err := uuid.Parse(id); err != nil {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	var fb feedback.Feedback
	if err := repo.db.GetContext(ctx, &fb, "SELECT "+feedbackColumns+" FROM feedback WHERE id = $1", id); err != nil {
		return feedback.Feedback{}, trapNoRows(err, feedback.ErrNotFound, "finding feedback")
	}
	fb.CreatedAt = fb.CreatedAt.UTC()
	fb.UpdatedAt = fb.UpdatedAt.UTC()
	return fb, nil
}

func (repo *feedbackRepository) DeleteFeedback(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return feedback.ErrNotFound
	}
	return deleteByID(ctx, repo.db, "feedback", id, feedback.ErrNotFound)
}

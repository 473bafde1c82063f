package feedback

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("feedback")

	errCourseNotFound    = "course not found"
	errNotCourseLecturer = "this lecturer does not teach this course"
	errNoResult          = "feedback can only be given for courses you have a result for in this session and semester"
	errNotStudent        = "only students can give feedback"
)

type (
	Repository interface {
		// SaveFeedback creates fb or, when a feedback with the same Key exists, overwrites it.
		SaveFeedback(ctx context.Context, fb Feedback) (saved Feedback, created bool, err error)
		// QueryFeedback returns the feedback matching filter, most recent first.
		QueryFeedback(ctx context.Context, filter *QueryFilter) ([]Feedback, error)
		GetFeedback(ctx context.Context, id string) (Feedback, error)
		DeleteFeedback(ctx context.Context, id string) error
	}

	// CourseFinder is the part of course.ServiceInterface feedback depends on.
	CourseFinder interface {
		GetByCode(ctx context.Context, code string) (course.Course, error)
	}

	// ResultFinder is the part of result.ServiceInterface feedback depends on.
	ResultFinder interface {
		Query(ctx context.Context, filter *result.QueryFilter) ([]result.Result, error)
	}

	ServiceInterface interface {
		Submit(ctx context.Context, student user.User, nf NewFeedback) (Feedback, bool, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Feedback, error)
		GetByID(ctx context.Context, id string) (Feedback, error)
		Summarize(ctx context.Context, filter *QueryFilter) (Summary, error)
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		courses CourseFinder
		results ResultFinder
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses CourseFinder, results ResultFinder) *Service {
	return &Service{repo: repo, courses: courses, results: results}
}

// Submit creates or updates the feedback of a student on a lecturer of a course they hold a result for.
func (svc *Service) Submit(ctx context.Context, student user.User, nf NewFeedback) (Feedback, bool, error) {
	if !student.IsStudent() || student.MatricNumber == "" {
		return Feedback{}, false, core.NewValidationError(nil, core.FieldError{Field: "student", Error: errNotStudent})
	}

	crs, err := svc.courses.GetByCode(ctx, nf.CourseCode)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return Feedback{}, false, core.NewValidationError(err, core.FieldError{Field: "course_code", Error: errCourseNotFound})
		}
		return Feedback{}, false, errors.Wrap(err, "finding course")
	}
	if !crs.TaughtBy(nf.LecturerID) {
		return Feedback{}, false, core.NewValidationError(nil, core.FieldError{Field: "lecturer_id", Error: errNotCourseLecturer})
	}

	results, err := svc.results.Query(ctx, &result.QueryFilter{
		StudentID:  student.MatricNumber,
		CourseCode: crs.Code,
		Session:    nf.Session,
		Semester:   nf.Semester,
	})
	if err != nil {
		return Feedback{}, false, errors.Wrap(err, "querying results")
	}
	if len(results) == 0 {
		return Feedback{}, false, core.NewValidationError(nil, core.FieldError{Field: "course_code", Error: errNoResult})
	}

	anonymous := true
	if nf.Anonymous != nil {
		anonymous = *nf.Anonymous
	}
	now := time.Now().UTC()
	fb := Feedback{
		StudentID:  student.ID,
		CourseID:   crs.ID,
		CourseCode: crs.Code,
		LecturerID: nf.LecturerID,
		Rating:     nf.Rating,
		Comment:    nf.Comment,
		Sentiment:  AnalyzeSentiment(nf.Comment, nf.Rating),
		Session:    nf.Session,
		Semester:   nf.Semester,
		Anonymous:  anonymous,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	saved, created, err := svc.repo.SaveFeedback(ctx, fb)
	if err != nil {
		return Feedback{}, false, errors.Wrap(err, "saving feedback")
	}
	return saved, created, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Feedback, error) {
	return svc.repo.QueryFeedback(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Feedback, error) {
	return svc.repo.GetFeedback(ctx, id)
}

// Summarize counts the feedback matching filter by sentiment and averages their rating.
func (svc *Service) Summarize(ctx context.Context, filter *QueryFilter) (Summary, error) {
	list, err := svc.repo.QueryFeedback(ctx, filter)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying feedback")
	}
	return Summarize(list), nil
}

// Summarize counts list by sentiment and averages its ratings, rounded to 2 decimals.
func Summarize(list []Feedback) Summary {
	sum := Summary{
		Total: len(list),
		Sentiments: map[Sentiment]int{
			SentimentPositive: 0,
			SentimentNeutral:  0,
			SentimentNegative: 0,
		},
	}
	if len(list) == 0 {
		return sum
	}
	var total int
	for _, fb := range list {
		total += fb.Rating
		sum.Sentiments[fb.Sentiment]++
	}
	sum.AverageRating = grading.Round2(float64(total) / float64(len(list)))
	return sum
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteFeedback(ctx, id)
}

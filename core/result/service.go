package result

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("result")

	errUnitRequired     = "unit is required for courses that are not registered"
	errNameRequired     = "student_name is required for students that are not registered"
	errCourseNotAllowed = "you cannot record results for this course"
)

type (
	Repository interface {
		// SaveResult creates res or, when a result with the same Key exists, overwrites it.
		// created reports which of the two happened.
		SaveResult(ctx context.Context, res Result) (saved Result, created bool, err error)
		// QueryResults returns the results matching filter in insertion order.
		QueryResults(ctx context.Context, filter *QueryFilter) ([]Result, error)
		GetResult(ctx context.Context, id string) (Result, error)
		DeleteResult(ctx context.Context, id string) error
	}

	// CourseFinder is the part of course.ServiceInterface results depend on.
	CourseFinder interface {
		GetByCode(ctx context.Context, code string) (course.Course, error)
	}

	// StudentFinder is the part of user.ServiceInterface results depend on.
	StudentFinder interface {
		GetByMatricNumber(ctx context.Context, matricNumber string) (user.User, error)
	}

	ServiceInterface interface {
		Record(ctx context.Context, nr NewResult) (Result, bool, error)
		ImportCSV(ctx context.Context, r io.Reader, courseCodes []string) (ImportReport, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Result, error)
		GetByID(ctx context.Context, id string) (Result, error)
		Delete(ctx context.Context, id string) error
		SemesterGPAs(ctx context.Context, filter GPAFilter) ([]grading.SemesterGPA, error)
		CumulativeGPAs(ctx context.Context, filter GPAFilter) ([]grading.CumulativeGPA, error)
		Transcript(ctx context.Context, studentID string) (Transcript, error)
	}

	ServiceDeps struct {
		Repo       Repository
		Courses    CourseFinder
		Students   StudentFinder
		MailSvc    core.EmailService
		Validate   *validator.Validate
		Translator ut.Translator
		Logger     core.Logger
	}

	Service struct {
		repo       Repository
		courses    CourseFinder
		students   StudentFinder
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(deps ServiceDeps) *Service {
	return &Service{
		repo:       deps.Repo,
		courses:    deps.Courses,
		students:   deps.Students,
		mailSvc:    deps.MailSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
		logger:     deps.Logger,
	}
}

// build resolves a validated NewResult against the registered courses and students and grades it.
func (svc *Service) build(ctx context.Context, nr NewResult) (Result, *user.User, error) {
	res := Result{
		StudentID:   nr.StudentID,
		StudentName: nr.StudentName,
		CourseCode:  nr.CourseCode,
		CourseTitle: nr.CourseTitle,
		Score:       *nr.Score,
		Unit:        nr.Unit,
		Semester:    nr.Semester,
		Session:     nr.Session,
	}

	crs, err := svc.courses.GetByCode(ctx, nr.CourseCode)
	switch {
	case err == nil:
		res.CourseID = crs.ID
		res.CourseTitle = crs.Title
		res.Unit = crs.Unit
	case errors.Cause(err) == course.ErrNotFound:
		if res.Unit == 0 {
			return Result{}, nil, core.NewValidationError(nil, core.FieldError{Field: "unit", Error: errUnitRequired})
		}
		if res.CourseTitle == "" {
			res.CourseTitle = res.CourseCode
		}
	default:
		return Result{}, nil, errors.Wrap(err, "finding course")
	}

	var student *user.User
	usr, err := svc.students.GetByMatricNumber(ctx, nr.StudentID)
	switch {
	case err == nil:
		student = &usr
		if res.StudentName == "" {
			res.StudentName = usr.Name
		}
	case errors.Cause(err) == user.ErrNotFound:
		if res.StudentName == "" {
			return Result{}, nil, core.NewValidationError(nil, core.FieldError{Field: "student_name", Error: errNameRequired})
		}
	default:
		return Result{}, nil, errors.Wrap(err, "finding student")
	}

	rec, err := grading.NewScoreRecord(
		res.StudentID, res.StudentName, res.CourseCode, res.CourseTitle, res.Score, res.Unit, res.Semester, res.Session,
	)
	if err != nil {
		return Result{}, nil, errors.Wrap(err, "grading score")
	}
	res.Grade = rec.Grade
	return res, student, nil
}

func (svc *Service) save(ctx context.Context, res Result) (Result, bool, error) {
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	saved, created, err := svc.repo.SaveResult(ctx, res)
	if err != nil {
		return Result{}, false, errors.Wrap(err, "saving result")
	}
	return saved, created, nil
}

// Record validates nr, creates or updates the result of a student for a course in a semester of a session,
// then notifies the student by email.
func (svc *Service) Record(ctx context.Context, nr NewResult) (Result, bool, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return Result{}, false, err
	}
	res, student, err := svc.build(ctx, nr)
	if err != nil {
		return Result{}, false, err
	}
	saved, created, err := svc.save(ctx, res)
	if err != nil {
		return Result{}, false, err
	}
	if student != nil && student.Email != "" {
		svc.sendPublicationNotice(*student, saved)
	}
	return saved, created, nil
}

func (svc *Service) sendPublicationNotice(student user.User, res Result) {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: fmt.Sprintf("Result published: %s", res.CourseCode),
		BodyStr: fmt.Sprintf("Dear %s,", student.Name),
		Lines: []string{
			"",
			fmt.Sprintf("Your result for %s (%s) has been published.", res.CourseCode, res.CourseTitle),
			fmt.Sprintf("Session: %s, semester: %s", res.Session, res.Semester),
			fmt.Sprintf("Score: %v, grade: %s", res.Score, res.Grade),
		},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Result, error) {
	return svc.repo.QueryResults(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Result, error) {
	return svc.repo.GetResult(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteResult(ctx, id)
}

// records snapshots every stored result as score records, in insertion order.
func (svc *Service) records(ctx context.Context) ([]grading.ScoreRecord, error) {
	results, err := svc.repo.QueryResults(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	records := make([]grading.ScoreRecord, 0, len(results))
	for _, r := range results {
		records = append(records, r.Record())
	}
	return records, nil
}

// SemesterGPAs computes every semester GPA from the current results, then keeps those matching filter.
// Semesters are ordered by student, session then semester.
func (svc *Service) SemesterGPAs(ctx context.Context, filter GPAFilter) ([]grading.SemesterGPA, error) {
	records, err := svc.records(ctx)
	if err != nil {
		return nil, err
	}
	semesters, err := grading.ComputeSemesterGPAs(records)
	if err != nil {
		return nil, errors.Wrap(err, "computing semester GPAs")
	}
	grading.SortSemesterGPAs(semesters)

	res := make([]grading.SemesterGPA, 0, len(semesters))
	for _, s := range semesters {
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		if filter.Session != "" && s.Session != filter.Session {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

// CumulativeGPAs computes every student's CGPA from the current results, then keeps those matching filter.
// GPAFilter.Session is ignored: a CGPA spans every session.
func (svc *Service) CumulativeGPAs(ctx context.Context, filter GPAFilter) ([]grading.CumulativeGPA, error) {
	semesters, err := svc.SemesterGPAs(ctx, GPAFilter{})
	if err != nil {
		return nil, err
	}
	students, err := grading.ComputeCumulativeGPAs(semesters)
	if err != nil {
		return nil, errors.Wrap(err, "computing cumulative GPAs")
	}
	if filter.StudentID == "" {
		return students, nil
	}
	res := make([]grading.CumulativeGPA, 0, 1)
	for _, c := range students {
		if c.StudentID == filter.StudentID {
			res = append(res, c)
		}
	}
	return res, nil
}

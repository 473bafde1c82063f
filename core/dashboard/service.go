package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

type (
	AdminStats struct {
		Users       map[string]int `json:"users"` // by role
		TotalUsers  int            `json:"total_users"`
		Departments int            `json:"departments"`
		Courses     int            `json:"courses"`
		Results     int            `json:"results"`
		Students    int            `json:"students_with_results"`
		AverageCGPA float64        `json:"average_cgpa"`
	}

	CourseStats struct {
		Course       course.Course `json:"course"`
		Results      int           `json:"results"`
		AverageScore float64       `json:"average_score"`
	}

	LecturerStats struct {
		Courses []CourseStats `json:"courses"`
		Results int           `json:"results"`
	}

	StudentStats struct {
		StudentID  string           `json:"student_id"`
		Courses    int              `json:"courses"`
		Semesters  int              `json:"semesters"`
		TotalUnits int              `json:"total_units"`
		CGPA       float64          `json:"cgpa"`
		Standing   grading.Standing `json:"standing,omitempty"`
	}

	// Stats holds the statistics of every role of a user.
	Stats struct {
		Admin    *AdminStats    `json:"admin,omitempty"`
		Lecturer *LecturerStats `json:"lecturer,omitempty"`
		Student  *StudentStats  `json:"student,omitempty"`
	}
)

type (
	UserQuerier interface {
		Query(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error)
	}

	DepartmentQuerier interface {
		Query(ctx context.Context, search string) ([]department.Department, error)
	}

	CourseQuerier interface {
		Query(ctx context.Context, filter *course.QueryFilter) ([]course.Course, error)
	}

	ResultQuerier interface {
		Query(ctx context.Context, filter *result.QueryFilter) ([]result.Result, error)
		CumulativeGPAs(ctx context.Context, filter result.GPAFilter) ([]grading.CumulativeGPA, error)
	}

	ServiceInterface interface {
		ForUser(ctx context.Context, usr user.User) (Stats, error)
	}

	Service struct {
		users   UserQuerier
		depts   DepartmentQuerier
		courses CourseQuerier
		results ResultQuerier
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(users UserQuerier, depts DepartmentQuerier, courses CourseQuerier, results ResultQuerier) *Service {
	return &Service{users: users, depts: depts, courses: courses, results: results}
}

// ForUser computes the statistics of each role usr holds.
func (svc *Service) ForUser(ctx context.Context, usr user.User) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if usr.IsAdmin() {
		if stats.Admin, err = svc.admin(ctx); err != nil {
			return Stats{}, err
		}
	}
	if usr.IsLecturer() {
		if stats.Lecturer, err = svc.lecturer(ctx, usr.ID); err != nil {
			return Stats{}, err
		}
	}
	if usr.IsStudent() && usr.MatricNumber != "" {
		if stats.Student, err = svc.student(ctx, usr.MatricNumber); err != nil {
			return Stats{}, err
		}
	}
	return stats, nil
}

func (svc *Service) admin(ctx context.Context) (*AdminStats, error) {
	users, err := svc.users.Query(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	stats := &AdminStats{Users: make(map[string]int, len(user.AllRoles)), TotalUsers: len(users)}
	for _, role := range user.AllRoles {
		stats.Users[role] = 0
	}
	for _, usr := range users {
		for _, role := range usr.Roles {
			stats.Users[role]++
		}
	}

	depts, err := svc.depts.Query(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	stats.Departments = len(depts)

	courses, err := svc.courses.Query(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	stats.Courses = len(courses)

	results, err := svc.results.Query(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	stats.Results = len(results)

	cgpas, err := svc.results.CumulativeGPAs(ctx, result.GPAFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "computing cumulative GPAs")
	}
	stats.Students = len(cgpas)
	if len(cgpas) > 0 {
		var sum float64
		for _, c := range cgpas {
			sum += c.CGPA
		}
		stats.AverageCGPA = grading.Round2(sum / float64(len(cgpas)))
	}
	return stats, nil
}

func (svc *Service) lecturer(ctx context.Context, lecturerID string) (*LecturerStats, error) {
	courses, err := svc.courses.Query(ctx, &course.QueryFilter{LecturerID: lecturerID})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	stats := &LecturerStats{Courses: make([]CourseStats, 0, len(courses))}
	for _, crs := range courses {
		results, err := svc.results.Query(ctx, &result.QueryFilter{CourseCode: crs.Code})
		if err != nil {
			return nil, errors.Wrapf(err, "querying results of %s", crs.Code)
		}
		cs := CourseStats{Course: crs, Results: len(results)}
		if len(results) > 0 {
			var sum float64
			for _, res := range results {
				sum += res.Score
			}
			cs.AverageScore = grading.Round2(sum / float64(len(results)))
		}
		stats.Results += cs.Results
		stats.Courses = append(stats.Courses, cs)
	}
	return stats, nil
}

func (svc *Service) student(ctx context.Context, matricNumber string) (*StudentStats, error) {
	stats := &StudentStats{StudentID: matricNumber}
	cgpas, err := svc.results.CumulativeGPAs(ctx, result.GPAFilter{StudentID: matricNumber})
	if err != nil {
		return nil, errors.Wrap(err, "computing cumulative GPA")
	}
	if len(cgpas) == 0 {
		return stats, nil
	}
	c := cgpas[0]
	stats.Semesters = len(c.Semesters)
	for _, s := range c.Semesters {
		stats.Courses += len(s.Courses)
	}
	stats.TotalUnits = c.TotalUnits
	stats.CGPA = grading.Round2(c.CGPA)
	stats.Standing = grading.StandingFor(c.CGPA)
	return stats, nil
}

package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/user"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("course")
	ErrCodeExists = errors.New("a course with this code already exists")

	errDeptNotFound     = "department not found"
	errInvalidLecturers = "all lecturers must be existing users with the lecturer role"
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excluded ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title or Course.Code.
		QueryCourses(ctx context.Context, filter *QueryFilter) ([]Course, error)
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	// DepartmentFinder is the part of department.ServiceInterface a course depends on.
	DepartmentFinder interface {
		GetByID(ctx context.Context, id string) (department.Department, error)
	}

	// UserFinder is the part of user.ServiceInterface a course depends on.
	UserFinder interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, code string, excluded ...Course) error
		CheckReferences(ctx context.Context, departmentID string, lecturerIDs []string) error
		Create(ctx context.Context, nc NewCourse) (Course, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		GetByCode(ctx context.Context, code string) (Course, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		AssignLecturers(ctx context.Context, id string, lecturerIDs []string) (Course, error)
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo  Repository
		depts DepartmentFinder
		users UserFinder
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, depts DepartmentFinder, users UserFinder) *Service {
	return &Service{repo: repo, depts: depts, users: users}
}

func (svc *Service) CheckUniqueness(ctx context.Context, code string, excluded ...Course) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, excluded...); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
		}
		return errors.Wrap(err, "checking code uniqueness")
	}
	return nil
}

// CheckReferences checks that the department exists and that every lecturer is an existing lecturer.
func (svc *Service) CheckReferences(ctx context.Context, departmentID string, lecturerIDs []string) error {
	if _, err := svc.depts.GetByID(ctx, departmentID); err != nil {
		if errors.Cause(err) == department.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "department_id", Error: errDeptNotFound})
		}
		return errors.Wrap(err, "finding department")
	}

	for _, id := range lecturerIDs {
		usr, err := svc.users.GetByID(ctx, id)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return core.NewValidationError(err, core.FieldError{Field: "lecturer_ids", Error: errInvalidLecturers})
			}
			return errors.Wrap(err, "finding lecturer")
		}
		if !usr.IsLecturer() {
			return core.NewValidationError(nil, core.FieldError{Field: "lecturer_ids", Error: errInvalidLecturers})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	lecturers := nc.LecturerIDs
	if lecturers == nil {
		lecturers = []string{}
	}
	return svc.repo.CreateCourse(ctx, Course{
		Title:        nc.Title,
		Code:         nc.Code,
		Unit:         nc.Unit,
		DepartmentID: nc.DepartmentID,
		LecturerIDs:  lecturers,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{Code: CleanCode(code)})
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.GetByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	crs.Title = uc.Title
	crs.Code = uc.Code
	crs.Unit = uc.Unit
	crs.DepartmentID = uc.DepartmentID
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) AssignLecturers(ctx context.Context, id string, lecturerIDs []string) (Course, error) {
	crs, err := svc.GetByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if lecturerIDs == nil {
		lecturerIDs = []string{}
	}
	crs.LecturerIDs = lecturerIDs
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

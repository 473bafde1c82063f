package department

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("department")
	ErrCodeExists = errors.New("a department with this code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excluded ...Department) error
		CreateDepartment(ctx context.Context, dept Department) (Department, error)
		// QueryDepartments does a case-insensitive match of search on Department.Name or Department.Code.
		QueryDepartments(ctx context.Context, search string) ([]Department, error)
		GetDepartment(ctx context.Context, id string) (Department, error)
		UpdateDepartment(ctx context.Context, dept Department) (Department, error)
		DeleteDepartment(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, code string, excluded ...Department) error
		Create(ctx context.Context, nd NewDepartment) (Department, error)
		Query(ctx context.Context, search string) ([]Department, error)
		GetByID(ctx context.Context, id string) (Department, error)
		Update(ctx context.Context, id string, ud UpdateDepartment) (Department, error)
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, code string, excluded ...Department) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, excluded...); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
		}
		return errors.Wrap(err, "checking code uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nd NewDepartment) (Department, error) {
	return svc.repo.CreateDepartment(ctx, Department{
		Name:      nd.Name,
		Code:      nd.Code,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Query(ctx context.Context, search string) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx, core.CleanString(search))
}

func (svc *Service) GetByID(ctx context.Context, id string) (Department, error) {
	return svc.repo.GetDepartment(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ud UpdateDepartment) (Department, error) {
	dept, err := svc.GetByID(ctx, id)
	if err != nil {
		return Department{}, err
	}
	dept.Name = ud.Name
	dept.Code = ud.Code
	return svc.repo.UpdateDepartment(ctx, dept)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteDepartment(ctx, id)
}

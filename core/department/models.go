package department

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acadboard/acadboard/core"
)

type Department struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// NewDepartment contains information needed to create a new Department.
type NewDepartment struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	Code string `json:"code" validate:"required,alphanum,max=10"`
}

func (nd *NewDepartment) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nd.Name = core.CleanString(nd.Name)
	nd.Code = cleanCode(nd.Code)
	if err := validate.Struct(nd); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nd.Code)
}

// UpdateDepartment defines what information may be provided to modify an existing Department.
type UpdateDepartment struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	Code string `json:"code" validate:"required,alphanum,max=10"`
}

func (ud *UpdateDepartment) Validate(ctx context.Context, orig Department, validate *validator.Validate, svc ServiceInterface) error {
	if name := core.CleanString(ud.Name); name != "" {
		ud.Name = name
	} else {
		ud.Name = orig.Name
	}
	if code := cleanCode(ud.Code); code != "" {
		ud.Code = code
	} else {
		ud.Code = orig.Code
	}
	if err := validate.Struct(ud); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ud.Code, orig)
}

func cleanCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

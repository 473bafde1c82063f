package course

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acadboard/acadboard/core"
)

// Credit units bounds
const (
	MinUnit = 1
	MaxUnit = 5
)

type Course struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Code         string    `json:"code" db:"code"`
	Unit         int       `json:"unit" db:"unit"`
	DepartmentID string    `json:"department_id" db:"department_id"`
	LecturerIDs  []string  `json:"lecturer_ids" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

// TaughtBy reports whether the lecturer is assigned to the course.
func (c Course) TaughtBy(lecturerID string) bool {
	for _, id := range c.LecturerIDs {
		if id == lecturerID {
			return true
		}
	}
	return false
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title        string   `json:"title" validate:"required,notblank,max=200"`
	Code         string   `json:"code" validate:"required,alphanum,max=20"`
	Unit         int      `json:"unit" validate:"min=1,max=5"`
	DepartmentID string   `json:"department_id" validate:"required"`
	LecturerIDs  []string `json:"lecturer_ids" validate:"omitempty,dive,required"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Code = CleanCode(nc.Code)
	nc.DepartmentID = core.CleanString(nc.DepartmentID)
	nc.LecturerIDs = cleanIDs(nc.LecturerIDs)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if err := svc.CheckUniqueness(ctx, nc.Code); err != nil {
		return err
	}
	return svc.CheckReferences(ctx, nc.DepartmentID, nc.LecturerIDs)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// LecturerIDs are changed through AssignLecturers.
type UpdateCourse struct {
	Title        string `json:"title" validate:"required,notblank,max=200"`
	Code         string `json:"code" validate:"required,alphanum,max=20"`
	Unit         int    `json:"unit" validate:"min=1,max=5"`
	DepartmentID string `json:"department_id" validate:"required"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, orig Course, validate *validator.Validate, svc ServiceInterface) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	if code := CleanCode(uc.Code); code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}
	if uc.Unit == 0 {
		uc.Unit = orig.Unit
	}
	if deptID := core.CleanString(uc.DepartmentID); deptID != "" {
		uc.DepartmentID = deptID
	} else {
		uc.DepartmentID = orig.DepartmentID
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	if err := svc.CheckUniqueness(ctx, uc.Code, orig); err != nil {
		return err
	}
	return svc.CheckReferences(ctx, uc.DepartmentID, nil)
}

type AssignLecturers struct {
	LecturerIDs []string `json:"lecturer_ids" validate:"dive,required"`
}

func (al *AssignLecturers) Validate(ctx context.Context, orig Course, validate *validator.Validate, svc ServiceInterface) error {
	al.LecturerIDs = cleanIDs(al.LecturerIDs)
	if err := validate.Struct(al); err != nil {
		return err
	}
	return svc.CheckReferences(ctx, orig.DepartmentID, al.LecturerIDs)
}

type QueryFilter struct {
	Search       string
	DepartmentID string
	LecturerID   string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.DepartmentID = core.CleanString(qf.DepartmentID)
	qf.LecturerID = core.CleanString(qf.LecturerID)
}

// GetFilter selects a single Course by ID or Code.
type GetFilter struct {
	ID   string
	Code string
}

// CleanCode normalizes a course code: trimmed and upper-cased.
func CleanCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

// cleanIDs trims ids and drops duplicates, keeping the first occurrence.
func cleanIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		id = core.CleanString(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

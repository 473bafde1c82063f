package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/acadboard/acadboard/core"
)

var (
	orderingParam = "ordering"

	errInvalidBool = "must be true or false"
	errInvalidTime = "must be an RFC 3339 date-time"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrderings(val)
	}
}

// queryBool parses the name query param. nil means the param is absent.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: name, Error: errInvalidBool})
	}
	return &b, nil
}

// queryTime parses the name query param. The zero time means the param is absent.
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: name, Error: errInvalidTime})
	}
	return t, nil
}

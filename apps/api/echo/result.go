package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

var (
	errFileRequired = "a CSV file is required"
	errNotMyCourse  = "you do not teach this course"
)

type resultApi struct {
	svc       result.ServiceInterface
	courseSvc course.ServiceInterface
	userSvc   user.ServiceInterface
	validate  *validator.Validate
	logger    core.Logger
}

func registerResultAPI(g *echo.Group, deps ServerDeps) {
	api := resultApi{
		svc:       deps.ResultSvc,
		courseSvc: deps.CourseSvc,
		userSvc:   deps.UserSvc,
		validate:  deps.Validate,
		logger:    deps.Logger,
	}

	g.GET("", api.query)
	g.POST("", api.create, staffMiddleware())
	g.POST("/import", api.importCSV, staffMiddleware())
	g.GET("/:id", api.retrieve)
	g.DELETE("/:id", api.destroy, staffMiddleware())
}

// lecturerCourseCodes returns the codes of the courses taught by lecturerID, never nil.
func lecturerCourseCodes(ctx context.Context, svc course.ServiceInterface, lecturerID string) ([]string, error) {
	courses, err := svc.Query(ctx, &course.QueryFilter{LecturerID: lecturerID})
	if err != nil {
		return nil, errors.Wrap(err, "querying lecturer courses")
	}
	codes := make([]string, 0, len(courses))
	for _, crs := range courses {
		codes = append(codes, crs.Code)
	}
	return codes, nil
}

// checkCourseAccess lets admins through and lecturers of the course identified by code.
func (api *resultApi) checkCourseAccess(ctx context.Context, usr user.User, code string) error {
	if usr.IsAdmin() {
		return nil
	}
	crs, err := api.courseSvc.GetByCode(ctx, code)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "course_code", Error: errNotMyCourse})
		}
		return errors.Wrap(err, "finding course")
	}
	if !crs.TaughtBy(usr.ID) {
		return core.NewValidationError(nil, core.FieldError{Field: "course_code", Error: errNotMyCourse})
	}
	return nil
}

func (api *resultApi) create(ctx echo.Context) error {
	var data result.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()
	if err := api.checkCourseAccess(reqCtx, ctxUsr, data.CourseCode); err != nil {
		return err
	}

	res, created, err := api.svc.Record(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "recording result")
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, res)
}

func (api *resultApi) importCSV(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: errFileRequired})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()

	var codes []string // nil: any course
	if !ctxUsr.IsAdmin() {
		if codes, err = lecturerCourseCodes(reqCtx, api.courseSvc, ctxUsr.ID); err != nil {
			return err
		}
	}

	report, err := api.svc.ImportCSV(reqCtx, file, codes)
	if err != nil {
		return errors.Wrap(err, "importing results")
	}
	api.logger.Info("results imported", map[string]interface{}{
		"file":     fh.Filename,
		"imported": report.Imported,
		"updated":  report.Updated,
		"skipped":  len(report.Skipped),
	}, ctxUsr)
	return ctx.JSON(http.StatusOK, report)
}

// scopedFilter restricts filter to what usr may see:
// admins see every result, lecturers the results of their courses and students their own.
// A student asking for another student's results is forbidden.
func (api *resultApi) scopedFilter(ctx context.Context, usr user.User, filter *result.QueryFilter) error {
	switch {
	case usr.IsAdmin():
	case usr.IsLecturer():
		codes, err := lecturerCourseCodes(ctx, api.courseSvc, usr.ID)
		if err != nil {
			return err
		}
		filter.CourseCodes = codes
	case usr.IsStudent() && usr.MatricNumber != "":
		studentID, err := studentScope(usr, filter.StudentID)
		if err != nil {
			return err
		}
		filter.StudentID = studentID
	default:
		return errHttpForbidden
	}
	return nil
}

func (api *resultApi) query(ctx echo.Context) error {
	filter := &result.QueryFilter{
		StudentID:  ctx.QueryParam("student"),
		CourseCode: ctx.QueryParam("course"),
		Session:    ctx.QueryParam("session"),
		Semester:   ctx.QueryParam("semester"),
	}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()
	if err := api.scopedFilter(reqCtx, ctxUsr, filter); err != nil {
		return err
	}

	results, err := api.svc.Query(reqCtx, filter)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *resultApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()
	res, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding result")
	}

	filter := new(result.QueryFilter)
	if err := api.scopedFilter(reqCtx, ctxUsr, filter); err != nil {
		return err
	}
	if !filter.Match(res) {
		return errors.Wrap(result.ErrNotFound, "checking result scope")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *resultApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()
	res, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding result")
	}
	if err := api.checkCourseAccess(reqCtx, ctxUsr, res.CourseCode); err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return errHttpForbidden
		}
		return err
	}

	if err := api.svc.Delete(reqCtx, res.ID); err != nil {
		return errors.Wrap(err, "deleting result")
	}
	return ctx.NoContent(http.StatusNoContent)
}

package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/course"
)

type courseApi struct {
	svc      course.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, deps ServerDeps) {
	api := courseApi{svc: deps.CourseSvc, validate: deps.Validate}

	g.GET("", api.query)
	g.POST("", api.create, adminMiddleware())
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminMiddleware())
	g.PUT("/:id/lecturers", api.assignLecturers, adminMiddleware())
	g.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	crs, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := &course.QueryFilter{
		Search:       ctx.QueryParam("search"),
		DepartmentID: ctx.QueryParam("department"),
		LecturerID:   ctx.QueryParam("lecturer"),
	}
	filter.Clean()

	courses, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	crs, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(reqCtx, crs, api.validate, api.svc); err != nil {
		return err
	}

	crs, err = api.svc.Update(reqCtx, crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) assignLecturers(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	crs, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	var data course.AssignLecturers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignLecturers")
	}
	if err := data.Validate(reqCtx, crs, api.validate, api.svc); err != nil {
		return err
	}

	crs, err = api.svc.AssignLecturers(reqCtx, crs.ID, data.LecturerIDs)
	if err != nil {
		return errors.Wrap(err, "assigning lecturers")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/department"
)

type departmentApi struct {
	svc      department.ServiceInterface
	validate *validator.Validate
}

func registerDepartmentAPI(g *echo.Group, deps ServerDeps) {
	api := departmentApi{svc: deps.DeptSvc, validate: deps.Validate}

	g.GET("", api.query)
	g.POST("", api.create, adminMiddleware())
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminMiddleware())
	g.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *departmentApi) create(ctx echo.Context) error {
	var data department.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	dept, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *departmentApi) query(ctx echo.Context) error {
	depts, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	if depts == nil {
		depts = []department.Department{}
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *departmentApi) retrieve(ctx echo.Context) error {
	dept, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding department")
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *departmentApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	dept, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding department")
	}

	var data department.UpdateDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDepartment")
	}
	if err := data.Validate(reqCtx, dept, api.validate, api.svc); err != nil {
		return err
	}

	dept, err = api.svc.Update(reqCtx, dept.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating department")
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *departmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting department")
	}
	return ctx.NoContent(http.StatusNoContent)
}

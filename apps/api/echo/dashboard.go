package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/dashboard"
	"github.com/acadboard/acadboard/core/user"
)

type dashboardApi struct {
	svc     dashboard.ServiceInterface
	userSvc user.ServiceInterface
}

func registerDashboardAPI(g *echo.Group, deps ServerDeps) {
	api := dashboardApi{svc: deps.DashboardSvc, userSvc: deps.UserSvc}
	g.GET("", api.stats)
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	stats, err := api.svc.ForUser(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "computing dashboard stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

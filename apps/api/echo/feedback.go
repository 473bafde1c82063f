package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/feedback"
	"github.com/acadboard/acadboard/core/user"
)

type feedbackApi struct {
	svc      feedback.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerFeedbackAPI(g *echo.Group, deps ServerDeps) {
	api := feedbackApi{svc: deps.FeedbackSvc, userSvc: deps.UserSvc, validate: deps.Validate}

	g.POST("", api.submit, rolesMiddleware(user.RoleStudent))
	g.GET("", api.query, staffMiddleware())
	g.GET("/summary", api.summary, staffMiddleware())
}

func (api *feedbackApi) submit(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fb, created, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "submitting feedback")
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, fb)
}

// bindFilter reads the feedback filter. Lecturers who are not admins only see their own feedback.
func (api *feedbackApi) bindFilter(ctx echo.Context) (*feedback.QueryFilter, error) {
	filter := &feedback.QueryFilter{
		CourseCode: ctx.QueryParam("course"),
		LecturerID: ctx.QueryParam("lecturer"),
		Session:    ctx.QueryParam("session"),
		Semester:   ctx.QueryParam("semester"),
		Sentiment:  feedback.Sentiment(ctx.QueryParam("sentiment")),
	}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		filter.LecturerID = ctxUsr.ID
	}
	return filter, nil
}

func (api *feedbackApi) query(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	list, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	res := make([]feedback.Feedback, 0, len(list))
	for _, fb := range list {
		res = append(res, fb.Public())
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *feedbackApi) summary(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing feedback")
	}
	return ctx.JSON(http.StatusOK, sum)
}

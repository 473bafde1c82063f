package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core/grading"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

type (
	gpaApi struct {
		svc     result.ServiceInterface
		userSvc user.ServiceInterface
	}

	// SemesterGPAResponse is a grading.SemesterGPA rounded for display.
	SemesterGPAResponse struct {
		StudentID   string                `json:"student_id"`
		StudentName string                `json:"student_name"`
		Semester    string                `json:"semester"`
		Session     string                `json:"session"`
		Courses     []grading.ScoreRecord `json:"courses"`
		TotalUnits  int                   `json:"total_units"`
		TotalPoints float64               `json:"total_points"`
		GPA         float64               `json:"gpa"`
		Standing    grading.Standing      `json:"standing"`
	}

	// CumulativeGPAResponse is a grading.CumulativeGPA rounded for display.
	CumulativeGPAResponse struct {
		StudentID   string                `json:"student_id"`
		StudentName string                `json:"student_name"`
		Semesters   []SemesterGPAResponse `json:"semesters"`
		TotalUnits  int                   `json:"total_units"`
		TotalPoints float64               `json:"total_points"`
		CGPA        float64               `json:"cgpa"`
		Standing    grading.Standing      `json:"standing"`
	}
)

func newSemesterGPAResponse(s grading.SemesterGPA) SemesterGPAResponse {
	return SemesterGPAResponse{
		StudentID:   s.StudentID,
		StudentName: s.StudentName,
		Semester:    s.Semester,
		Session:     s.Session,
		Courses:     s.Courses,
		TotalUnits:  s.TotalUnits,
		TotalPoints: grading.Round2(s.TotalPoints),
		GPA:         grading.Round2(s.GPA),
		Standing:    grading.StandingFor(s.GPA),
	}
}

func newCumulativeGPAResponse(c grading.CumulativeGPA) CumulativeGPAResponse {
	semesters := make([]SemesterGPAResponse, 0, len(c.Semesters))
	for _, s := range c.Semesters {
		semesters = append(semesters, newSemesterGPAResponse(s))
	}
	return CumulativeGPAResponse{
		StudentID:   c.StudentID,
		StudentName: c.StudentName,
		Semesters:   semesters,
		TotalUnits:  c.TotalUnits,
		TotalPoints: grading.Round2(c.TotalPoints),
		CGPA:        grading.Round2(c.CGPA),
		Standing:    grading.StandingFor(c.CGPA),
	}
}

func registerGPAAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := gpaApi{svc: deps.ResultSvc, userSvc: deps.UserSvc}

	gg := g.Group("/gpa", authed...)
	gg.GET("/semesters", api.semesters)
	gg.GET("/cumulative", api.cumulative)

	g.GET("/grading/scale", api.scale, authed...)

	sg := g.Group("/students", authed...)
	sg.GET("/:id/transcript", api.transcript)
}

// studentScope returns the student whose GPAs usr may see: themselves for students, requested otherwise.
func studentScope(usr user.User, requested string) (string, error) {
	if usr.IsAdmin() || usr.IsLecturer() {
		return requested, nil
	}
	if usr.IsStudent() && usr.MatricNumber != "" {
		if requested != "" && requested != usr.MatricNumber {
			return "", errHttpForbidden
		}
		return usr.MatricNumber, nil
	}
	return "", errHttpForbidden
}

func (api *gpaApi) semesters(ctx echo.Context) error {
	filter := result.GPAFilter{StudentID: ctx.QueryParam("student"), Session: ctx.QueryParam("session")}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if filter.StudentID, err = studentScope(ctxUsr, filter.StudentID); err != nil {
		return err
	}

	semesters, err := api.svc.SemesterGPAs(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing semester GPAs")
	}
	res := make([]SemesterGPAResponse, 0, len(semesters))
	for _, s := range semesters {
		res = append(res, newSemesterGPAResponse(s))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *gpaApi) cumulative(ctx echo.Context) error {
	filter := result.GPAFilter{StudentID: ctx.QueryParam("student")}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if filter.StudentID, err = studentScope(ctxUsr, filter.StudentID); err != nil {
		return err
	}

	students, err := api.svc.CumulativeGPAs(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing cumulative GPAs")
	}
	res := make([]CumulativeGPAResponse, 0, len(students))
	for _, c := range students {
		res = append(res, newCumulativeGPAResponse(c))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *gpaApi) transcript(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	studentID, err := studentScope(ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}

	tr, err := api.svc.Transcript(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "building transcript")
	}
	return ctx.JSON(http.StatusOK, tr)
}

// scale lists the grade bands, highest first.
func (api *gpaApi) scale(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, grading.Scale())
}

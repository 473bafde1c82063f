package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/dashboard"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/feedback"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
)

const contextObjectKey = "object"

type (
	ServerDeps struct {
		Conf         *core.Config
		Logger       core.Logger
		UserSvc      user.ServiceInterface
		DeptSvc      department.ServiceInterface
		CourseSvc    course.ServiceInterface
		ResultSvc    result.ServiceInterface
		FeedbackSvc  feedback.ServiceInterface
		DashboardSvc dashboard.ServiceInterface
		Validate     *validator.Validate
		Translator   ut.Translator
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HideBanner = true
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug

	s.app.GET("/", home)

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig(s.conf))
	authed := []echo.MiddlewareFunc{jwt, activeUserMiddleware(deps.UserSvc)}

	registerUserAPI(g, jwt, deps)
	registerDepartmentAPI(g.Group("/departments", authed...), deps)
	registerCourseAPI(g.Group("/courses", authed...), deps)
	registerResultAPI(g.Group("/results", authed...), deps)
	registerGPAAPI(g, authed, deps)
	registerFeedbackAPI(g.Group("/feedback", authed...), deps)
	registerDashboardAPI(g.Group("/dashboard", authed...), deps)
}

// Start listens until the server is shut down. Errors are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives SIGINT, SIGTERM and the shutdown requests of handlers.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Acadboard API!")
}

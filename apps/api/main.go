package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/acadboard/acadboard/apps/api/echo"
	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/dashboard"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/feedback"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
	emailsvc "github.com/acadboard/acadboard/services/email"
	logsvc "github.com/acadboard/acadboard/services/logger"
	"github.com/acadboard/acadboard/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	repos, err := database.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Engine, err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			logger.Error("failed to close storage", err)
		}
	}()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	mailSvc := emailsvc.NewService(conf, logger)

	usrSvc := user.NewService(repos.Users)
	deptSvc := department.NewService(repos.Departments)
	courseSvc := course.NewService(repos.Courses, deptSvc, usrSvc)
	resultSvc := result.NewService(result.ServiceDeps{
		Repo:       repos.Results,
		Courses:    courseSvc,
		Students:   usrSvc,
		MailSvc:    mailSvc,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
	})
	feedbackSvc := feedback.NewService(repos.Feedback, courseSvc, resultSvc)
	dashboardSvc := dashboard.NewService(usrSvc, deptSvc, courseSvc, resultSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q, storage %q", conf.Build, repos.Engine))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(repos.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			DeptSvc:      deptSvc,
			CourseSvc:    courseSvc,
			ResultSvc:    resultSvc,
			FeedbackSvc:  feedbackSvc,
			DashboardSvc: dashboardSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
	emailsvc "github.com/acadboard/acadboard/services/email"
	logsvc "github.com/acadboard/acadboard/services/logger"
	"github.com/acadboard/acadboard/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewKitLogger(os.Stderr)

	// set up storage
	repos, err := database.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal("setting up storage", err, map[string]interface{}{"engine": conf.Storage.Engine})
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(repos.Users)
	courseSvc := course.NewService(repos.Courses, department.NewService(repos.Departments), usrSvc)

	// start CLI
	cli := commandLine{
		usrRepo: repos.Users,
		resultSvc: result.NewService(result.ServiceDeps{
			Repo:       repos.Results,
			Courses:    courseSvc,
			Students:   usrSvc,
			MailSvc:    emailsvc.NewService(conf, logger),
			Validate:   validate,
			Translator: translator,
			Logger:     logger,
		}),
		logger: logger,
		out:    os.Stdout,
	}
	if sqlDB := repos.SQL(); sqlDB != nil {
		cli.db = sqlDB.DB
	}

	err = cli.run(os.Args)
	if cerr := repos.Close(); cerr != nil {
		logger.Error("closing storage", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

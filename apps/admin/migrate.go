package main

import (
	"github.com/pressly/goose/v3"

	"github.com/acadboard/acadboard/storage/database/postgres"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errPostgresOnly
	}
	if err := postgres.PrepareMigrations(); err != nil {
		return err
	}
	return gooseRunFunc(args[0], cli.db, postgres.MigrationsDir, args[1:]...)
}

package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/course"
	"github.com/acadboard/acadboard/core/department"
	"github.com/acadboard/acadboard/core/feedback"
	"github.com/acadboard/acadboard/core/result"
	"github.com/acadboard/acadboard/core/user"
	inmemdb "github.com/acadboard/acadboard/storage/database/inmem"
	"github.com/acadboard/acadboard/storage/database/postgres"
)

var errUnknownEngine = errors.New("unknown storage engine")

// Repositories groups the repositories of the configured storage engine.
type Repositories struct {
	Engine      string
	Users       user.Repository
	Departments department.Repository
	Courses     course.Repository
	Results     result.Repository
	Feedback    feedback.Repository

	sqlDB *sqlx.DB
}

// Open sets up the storage engine named by conf.Storage.Engine.
// The postgres database is created and migrated when needed; the in-memory store is seeded when conf.Storage.Seed is set.
func Open(ctx context.Context, conf *core.Config) (*Repositories, error) {
	switch conf.Storage.Engine {
	case core.EngineInMem, "":
		db := inmemdb.Open()
		if conf.Storage.Seed {
			if err := inmemdb.Seed(ctx, db); err != nil {
				return nil, errors.Wrap(err, "seeding database")
			}
		}
		return &Repositories{
			Engine:      core.EngineInMem,
			Users:       inmemdb.NewUserRepository(db),
			Departments: inmemdb.NewDepartmentRepository(db),
			Courses:     inmemdb.NewCourseRepository(db),
			Results:     inmemdb.NewResultRepository(db),
			Feedback:    inmemdb.NewFeedbackRepository(db),
		}, nil

	case core.EnginePostgres:
		if err := postgres.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := postgres.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err = postgres.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Repositories{
			Engine:      core.EnginePostgres,
			Users:       postgres.NewUserRepository(db),
			Departments: postgres.NewDepartmentRepository(db),
			Courses:     postgres.NewCourseRepository(db),
			Results:     postgres.NewResultRepository(db),
			Feedback:    postgres.NewFeedbackRepository(db),
			sqlDB:       db,
		}, nil

	default:
		return nil, errors.Wrapf(errUnknownEngine, "%q", conf.Storage.Engine)
	}
}

// SQL returns the postgres connection, nil for the in-memory store.
func (r *Repositories) SQL() *sqlx.DB {
	return r.sqlDB
}

func (r *Repositories) Close() error {
	if r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

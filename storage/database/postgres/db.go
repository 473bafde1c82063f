package postgres

import (
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/acadboard/acadboard/core"
)

const driverName = "postgres"

// MigrationsDir is the directory of the embedded migrations, as goose expects it.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

func dataSourceName(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   driverName,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the application database and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return OpenURL(dataSourceName(conf.Database.Name, false, conf))
}

func OpenURL(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found bool
	if err := db.Get(&found, query, name); err != nil {
		return false, err
	}
	return found, nil
}

// CreateIfNotExist creates the application role and database, connecting as the admin user.
func CreateIfNotExist(conf *core.Config) error {
	db, err := OpenURL(dataSourceName("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening admin database")
	}
	defer func() { _ = db.Close() }()

	if conf.Database.User != "" {
		found, err := exists(db, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User)
		if err != nil {
			return errors.Wrap(err, "checking app user")
		}
		if !found {
			// identifiers and passwords cannot be bound as parameters
			q := fmt.Sprintf(
				"CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'",
				quoteIdent(conf.Database.User), conf.Database.Password,
			)
			if _, err = db.Exec(q); err != nil {
				return errors.Wrap(err, "creating app user")
			}
		}
	}

	found, err := exists(db, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking database")
	}
	if !found {
		q := fmt.Sprintf("CREATE DATABASE %s", quoteIdent(conf.Database.Name))
		if conf.Database.User != "" {
			q += " OWNER " + quoteIdent(conf.Database.User)
		}
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// PrepareMigrations points goose at the embedded migrations.
func PrepareMigrations() error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect(driverName)
}

// Migrate runs every pending migration.
func Migrate(db *sqlx.DB) error {
	if err := PrepareMigrations(); err != nil {
		return errors.Wrap(err, "preparing migrations")
	}
	if err := goose.Up(db.DB, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

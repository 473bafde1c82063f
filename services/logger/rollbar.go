package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/user"
)

// RollbarLogger reports to rollbar and echoes every entry to a std logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// person picks the first user.User of args as the rollbar person and returns the other args.
// expected fmt: msg | error, map[string]interface{}, user.User
func (l *RollbarLogger) person(msg string, args []interface{}) []interface{} {
	var found bool
	rest := make([]interface{}, 0, len(args)+1)
	rest = append(rest, msg)
	for _, arg := range args {
		usr, ok := arg.(user.User)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		if !found {
			rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
			found = true
		}
	}
	if !found {
		rollbar.ClearPerson()
	}
	return rest
}

func (l *RollbarLogger) echo(level, msg string, args []interface{}) {
	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			l.std.Printf("  user: %s (%s)", usr.Username, usr.ID)
			continue
		}
		l.std.Printf("  %+v", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.person(msg, args)...)
	l.echo("DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.person(msg, args)...)
	l.echo("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.person(msg, args)...)
	l.echo("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.person(msg, args)...)
	l.echo("ERROR", msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.person(msg, args)...)
	l.echo("FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}

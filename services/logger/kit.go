package logsvc

import (
	"fmt"
	"io"
	"os"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/user"
)

// KitLogger writes logfmt lines: ts=... caller=... level=info msg=...
type KitLogger struct {
	logger gokitlog.Logger
}

var _ core.Logger = (*KitLogger)(nil)

func NewKitLogger(w io.Writer) *KitLogger {
	logger := gokitlog.NewLogfmtLogger(gokitlog.NewSyncWriter(w))
	// depth 5: the caller of Debug, Info, ...
	logger = gokitlog.With(logger, "ts", gokitlog.DefaultTimestampUTC, "caller", gokitlog.Caller(5))
	return &KitLogger{logger: logger}
}

// keyvals turns the args of a core.Logger call into logfmt pairs.
// expected fmt: error, map[string]interface{}, user.User
func keyvals(msg string, args []interface{}) []interface{} {
	kv := make([]interface{}, 0, 2+2*len(args))
	kv = append(kv, "msg", msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case error:
			kv = append(kv, "err", a.Error())
		case user.User:
			kv = append(kv, "user", a.Username)
		case map[string]interface{}:
			for k, v := range a {
				kv = append(kv, k, v)
			}
		default:
			kv = append(kv, "extra", fmt.Sprintf("%+v", a))
		}
	}
	return kv
}

func (l *KitLogger) log(lvl func(gokitlog.Logger) gokitlog.Logger, msg string, args []interface{}) {
	_ = lvl(l.logger).Log(keyvals(msg, args)...)
}

func (l *KitLogger) Debug(msg string, args ...interface{}) { l.log(level.Debug, msg, args) }
func (l *KitLogger) Info(msg string, args ...interface{})  { l.log(level.Info, msg, args) }
func (l *KitLogger) Warn(msg string, args ...interface{})  { l.log(level.Warn, msg, args) }
func (l *KitLogger) Error(msg string, args ...interface{}) { l.log(level.Error, msg, args) }

func (l *KitLogger) Fatal(msg string, args ...interface{}) {
	l.log(level.Error, msg, args)
	os.Exit(1)
}

package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/scope"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

// RollbarLogger reports entries to rollbar and echoes them to a std logger.
//
// Args may be an error, extras maps, the acting user.User or *scope.UserContext, a client.Client
// or a health.Breakdown. Everything but the error and the user is flattened into one extras map,
// so a report always says which user, scope and client it concerns.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is a log call sorted into what rollbar expects.
type entry struct {
	msg    string
	err    error
	person *user.User
	extras map[string]interface{}
	other  []interface{}
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, extras: make(map[string]interface{})}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case user.User:
			if e.person == nil && v.ID != "" { // the first user is the acting one
				usr := v
				e.person = &usr
				e.addScope(scope.NewUserContext(usr))
			}
		case *scope.UserContext:
			e.addScope(v)
		case client.Client:
			e.extras["client_id"] = v.ID
			e.extras["client_name"] = v.Name
			e.extras["management_group"] = v.ManagementGroup
		case health.Breakdown:
			e.extras["health_score"] = v.Score
			e.extras["health_band"] = string(v.Band)
		case map[string]interface{}:
			for k, val := range v {
				e.extras[k] = val
			}
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.other = append(e.other, v)
			}
		default:
			e.other = append(e.other, v)
		}
	}
	return e
}

func (e *entry) addScope(uc *scope.UserContext) {
	if uc == nil || uc.Role == "" {
		return
	}
	e.extras["user_role"] = uc.Role
	if !uc.IsAdmin() {
		e.extras["user_clients"] = uc.AssignedClients
	}
}

// rollbarArgs are the args of rollbar.Log, which keeps only the last extras map it is given.
func (e entry) rollbarArgs() []interface{} {
	args := make([]interface{}, 0, len(e.other)+3)
	args = append(args, e.msg)
	if e.err != nil {
		args = append(args, e.err)
	}
	args = append(args, e.other...)
	if len(e.extras) > 0 {
		args = append(args, e.extras)
	}
	return args
}

// extrasString renders extras as sorted key=value pairs.
func (e entry) extrasString() string {
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.extras[k]))
	}
	return strings.Join(pairs, " ")
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	e := newEntry(msg, args)
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.Name, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.rollbarArgs()...)

	l.std.Printf("[%s] %s", strings.ToUpper(level), msg)
	if e.err != nil {
		l.std.Printf("  error: %+v", e.err)
	}
	if e.person != nil {
		l.std.Printf("  user: %s <%s>", e.person.ID, e.person.Email)
	}
	if len(e.extras) > 0 {
		l.std.Printf("  %s", e.extrasString())
	}
	for _, arg := range e.other {
		l.std.Printf("  %+v", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal reports, waits for rollbar to flush, then exits.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}

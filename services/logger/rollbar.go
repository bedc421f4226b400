package logsvc

import (
	"fmt"
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/auth"
	"github.com/trezcool/masomo/core/user"
)

// RollbarLogger prints to a std logger and reports to Rollbar.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger reports to Rollbar outside of debug & test modes when a token is configured.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetServerRoot(conf.WorkDir)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for queued reports to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// person identifies the caller a report is about.
type person struct {
	id, name, email string
}

func personOf(arg interface{}) (person, bool) {
	switch v := arg.(type) {
	case user.User:
		return person{id: v.ID, name: v.Name, email: v.Email}, true
	case *user.User:
		if v != nil {
			return personOf(*v)
		}
	case auth.Principal:
		if v.User != nil {
			return personOf(*v.User)
		}
		return person{id: "apikey:" + string(v.Role), name: string(v.Role) + " api key"}, true
	}
	return person{}, false
}

// split separates the caller from the other args: error, map[string]interface{} extras or values.
func (l RollbarLogger) split(args []interface{}) (*person, []interface{}) {
	var who *person
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		if p, ok := personOf(arg); ok {
			if who == nil { // only report one caller
				who = &p
			}
			continue
		}
		rest = append(rest, arg)
	}
	return who, rest
}

func (l RollbarLogger) report(level, msg string, args []interface{}) {
	who, rest := l.split(args)
	if who != nil {
		rollbar.SetPerson(who.id, who.name, who.email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)
	l.std.Println(l.format(level, msg, who, rest))
}

func (l RollbarLogger) format(level, msg string, who *person, args []interface{}) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(level))
	b.WriteString(" ")
	b.WriteString(msg)
	if who != nil {
		fmt.Fprintf(&b, " | by: %s", who.id)
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			fmt.Fprintf(&b, " | error: %v", v)
		case map[string]interface{}:
			for k, val := range v {
				fmt.Fprintf(&b, " | %s: %v", k, val)
			}
		default:
			fmt.Fprintf(&b, " | %+v", v)
		}
	}
	return b.String()
}

// Debug messages are dropped outside of debug mode.
func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.report(rollbar.DEBUG, msg, args)
	}
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}

// Package schedule turns the configured cron expressions into crontab lines
// that invoke the attendance binary twice a day.
package schedule

import (
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nikshitha/greythr-attendance/attendance"
	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/fault"
)

// Credential placeholders written instead of real secrets. They are single
// quoted so the line stays valid shell until the operator replaces them.
const (
	UsernamePlaceholder = "'<username>'"
	PasswordPlaceholder = "'<password>'"
)

// Entry is one scheduled invocation
type Entry struct {
	Action  attendance.Action
	Expr    string
	NextRun time.Time
}

// Plan parses the signin and signout expressions and computes their next
// fire times after now, in now's location.
func Plan(cfg config.ScheduleConfig, now time.Time) ([]Entry, error) {
	exprs := []struct {
		action attendance.Action
		expr   string
	}{
		{attendance.Signin, cfg.Signin},
		{attendance.Signout, cfg.Signout},
	}

	entries := make([]Entry, 0, len(exprs))
	for _, s := range exprs {
		sched, err := cron.ParseStandard(s.expr)
		if err != nil {
			return nil, fault.Wrapf(err, fault.Config, "schedule", "invalid %s schedule %q", s.action, s.expr)
		}
		entries = append(entries, Entry{
			Action:  s.action,
			Expr:    s.expr,
			NextRun: sched.Next(now),
		})
	}
	return entries, nil
}

// Line renders the crontab line for e. Credentials are injected inline as
// placeholders to be filled in by the operator.
func Line(e Entry, binary, logFile string) string {
	line := fmt.Sprintf("%s %s=%s %s=%s %s %s",
		e.Expr,
		config.EnvUsername, UsernamePlaceholder,
		config.EnvPassword, PasswordPlaceholder,
		binary, e.Action)
	if logFile != "" {
		line += fmt.Sprintf(" >> %s 2>&1", logFile)
	}
	return line
}

// Write prints the crontab block for cfg, with each entry's next run as a comment.
func Write(w io.Writer, cfg config.ScheduleConfig, now time.Time) error {
	entries, err := Plan(cfg, now)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "# greytHR attendance")
	for _, e := range entries {
		fmt.Fprintf(w, "# %s next run: %s\n", e.Action, e.NextRun.Format(time.RFC1123))
		if _, err := fmt.Fprintln(w, Line(e, cfg.Binary, cfg.LogFile)); err != nil {
			return err
		}
	}
	return nil
}

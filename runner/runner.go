// Package runner is the top-level wrapper around one attendance or probe run.
// It owns the browser handle and releases it exactly once on every path.
package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/nikshitha/greythr-attendance/attendance"
	"github.com/nikshitha/greythr-attendance/auth"
	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/diagnostics"
	"github.com/nikshitha/greythr-attendance/fault"
	"github.com/nikshitha/greythr-attendance/logger"
	"github.com/nikshitha/greythr-attendance/session"
)

// LaunchFunc acquires a browser for one run.
type LaunchFunc func(ctx context.Context) (browser.Driver, error)

// RodLauncher launches Chrome through Rod with the configured flags.
func RodLauncher(cfg config.BrowserConfig, log *logger.Logger) LaunchFunc {
	return func(ctx context.Context) (browser.Driver, error) {
		return browser.Launch(ctx, cfg, log)
	}
}

// Marker submits an attendance action with a replayed session.
type Marker interface {
	Mark(ctx context.Context, cookies map[string]string, action attendance.Action, csrfToken string) (*attendance.Result, error)
}

// Runner runs the scheduled marker and the probe.
type Runner struct {
	cfg    *config.Config
	logger *logger.Logger
	launch LaunchFunc
	marker Marker
	sleep  auth.Sleeper
}

// New creates a runner. marker may be nil for probe-only use.
func New(cfg *config.Config, log *logger.Logger, launch LaunchFunc, marker Marker) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: log.WithModule("runner"),
		launch: launch,
		marker: marker,
		sleep:  auth.Sleep,
	}
}

// SetSleeper replaces the settle delay used by the login and logout flows.
func (r *Runner) SetSleeper(s auth.Sleeper) {
	r.sleep = s
}

// MarkAttendance logs in, extracts the session and posts action once.
// The API is never called unless login reached LoggedIn.
func (r *Runner) MarkAttendance(ctx context.Context, action attendance.Action) error {
	log := r.logger.WithAction(action.String())
	log.Info("Starting attendance run")

	err := r.withBrowser(ctx, "mark attendance", func(d browser.Driver, release func()) error {
		diag := diagnostics.NewCollector(r.cfg.Diagnostics, r.cfg.Selectors.ErrorMessages, r.logger)
		a := auth.NewAuthenticator(d, auth.ScheduledOptions(r.cfg, diag), r.logger)
		a.SetSleeper(r.sleep)
		if err := a.Login(ctx, r.cfg.Credentials); err != nil {
			return err
		}

		sess, err := session.Extract(ctx, d, r.cfg.Selectors.CSRFMeta, r.logger)
		if err != nil {
			return err
		}
		// The API call only needs the extracted session.
		release()

		if r.marker == nil {
			return fault.New(fault.Config, "mark attendance", "no attendance client configured")
		}
		res, err := r.marker.Mark(ctx, sess.Cookies, action, sess.CSRFToken)
		if err != nil {
			return err
		}
		if !res.OK {
			return fault.Newf(fault.Remote, "mark attendance", "attendance API returned status %d", res.Status)
		}
		log.Infof("Attendance marked successfully for %s", action)
		return nil
	})
	return r.report(log, err)
}

// Probe logs in, waits and logs out. It makes no API call.
func (r *Runner) Probe(ctx context.Context) error {
	log := r.logger.WithAction("probe")
	log.Info("Starting login probe")

	err := r.withBrowser(ctx, "probe", func(d browser.Driver, _ func()) error {
		a := auth.NewAuthenticator(d, auth.ProbeOptions(r.cfg), r.logger)
		a.SetSleeper(r.sleep)
		if err := a.Login(ctx, r.cfg.Credentials); err != nil {
			return err
		}
		return a.Logout(ctx, r.cfg.LogoutSettle())
	})
	return r.report(log, err)
}

// withBrowser validates credentials, acquires a driver and runs fn. The
// driver is released exactly once, whether fn returns, fails, panics or
// calls release itself.
func (r *Runner) withBrowser(ctx context.Context, op string, fn func(d browser.Driver, release func()) error) (err error) {
	if err := r.cfg.Credentials.Validate(); err != nil {
		return err
	}

	d, err := r.launch(ctx)
	if err != nil {
		if fault.KindOf(err) == "" {
			err = fault.Wrap(err, fault.Browser, op, "failed to launch browser")
		}
		return err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if cerr := d.Close(); cerr != nil {
				r.logger.WithError(cerr).Warn("Failed to close browser")
			}
		})
	}
	defer release()

	defer func() {
		if p := recover(); p != nil {
			err = fault.Newf(fault.Browser, op, "unexpected panic: %v", p)
		}
	}()

	return fn(d, release)
}

// report logs err by kind and returns it unchanged.
func (r *Runner) report(log *logger.Logger, err error) error {
	if err == nil {
		log.Info("Run completed")
		return nil
	}

	entry := log.WithError(err).WithField("kind", string(fault.KindOf(err)))
	switch fault.KindOf(err) {
	case fault.Config:
		entry.Error("Configuration error, run aborted")
	case fault.NotFound:
		entry.Error("Element not found, run aborted")
	case fault.Interaction:
		entry.WithField("reason", string(fault.ReasonOf(err))).Error("Element interaction failed, run aborted")
	case fault.Session:
		entry.Error("Failed to read session after login")
	case fault.Remote:
		entry.Error("Attendance request failed")
	default:
		if errors.Is(err, context.Canceled) {
			entry.Warn("Run canceled")
			break
		}
		entry.Error("An error occurred")
	}
	return err
}

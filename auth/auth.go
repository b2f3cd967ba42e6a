// Package auth drives the portal login and logout flows.
// Login is a small state machine; any failure leaves it in Failed and the
// caller must not continue past that point.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/diagnostics"
	"github.com/nikshitha/greythr-attendance/fault"
	"github.com/nikshitha/greythr-attendance/logger"
)

// State is a login flow state.
type State int

const (
	NotStarted State = iota
	PageLoaded
	CredentialsEntered
	Submitted
	LoggedIn
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case PageLoaded:
		return "PageLoaded"
	case CredentialsEntered:
		return "CredentialsEntered"
	case Submitted:
		return "Submitted"
	case LoggedIn:
		return "LoggedIn"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures one login flow.
type Options struct {
	URL       string
	Selectors config.SelectorConfig

	// ElementTimeout bounds every element wait.
	ElementTimeout time.Duration
	PollInterval   time.Duration

	// WaitForReady blocks after navigation until document.readyState is complete.
	// When false, LoadSettle is slept instead.
	WaitForReady    bool
	PageLoadTimeout time.Duration
	LoadSettle      time.Duration

	// RequireMarker waits for Selectors.Dashboard after submit. When false the
	// flow sleeps SubmitSettle and assumes the login went through.
	RequireMarker bool
	SubmitSettle  time.Duration

	// Diagnostics, when set, captures artifacts on every failed transition.
	Diagnostics *diagnostics.Collector
}

// ScheduledOptions returns the options used by the unattended attendance run.
func ScheduledOptions(cfg *config.Config, diag *diagnostics.Collector) Options {
	return Options{
		URL:             cfg.LoginURL(),
		Selectors:       cfg.Selectors,
		ElementTimeout:  cfg.ElementTimeout(),
		PollInterval:    cfg.PollInterval(),
		WaitForReady:    true,
		PageLoadTimeout: cfg.PageLoadTimeout(),
		RequireMarker:   true,
		Diagnostics:     diag,
	}
}

// ProbeOptions returns the options used by the interactive probe.
func ProbeOptions(cfg *config.Config) Options {
	return Options{
		URL:            cfg.LoginURL(),
		Selectors:      cfg.Selectors,
		ElementTimeout: cfg.ProbeElementTimeout(),
		PollInterval:   cfg.PollInterval(),
		LoadSettle:     cfg.LoadSettle(),
		SubmitSettle:   cfg.SubmitSettle(),
	}
}

// Sleeper blocks for a fixed settle delay.
type Sleeper func(ctx context.Context, d time.Duration)

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Authenticator runs the login and logout flows against one driver.
type Authenticator struct {
	driver browser.Driver
	finder *browser.Finder
	opts   Options
	logger *logger.Logger
	sleep  Sleeper
	state  State
}

// NewAuthenticator creates an authenticator for d.
func NewAuthenticator(d browser.Driver, opts Options, log *logger.Logger) *Authenticator {
	return &Authenticator{
		driver: d,
		finder: browser.NewFinder(d, opts.ElementTimeout, opts.PollInterval, log),
		opts:   opts,
		logger: log.WithModule("auth"),
		sleep:  Sleep,
		state:  NotStarted,
	}
}

// SetSleeper replaces the settle delay implementation.
func (a *Authenticator) SetSleeper(s Sleeper) {
	a.sleep = s
}

// State returns the current flow state.
func (a *Authenticator) State() State {
	return a.state
}

// Login runs NotStarted → LoggedIn. On error the state is Failed.
func (a *Authenticator) Login(ctx context.Context, creds config.Credentials) error {
	if a.state != NotStarted {
		return fault.Newf(fault.Browser, "login", "login already attempted (state %s)", a.state)
	}

	steps := []struct {
		next State
		run  func(context.Context, config.Credentials) error
	}{
		{PageLoaded, a.loadPage},
		{CredentialsEntered, a.enterCredentials},
		{Submitted, a.submit},
		{LoggedIn, a.confirm},
	}

	for _, step := range steps {
		if err := step.run(ctx, creds); err != nil {
			return a.fail(ctx, err)
		}
		a.transition(step.next)
	}
	return nil
}

func (a *Authenticator) transition(next State) {
	a.logger.WithFields(map[string]interface{}{
		"from": a.state.String(),
		"to":   next.String(),
	}).Debug("Login state changed")
	a.state = next
}

func (a *Authenticator) fail(ctx context.Context, err error) error {
	a.logger.WithError(err).WithField("state", a.state.String()).Error("Login failed")
	a.transition(Failed)
	if a.opts.Diagnostics != nil {
		a.opts.Diagnostics.Capture(ctx, a.driver)
	}
	return err
}

func (a *Authenticator) loadPage(ctx context.Context, _ config.Credentials) error {
	a.logger.Info("Navigating to URL")
	if err := a.driver.Navigate(ctx, a.opts.URL); err != nil {
		return err
	}

	if !a.opts.WaitForReady {
		a.sleep(ctx, a.opts.LoadSettle)
		return nil
	}

	var last string
	err := browser.Poll(ctx, a.opts.PageLoadTimeout, a.opts.PollInterval, func(ctx context.Context) (bool, error) {
		state, err := a.driver.ReadyState(ctx)
		last = state
		return state == "complete", err
	})
	if err != nil {
		return fault.Wrapf(err, fault.NotFound, "load page", "page never reached readyState complete (last %q)", last)
	}
	return nil
}

func (a *Authenticator) enterCredentials(ctx context.Context, creds config.Credentials) error {
	a.logger.Info("Locating username and password fields")

	username, err := a.finder.Locate(ctx, "username field", a.opts.Selectors.Username, browser.Visible)
	if err != nil {
		return err
	}
	password, err := a.finder.Locate(ctx, "password field", a.opts.Selectors.Password, browser.Visible)
	if err != nil {
		return err
	}

	a.logger.Info("Logging in")
	if err := username.Input(creds.Username); err != nil {
		return err
	}
	return password.Input(creds.Password)
}

func (a *Authenticator) submit(ctx context.Context, _ config.Credentials) error {
	button, err := a.finder.Locate(ctx, "login button", a.opts.Selectors.Submit, browser.Clickable)
	if err != nil {
		return err
	}
	return button.Click()
}

func (a *Authenticator) confirm(ctx context.Context, _ config.Credentials) error {
	if !a.opts.RequireMarker {
		a.sleep(ctx, a.opts.SubmitSettle)
		return nil
	}

	if _, err := a.finder.Locate(ctx, "dashboard", a.opts.Selectors.Dashboard, browser.Present); err != nil {
		return err
	}
	a.logger.Info("Login successful")
	return nil
}

// Logout clicks the sign-out control. It requires a LoggedIn state and
// treats a missing control as a hard failure.
func (a *Authenticator) Logout(ctx context.Context, settle time.Duration) error {
	if a.state != LoggedIn {
		return fault.Newf(fault.Browser, "logout", "not logged in (state %s)", a.state)
	}

	a.logger.Info("Locating Sign Out button")
	button := a.finder.Find(ctx, "sign out button", a.opts.Selectors.SignOut, browser.Present)
	if button == nil {
		return fault.New(fault.NotFound, "logout", "Sign Out button not found")
	}
	if err := button.Click(); err != nil {
		return err
	}

	a.sleep(ctx, settle)
	a.state = NotStarted
	a.logger.Info("Logged out successfully")
	return nil
}

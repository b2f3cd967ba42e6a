package auth

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/browser/browsertest"
	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/diagnostics"
	"github.com/nikshitha/greythr-attendance/fault"
	"github.com/nikshitha/greythr-attendance/logger"
)

var creds = config.Credentials{Username: "emp01", Password: "s3cret"}

// loginPage is a fake portal whose dashboard appears after the submit click.
type loginPage struct {
	driver   *browsertest.FakeDriver
	username *browsertest.FakeElement
	password *browsertest.FakeElement
	submit   *browsertest.FakeElement
	sel      config.SelectorConfig
}

func newLoginPage(sel config.SelectorConfig, dashboardOnSubmit bool) *loginPage {
	d := browsertest.NewFakeDriver()
	p := &loginPage{
		driver:   d,
		username: d.Put(sel.Username, &browsertest.FakeElement{}),
		password: d.Put(sel.Password, &browsertest.FakeElement{}),
		submit:   d.Put(sel.Submit, &browsertest.FakeElement{}),
		sel:      sel,
	}
	if dashboardOnSubmit {
		p.submit.OnClick = func() {
			d.Put(sel.Dashboard, &browsertest.FakeElement{})
			d.Put(sel.SignOut, &browsertest.FakeElement{})
		}
	}
	return p
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Portal.BaseURL = "https://acme.greythr.com"
	dir := t.TempDir()
	cfg.Diagnostics.ScreenshotPath = filepath.Join(dir, "login_failure.png")
	cfg.Diagnostics.HTMLPath = filepath.Join(dir, "login_failure.html")
	return cfg
}

func fastOptions(opts Options) Options {
	opts.ElementTimeout = 50 * time.Millisecond
	opts.PageLoadTimeout = 50 * time.Millisecond
	opts.PollInterval = 5 * time.Millisecond
	return opts
}

func newAuth(d browser.Driver, opts Options, log *logger.Logger) (*Authenticator, *[]time.Duration) {
	a := NewAuthenticator(d, fastOptions(opts), log)
	var slept []time.Duration
	a.SetSleeper(func(_ context.Context, d time.Duration) { slept = append(slept, d) })
	return a, &slept
}

func TestLogin_ScheduledSuccess(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, true)

	a, _ := newAuth(page.driver, ScheduledOptions(cfg, nil), logger.Discard())
	require.NoError(t, a.Login(context.Background(), creds))

	assert.Equal(t, LoggedIn, a.State())
	assert.Equal(t, []string{"https://acme.greythr.com/"}, page.driver.Navigations)
	assert.Equal(t, []string{"emp01"}, page.username.Inputs)
	assert.Equal(t, []string{"s3cret"}, page.password.Inputs)
	assert.Equal(t, 1, page.submit.Clicks)
}

func TestLogin_WaitsForReadyState(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, true)
	page.driver.ReadyStateValue = "loading"

	a, _ := newAuth(page.driver, ScheduledOptions(cfg, nil), logger.Discard())
	err := a.Login(context.Background(), creds)

	require.Error(t, err)
	assert.Equal(t, Failed, a.State())
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
	assert.Empty(t, page.username.Inputs, "credentials must not be typed before the page is ready")
}

func TestLogin_MissingFields(t *testing.T) {
	for _, field := range []string{"username", "password"} {
		t.Run(field, func(t *testing.T) {
			cfg := testConfig(t)
			page := newLoginPage(cfg.Selectors, true)
			if field == "username" {
				page.driver.Remove(cfg.Selectors.Username)
			} else {
				page.driver.Remove(cfg.Selectors.Password)
			}

			a, _ := newAuth(page.driver, ScheduledOptions(cfg, nil), logger.Discard())
			err := a.Login(context.Background(), creds)

			require.Error(t, err)
			assert.Equal(t, Failed, a.State())
			assert.Equal(t, fault.NotFound, fault.KindOf(err))
			assert.Contains(t, err.Error(), field+" field")
			assert.Zero(t, page.submit.Clicks)
		})
	}
}

func TestLogin_SubmitNotClickable(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, true)
	page.submit.InteractErr = browsertest.Covered()

	a, _ := newAuth(page.driver, ScheduledOptions(cfg, nil), logger.Discard())
	err := a.Login(context.Background(), creds)

	require.Error(t, err)
	assert.Equal(t, Failed, a.State())
	assert.Equal(t, fault.Interaction, fault.KindOf(err))
	assert.Equal(t, fault.ReasonIntercepted, fault.ReasonOf(err))
	assert.Zero(t, page.submit.Clicks)
}

func TestLogin_MarkerMissingCapturesDiagnostics(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, false)
	page.driver.Put(cfg.Selectors.ErrorMessages[1], &browsertest.FakeElement{TextValue: "Invalid credentials"})

	var console bytes.Buffer
	log, err := logger.New(logger.Config{Level: "info", Format: "json", Console: &console})
	require.NoError(t, err)

	diag := diagnostics.NewCollector(cfg.Diagnostics, cfg.Selectors.ErrorMessages, log)
	a, _ := newAuth(page.driver, ScheduledOptions(cfg, diag), log)
	err = a.Login(context.Background(), creds)

	require.Error(t, err)
	assert.Equal(t, Failed, a.State())
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
	assert.Contains(t, err.Error(), "dashboard")

	assert.FileExists(t, cfg.Diagnostics.ScreenshotPath)
	html, err := os.ReadFile(cfg.Diagnostics.HTMLPath)
	require.NoError(t, err)
	assert.Equal(t, page.driver.Markup, string(html))
	assert.Contains(t, console.String(), "Invalid credentials")
}

func TestLogin_OnlyOnce(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, true)

	a, _ := newAuth(page.driver, ScheduledOptions(cfg, nil), logger.Discard())
	require.NoError(t, a.Login(context.Background(), creds))
	assert.Error(t, a.Login(context.Background(), creds))
}

func TestProbe_LoginAndLogout(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, true)

	a, slept := newAuth(page.driver, ProbeOptions(cfg), logger.Discard())
	require.NoError(t, a.Login(context.Background(), creds))
	assert.Equal(t, LoggedIn, a.State())

	require.NoError(t, a.Logout(context.Background(), cfg.LogoutSettle()))
	assert.Equal(t, []time.Duration{cfg.LoadSettle(), cfg.SubmitSettle(), cfg.LogoutSettle()}, *slept)
}

func TestProbe_SignOutMissingIsFatal(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, false)

	a, _ := newAuth(page.driver, ProbeOptions(cfg), logger.Discard())
	require.NoError(t, a.Login(context.Background(), creds), "probe login does not wait for a marker")

	err := a.Logout(context.Background(), cfg.LogoutSettle())
	require.Error(t, err)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
	assert.Contains(t, err.Error(), "Sign Out button not found")
}

func TestLogout_RequiresLogin(t *testing.T) {
	cfg := testConfig(t)
	page := newLoginPage(cfg.Selectors, true)

	a, _ := newAuth(page.driver, ProbeOptions(cfg), logger.Discard())
	assert.Error(t, a.Logout(context.Background(), 0))
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	Sleep(ctx, time.Minute)
	assert.Less(t, time.Since(start), time.Second)
}

package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/fault"
	"github.com/nikshitha/greythr-attendance/logger"
)

// Browser wraps a Rod browser and its single page
type Browser struct {
	logger   *logger.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Launcher builds the Chrome launcher from the configured flags.
// Every flag is independent; headless is the only one with a value.
func Launcher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-first-run").
		Set("no-default-browser-check")

	if cfg.DisableGPU {
		l = l.Set("disable-gpu")
	}
	if cfg.DisableDevShmUsage {
		l = l.Set("disable-dev-shm-usage")
	} else {
		l = l.Delete("disable-dev-shm-usage")
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	return l
}

// Launch starts Chrome, connects to it and opens one page.
// On error nothing is left running.
func Launch(ctx context.Context, cfg config.BrowserConfig, log *logger.Logger) (*Browser, error) {
	b := &Browser{logger: log.WithModule("browser")}
	b.logger.WithFields(map[string]interface{}{
		"headless":   cfg.Headless,
		"no_sandbox": cfg.NoSandbox,
		"stealth":    cfg.Stealth,
	}).Info("Launching browser")

	b.launcher = Launcher(cfg).Context(ctx)
	controlURL, err := b.launcher.Launch()
	if err != nil {
		return nil, fault.Wrap(err, fault.Browser, "launch", "failed to launch browser")
	}

	b.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.browser.Connect(); err != nil {
		b.launcher.Kill()
		return nil, fault.Wrap(err, fault.Browser, "launch", "failed to connect to browser")
	}

	if cfg.Stealth {
		b.page, err = stealth.Page(b.browser)
	} else {
		b.page, err = b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		b.Close()
		return nil, fault.Wrap(err, fault.Browser, "launch", "failed to create page")
	}

	err = b.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
	if err != nil {
		b.logger.WithError(err).Warn("Failed to set viewport")
	}

	b.logger.Info("Browser launched successfully")
	return b, nil
}

func (b *Browser) p(ctx context.Context) *rod.Page {
	return b.page.Context(ctx)
}

// Navigate opens url in the page
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.logger.BrowserAction("navigate", url)
	if err := b.p(ctx).Navigate(url); err != nil {
		return fault.Wrap(err, fault.Browser, "navigate", "navigation failed")
	}
	return nil
}

// ReadyState returns document.readyState
func (b *Browser) ReadyState(ctx context.Context) (string, error) {
	return b.Eval(ctx, `() => document.readyState`)
}

// Query looks the locator up once without waiting
func (b *Browser) Query(ctx context.Context, loc Locator) (Element, bool, error) {
	page := b.p(ctx)

	var (
		ok  bool
		el  *rod.Element
		err error
	)
	switch loc.By {
	case config.ByID:
		ok, el, err = page.Has("#" + cssEscapeID(loc.Value))
	case config.ByCSS:
		ok, el, err = page.Has(loc.Value)
	case config.ByXPath:
		ok, el, err = page.HasX(loc.Value)
	default:
		return nil, false, fault.Newf(fault.Config, "query", "unknown locating strategy %q", loc.By)
	}
	if err != nil || !ok {
		return nil, false, err
	}
	return &element{el: el}, true, nil
}

// Cookies returns every cookie visible to the current page
func (b *Browser) Cookies(ctx context.Context) ([]Cookie, error) {
	cookies, err := b.p(ctx).Cookies(nil)
	if err != nil {
		return nil, fault.Wrap(err, fault.Session, "cookies", "failed to read cookies")
	}

	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return out, nil
}

// Eval runs js in the page
func (b *Browser) Eval(ctx context.Context, js string) (string, error) {
	res, err := b.p(ctx).Eval(js)
	if err != nil {
		return "", err
	}
	if res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

// Screenshot captures the full page as PNG
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	return b.p(ctx).Screenshot(true, nil)
}

// HTML returns the page markup
func (b *Browser) HTML(ctx context.Context) (string, error) {
	return b.p(ctx).HTML()
}

// URL returns the current page URL
func (b *Browser) URL(ctx context.Context) (string, error) {
	info, err := b.p(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Title returns the current page title
func (b *Browser) Title(ctx context.Context) (string, error) {
	info, err := b.p(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// Close closes the browser and kills the launched process
func (b *Browser) Close() error {
	b.logger.Info("Closing browser")

	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

// element adapts *rod.Element to Element
type element struct {
	el *rod.Element
}

func (e *element) WithContext(ctx context.Context, timeout time.Duration) Element {
	el := e.el.Context(ctx)
	if timeout > 0 {
		el = el.Timeout(timeout)
	}
	return &element{el: el}
}

func (e *element) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *element) Interactable() error {
	_, err := e.el.Interactable()
	return interactionFault("interactable", err)
}

func (e *element) Input(text string) error {
	if err := e.el.SelectAllText(); err != nil {
		return interactionFault("input", err)
	}
	return interactionFault("input", e.el.Input(text))
}

func (e *element) Click() error {
	return interactionFault("click", e.el.Click(proto.InputMouseButtonLeft, 1))
}

func (e *element) Text() (string, error) {
	text, err := e.el.Text()
	return strings.TrimSpace(text), err
}

func (e *element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// interactionFault tags Rod's interaction errors with a reason.
func interactionFault(op string, err error) error {
	if err == nil {
		return nil
	}

	var covered *rod.CoveredError
	var notInteractable *rod.NotInteractableError
	var invisible *rod.InvisibleShapeError
	switch {
	case errors.As(err, &covered):
		return fault.InteractionError(op, fault.ReasonIntercepted, err)
	case errors.As(err, &notInteractable):
		return fault.InteractionError(op, fault.ReasonNotInteractable, err)
	case errors.As(err, &invisible):
		return fault.InteractionError(op, fault.ReasonInvisible, err)
	default:
		return fault.Wrap(err, fault.Browser, op, "element operation failed")
	}
}

// cssEscapeID makes an id usable in a #id selector.
func cssEscapeID(id string) string {
	var sb strings.Builder
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteString(`\3` + strconv.Itoa(int(r-'0')) + " ")
			} else {
				sb.WriteRune(r)
			}
		default:
			sb.WriteRune('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

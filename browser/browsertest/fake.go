// Package browsertest provides in-memory Driver and Element fakes for flow tests.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/fault"
)

// FakeElement is a scripted element. Zero value is a visible, clickable element.
type FakeElement struct {
	mu sync.Mutex

	Hidden      bool
	InteractErr error
	ClickErr    error
	InputErr    error
	TextValue   string
	Attrs       map[string]string

	// OnClick runs after a successful click, e.g. to reveal the next page's elements.
	OnClick func()

	Inputs []string
	Clicks int
}

// WithContext binds e to ctx. The timeout is ignored.
func (e *FakeElement) WithContext(ctx context.Context, _ time.Duration) browser.Element {
	return &boundElement{FakeElement: e, ctx: ctx}
}

func (e *FakeElement) Visible() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Hidden, nil
}

func (e *FakeElement) Interactable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.InteractErr
}

func (e *FakeElement) Input(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.InputErr != nil {
		return e.InputErr
	}
	e.Inputs = append(e.Inputs, text)
	return nil
}

func (e *FakeElement) Click() error {
	e.mu.Lock()
	if e.ClickErr != nil {
		e.mu.Unlock()
		return e.ClickErr
	}
	e.Clicks++
	onClick := e.OnClick
	e.mu.Unlock()

	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *FakeElement) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.TextValue, nil
}

func (e *FakeElement) Attribute(name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.Attrs[name]
	return v, ok, nil
}

// boundElement is a FakeElement seen through the context it was looked up
// with. Like a Rod element, it fails every operation once that context is done.
type boundElement struct {
	*FakeElement
	ctx context.Context
}

func (b *boundElement) WithContext(ctx context.Context, timeout time.Duration) browser.Element {
	return b.FakeElement.WithContext(ctx, timeout)
}

func (b *boundElement) Visible() (bool, error) {
	if err := b.ctx.Err(); err != nil {
		return false, err
	}
	return b.FakeElement.Visible()
}

func (b *boundElement) Interactable() error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	return b.FakeElement.Interactable()
}

func (b *boundElement) Input(text string) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	return b.FakeElement.Input(text)
}

func (b *boundElement) Click() error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	return b.FakeElement.Click()
}

func (b *boundElement) Text() (string, error) {
	if err := b.ctx.Err(); err != nil {
		return "", err
	}
	return b.FakeElement.Text()
}

func (b *boundElement) Attribute(name string) (string, bool, error) {
	if err := b.ctx.Err(); err != nil {
		return "", false, err
	}
	return b.FakeElement.Attribute(name)
}

// FakeDriver is a scripted page. Elements are keyed by Locator and Query
// returns them bound to the lookup context.
type FakeDriver struct {
	mu sync.Mutex

	elements map[browser.Locator]*FakeElement

	ReadyStateValue string
	CookieJar       []browser.Cookie
	CookieErr       error
	// EvalResults maps a script to its result; unknown scripts return "".
	EvalResults     map[string]string
	EvalErr         error
	ScreenshotPNG   []byte
	Markup          string
	CurrentURL      string
	PageTitle       string
	NavigateErr     error

	Navigations []string
	Queries     int
	closes      int
}

// NewFakeDriver returns a driver whose page is already complete.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		elements:        make(map[browser.Locator]*FakeElement),
		ReadyStateValue: "complete",
		EvalResults:     make(map[string]string),
		ScreenshotPNG:   []byte("\x89PNG fake"),
		Markup:          "<html><body></body></html>",
	}
}

// Put makes an element resolvable by loc.
func (d *FakeDriver) Put(loc browser.Locator, el *FakeElement) *FakeElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[loc] = el
	return el
}

// Remove makes loc unresolvable.
func (d *FakeDriver) Remove(loc browser.Locator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, loc)
}

// CloseCount reports how many times Close was called.
func (d *FakeDriver) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

func (d *FakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	d.Navigations = append(d.Navigations, url)
	d.CurrentURL = url
	return nil
}

func (d *FakeDriver) ReadyState(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ReadyStateValue, nil
}

func (d *FakeDriver) Query(ctx context.Context, loc browser.Locator) (browser.Element, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Queries++
	el, ok := d.elements[loc]
	if !ok {
		return nil, false, nil
	}
	return el.WithContext(ctx, 0), true, nil
}

func (d *FakeDriver) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CookieErr != nil {
		return nil, d.CookieErr
	}
	return append([]browser.Cookie(nil), d.CookieJar...), nil
}

func (d *FakeDriver) Eval(ctx context.Context, js string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.EvalErr != nil {
		return "", d.EvalErr
	}
	return d.EvalResults[js], nil
}

func (d *FakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ScreenshotPNG == nil {
		return nil, errors.New("screenshot unavailable")
	}
	return d.ScreenshotPNG, nil
}

func (d *FakeDriver) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Markup, nil
}

func (d *FakeDriver) URL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.CurrentURL, nil
}

func (d *FakeDriver) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.PageTitle, nil
}

func (d *FakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

// Covered returns an interaction error as Rod reports a click intercepted by another element.
func Covered() error {
	return fault.InteractionError("interactable", fault.ReasonIntercepted, errors.New("element covered by <div class=\"overlay\">"))
}

// NotInteractable returns an interaction error for an element without a clickable shape.
func NotInteractable() error {
	return fault.InteractionError("interactable", fault.ReasonNotInteractable, errors.New("element cannot be interacted with"))
}

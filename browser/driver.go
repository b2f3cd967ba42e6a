// Package browser provides browser automation setup and element location.
// Flows talk to the page through the Driver and Element contracts; Launch
// returns the Rod-backed implementation.
package browser

import (
	"context"
	"time"

	"github.com/nikshitha/greythr-attendance/config"
)

// Locator identifies an element by strategy and value.
type Locator = config.Locator

// Cookie is a single browser cookie.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Driver is a controllable browser page. Close releases the whole browser.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// ReadyState returns document.readyState of the current page.
	ReadyState(ctx context.Context) (string, error)
	// Query performs a single non-blocking lookup.
	Query(ctx context.Context, loc Locator) (Element, bool, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	// Eval runs a JS function expression and returns its result as a string.
	// A null or undefined result yields "".
	Eval(ctx context.Context, js string) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Close() error
}

// Element is a located DOM element. An element is bound to the context it
// was looked up with; WithContext rebinds it before it outlives that context.
type Element interface {
	// WithContext returns the element bound to ctx, with every later
	// operation bounded by timeout when it is positive.
	WithContext(ctx context.Context, timeout time.Duration) Element
	Visible() (bool, error)
	// Interactable returns nil when the element can receive a click at its center.
	Interactable() error
	Input(text string) error
	Click() error
	Text() (string, error)
	Attribute(name string) (string, bool, error)
}

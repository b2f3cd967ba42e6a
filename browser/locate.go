package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikshitha/greythr-attendance/fault"
	"github.com/nikshitha/greythr-attendance/logger"
)

// Condition is the state an element must reach before it is returned.
type Condition int

const (
	// Present requires the element to exist in the DOM.
	Present Condition = iota
	// Visible requires the element to be rendered.
	Visible
	// Clickable requires the element to be visible and receive clicks at its center.
	Clickable
)

func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	default:
		return fmt.Sprintf("condition(%d)", int(c))
	}
}

// Finder locates elements on a Driver with a bounded wait.
type Finder struct {
	driver   Driver
	timeout  time.Duration
	interval time.Duration
	logger   *logger.Logger
}

// NewFinder creates a finder with the given default wait and polling interval.
func NewFinder(d Driver, timeout, interval time.Duration, log *logger.Logger) *Finder {
	return &Finder{
		driver:   d,
		timeout:  timeout,
		interval: interval,
		logger:   log.WithModule("locate"),
	}
}

// WithTimeout returns a copy of f using a different wait.
func (f *Finder) WithTimeout(timeout time.Duration) *Finder {
	cp := *f
	cp.timeout = timeout
	return &cp
}

// Locate waits until the element identified by loc satisfies cond. The
// returned element is bound to ctx and its operations are bounded by the
// finder's timeout.
// A timeout yields a fault.NotFound error, unless the element was present
// but refused interaction, in which case the fault.Interaction error from
// the element is returned so callers can tell the two apart.
func (f *Finder) Locate(ctx context.Context, name string, loc Locator, cond Condition) (Element, error) {
	op := "locate " + name
	var (
		found     Element
		seen      bool
		lastCheck error
	)

	err := Poll(ctx, f.timeout, f.interval, func(ctx context.Context) (bool, error) {
		el, ok, err := f.driver.Query(ctx, loc)
		if err != nil || !ok {
			return false, err
		}
		seen = true

		ok, err = satisfies(el, cond)
		lastCheck = err
		if ok {
			found = el
		}
		return ok, err
	})
	if err == nil {
		f.logger.WithField("locator", loc.String()).Debugf("Element %s is %s", name, cond)
		// found is bound to the poll context, which is gone once Poll returns.
		return found.WithContext(ctx, f.timeout), nil
	}

	if ctx.Err() != nil {
		return nil, fault.Wrap(ctx.Err(), fault.NotFound, op, "wait canceled")
	}

	var fe *fault.Error
	if seen && errors.As(lastCheck, &fe) && fe.Kind == fault.Interaction {
		return nil, &fault.Error{
			Kind:    fault.Interaction,
			Op:      op,
			Message: fmt.Sprintf("%s never became %s within %s", loc, cond, f.timeout),
			Reason:  fe.Reason,
			Cause:   lastCheck,
		}
	}
	if seen {
		return nil, fault.Wrapf(err, fault.NotFound, op, "%s present but never %s within %s", loc, cond, f.timeout)
	}
	return nil, fault.Wrapf(err, fault.NotFound, op, "element not found: %s within %s", loc, f.timeout)
}

// Find is Locate for callers that only need presence or absence. Failures are
// logged and reported as a nil element.
func (f *Finder) Find(ctx context.Context, name string, loc Locator, cond Condition) Element {
	el, err := f.Locate(ctx, name, loc, cond)
	if err != nil {
		f.logger.WithError(err).Errorf("Element not found: %s", loc)
		return nil
	}
	return el
}

func satisfies(el Element, cond Condition) (bool, error) {
	if cond == Present {
		return true, nil
	}

	visible, err := el.Visible()
	if err != nil {
		return false, err
	}
	if !visible {
		return false, nil
	}
	if cond == Visible {
		return true, nil
	}

	if err := el.Interactable(); err != nil {
		return false, err
	}
	return true, nil
}

// Package session reads the authenticated browser state needed to replay
// the login against the attendance API.
package session

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/fault"
	"github.com/nikshitha/greythr-attendance/logger"
)

// Session is the post-login state of one run.
type Session struct {
	Cookies map[string]string
	// CSRFToken is empty when the page carried no token.
	CSRFToken string
}

// Names returns the cookie names in sorted order.
func (s *Session) Names() []string {
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// csrfScript returns a page script that yields the content attribute of the
// first element matching selector, or null.
func csrfScript(selector string) string {
	return fmt.Sprintf(`() => {
		const el = document.querySelector(%s);
		return el ? el.getAttribute("content") : null;
	}`, strconv.Quote(selector))
}

// Extract reads every cookie visible to the page and, best effort, the CSRF
// token from the meta tag matched by csrfMeta. A failure to read the token
// is logged as a warning and leaves CSRFToken empty.
func Extract(ctx context.Context, d browser.Driver, csrfMeta string, log *logger.Logger) (*Session, error) {
	log = log.WithModule("session")

	cookies, err := d.Cookies(ctx)
	if err != nil {
		return nil, fault.Wrap(err, fault.Session, "extract cookies", "failed to read browser cookies")
	}

	s := &Session{Cookies: make(map[string]string, len(cookies))}
	for _, c := range cookies {
		s.Cookies[c.Name] = c.Value
	}
	if len(s.Cookies) == 0 {
		return nil, fault.New(fault.Session, "extract cookies", "no cookies after login")
	}
	log.WithField("cookies", strings.Join(s.Names(), ",")).Info("Session cookies extracted")

	if csrfMeta == "" {
		log.Warn("No CSRF selector configured, continuing without token")
		return s, nil
	}

	token, err := d.Eval(ctx, csrfScript(csrfMeta))
	switch {
	case err != nil:
		log.WithError(err).Warn("Failed to read CSRF token, continuing without it")
	case strings.TrimSpace(token) == "":
		log.WithField("selector", csrfMeta).Warn("CSRF token not found on page, continuing without it")
	default:
		s.CSRFToken = strings.TrimSpace(token)
		log.Info("CSRF token extracted")
	}
	return s, nil
}

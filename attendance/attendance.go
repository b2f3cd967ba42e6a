// Package attendance marks sign-in and sign-out on the greytHR attendance API
// by replaying the browser session's cookies.
package attendance

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/nikshitha/greythr-attendance/fault"
	"github.com/nikshitha/greythr-attendance/logger"
)

// Action is the attendance operation to perform.
type Action string

const (
	Signin  Action = "Signin"
	Signout Action = "Signout"
)

// Actions lists every accepted action value.
var Actions = []Action{Signin, Signout}

// ParseAction accepts exactly "Signin" or "Signout".
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fault.Newf(fault.Config, "parse action", "invalid action %q (must be Signin or Signout)", s)
}

func (a Action) String() string {
	return string(a)
}

// CSRFHeader carries the token read from the page.
const CSRFHeader = "X-CSRF-Token"

// maxBodyBytes caps how much of a response body is read and logged.
const maxBodyBytes = 8 << 10

// Result is the classified outcome of one attendance request.
type Result struct {
	Status    int
	Body      string
	// Truncated is set when the body was longer than maxBodyBytes.
	Truncated bool
	OK        bool
}

// Client posts attendance actions to the portal API.
type Client struct {
	baseURL string
	path    string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient creates a client for the endpoint at baseURL+path.
func NewClient(baseURL, path string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		http:    &http.Client{Timeout: timeout},
		logger:  log.WithModule("attendance"),
	}
}

// Endpoint returns the request URL for action.
func (c *Client) Endpoint(action Action) string {
	q := url.Values{"action": {string(action)}}
	return c.baseURL + c.path + "?" + q.Encode()
}

// Mark issues exactly one POST for action. Any status other than 200 is
// reported in the Result, not as an error; errors are transport failures.
func (c *Client) Mark(ctx context.Context, cookies map[string]string, action Action, csrfToken string) (*Result, error) {
	endpoint := c.Endpoint(action)
	log := c.logger.WithAction(action.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fault.Wrap(err, fault.Remote, "mark attendance", "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if csrfToken != "" {
		req.Header.Set(CSRFHeader, csrfToken)
	}

	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: cookies[name]})
	}

	log.WithFields(map[string]interface{}{
		"url":  endpoint,
		"csrf": csrfToken != "",
	}).Info("Marking attendance")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fault.Wrap(err, fault.Remote, "mark attendance", "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fault.Wrapf(err, fault.Remote, "mark attendance", "failed to read response (status %d)", resp.StatusCode)
	}

	truncated := len(body) > maxBodyBytes
	if truncated {
		body = body[:maxBodyBytes]
	}

	res := &Result{
		Status:    resp.StatusCode,
		Body:      string(body),
		Truncated: truncated,
		OK:        resp.StatusCode == http.StatusOK,
	}
	log.Attendance(action.String(), res.Status)
	if !res.OK {
		entry := log.WithField("body", res.Body)
		if res.Truncated {
			entry = entry.WithField("truncated", true)
		}
		entry.Errorf("Failed to mark attendance. Status code: %d", res.Status)
	}
	return res, nil
}

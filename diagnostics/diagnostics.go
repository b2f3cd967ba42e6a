// Package diagnostics writes post-mortem artifacts when a login step fails.
package diagnostics

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/logger"
)

// captureTimeout bounds artifact collection, which runs detached from the
// run context so a canceled run still leaves its artifacts behind.
const captureTimeout = 15 * time.Second

// Report is what Capture managed to collect.
type Report struct {
	ScreenshotPath string
	HTMLPath       string
	URL            string
	Title          string
	// ErrorSelector is the first error-message locator that matched, if any.
	ErrorSelector *browser.Locator
	ErrorText     string
}

// Collector captures a screenshot, the page markup and the first visible error message.
type Collector struct {
	cfg    config.DiagnosticsConfig
	errors []browser.Locator
	logger *logger.Logger
}

// NewCollector creates a collector for the given artifact paths and error-message locators.
func NewCollector(cfg config.DiagnosticsConfig, errorSelectors []browser.Locator, log *logger.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		errors: errorSelectors,
		logger: log.WithModule("diagnostics"),
	}
}

// Capture never fails: each artifact is best effort and problems are logged as warnings.
func (c *Collector) Capture(ctx context.Context, d browser.Driver) Report {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	var r Report

	r.URL, _ = d.URL(ctx)
	r.Title, _ = d.Title(ctx)
	c.logger.WithFields(map[string]interface{}{
		"url":   r.URL,
		"title": r.Title,
	}).Error("Capturing failure diagnostics")

	if c.cfg.ScreenshotPath != "" {
		if png, err := d.Screenshot(ctx); err != nil {
			c.logger.WithError(err).Warn("Failed to take screenshot")
		} else if err := writeFile(c.cfg.ScreenshotPath, png); err != nil {
			c.logger.WithError(err).Warn("Failed to save screenshot")
		} else {
			r.ScreenshotPath = c.cfg.ScreenshotPath
			c.logger.Artifact("screenshot", r.ScreenshotPath)
		}
	}

	if c.cfg.HTMLPath != "" {
		if html, err := d.HTML(ctx); err != nil {
			c.logger.WithError(err).Warn("Failed to read page source")
		} else if err := writeFile(c.cfg.HTMLPath, []byte(html)); err != nil {
			c.logger.WithError(err).Warn("Failed to save page source")
		} else {
			r.HTMLPath = c.cfg.HTMLPath
			c.logger.Artifact("html", r.HTMLPath)
		}
	}

	c.scanErrorMessages(ctx, d, &r)
	return r
}

// scanErrorMessages tries each locator once, in order, and logs the first match.
func (c *Collector) scanErrorMessages(ctx context.Context, d browser.Driver, r *Report) {
	for i := range c.errors {
		loc := c.errors[i]
		el, ok, err := d.Query(ctx, loc)
		if err != nil || !ok {
			continue
		}
		text, err := el.Text()
		if err != nil {
			continue
		}
		r.ErrorSelector = &loc
		r.ErrorText = text
		c.logger.WithFields(map[string]interface{}{
			"selector":      loc.String(),
			"error_message": text,
		}).Error("Login error message found on page")
		return
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

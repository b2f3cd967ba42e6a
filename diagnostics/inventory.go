package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/config"
)

// Control is an input or button found on the page.
type Control struct {
	Tag          string `json:"tag"`
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	Class        string `json:"class,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	Autocomplete string `json:"autocomplete,omitempty"`
	Text         string `json:"text,omitempty"`
}

const inventoryScript = `() => JSON.stringify(
	Array.from(document.querySelectorAll("input, button, gt-button")).map(el => ({
		tag: el.tagName.toLowerCase(),
		id: el.id || "",
		name: el.getAttribute("name") || "",
		type: el.getAttribute("type") || "",
		class: el.getAttribute("class") || "",
		placeholder: el.getAttribute("placeholder") || "",
		autocomplete: el.getAttribute("autocomplete") || "",
		text: (el.innerText || "").trim().slice(0, 80),
	}))
)`

// Inventory lists the form controls on the current page.
func Inventory(ctx context.Context, d browser.Driver) ([]Control, error) {
	raw, err := d.Eval(ctx, inventoryScript)
	if err != nil {
		return nil, fmt.Errorf("failed to list page controls: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var controls []Control
	if err := json.Unmarshal([]byte(raw), &controls); err != nil {
		return nil, fmt.Errorf("failed to decode page controls: %w", err)
	}
	return controls, nil
}

// SelectorCheck is the result of resolving one configured locator once.
type SelectorCheck struct {
	Name    string
	Locator browser.Locator
	Found   bool
	Visible bool
	Err     error
}

// CheckSelectors resolves every configured login-page locator once, without waiting.
func CheckSelectors(ctx context.Context, d browser.Driver, sel config.SelectorConfig) []SelectorCheck {
	named := []struct {
		name string
		loc  browser.Locator
	}{
		{"username", sel.Username},
		{"password", sel.Password},
		{"submit", sel.Submit},
		{"dashboard", sel.Dashboard},
		{"sign_out", sel.SignOut},
	}

	checks := make([]SelectorCheck, 0, len(named))
	for _, n := range named {
		c := SelectorCheck{Name: n.name, Locator: n.loc}
		el, ok, err := d.Query(ctx, n.loc)
		c.Found, c.Err = ok, err
		if ok {
			c.Visible, c.Err = el.Visible()
		}
		checks = append(checks, c)
	}
	return checks
}

// PrintInventory writes controls and checks in a human-readable layout.
func PrintInventory(w io.Writer, controls []Control, checks []SelectorCheck) {
	fmt.Fprintf(w, "Found %d form controls:\n\n", len(controls))
	for i, c := range controls {
		fmt.Fprintf(w, "%s %d:\n", c.Tag, i+1)
		for _, kv := range [][2]string{
			{"id", c.ID},
			{"name", c.Name},
			{"type", c.Type},
			{"class", c.Class},
			{"placeholder", c.Placeholder},
			{"autocomplete", c.Autocomplete},
			{"text", c.Text},
		} {
			if kv[1] != "" {
				fmt.Fprintf(w, "  %s: %s\n", kv[0], kv[1])
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Configured selectors:")
	for _, c := range checks {
		switch {
		case c.Err != nil:
			fmt.Fprintf(w, "  %-10s %s  ERROR: %v\n", c.Name, c.Locator, c.Err)
		case !c.Found:
			fmt.Fprintf(w, "  %-10s %s  not found\n", c.Name, c.Locator)
		default:
			fmt.Fprintf(w, "  %-10s %s  found (visible: %t)\n", c.Name, c.Locator, c.Visible)
		}
	}
}

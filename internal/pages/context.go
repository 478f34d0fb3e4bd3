// Package pages holds the page objects for the demo site. Page objects do not
// inherit from a base type; each one is composed with a *Context that carries
// the borrowed playwright page, the base URL and the shared navigation, wait
// and locate helpers.
//
// Locators are exposed as methods that build a fresh playwright.Locator on
// every call, so they stay valid across DOM mutations.
package pages

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/errs"
	"github.com/kuitang/internet-e2e/internal/urlutil"
)

const (
	// DefaultBaseURL is used when a Context is created without a base URL.
	DefaultBaseURL = "http://localhost:3000"
	// DefaultElementTimeout bounds WaitForElement when no timeout is given.
	DefaultElementTimeout = 5 * time.Second

	defaultScreenshotDir = "screenshots"
)

// Context is the page-context capability shared by all page objects.
// It borrows the page and never closes it.
type Context struct {
	page          playwright.Page
	baseURL       string
	screenshotDir string
}

// NewContext binds a page handle and base URL.
func NewContext(page playwright.Page, baseURL string) *Context {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Context{
		page:          page,
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		screenshotDir: defaultScreenshotDir,
	}
}

// WithScreenshotDir returns a copy of the context writing screenshots under dir.
func (c *Context) WithScreenshotDir(dir string) *Context {
	out := *c
	out.screenshotDir = dir
	return &out
}

// Page returns the underlying playwright page.
func (c *Context) Page() playwright.Page {
	return c.page
}

// BaseURL returns the base URL relative paths are resolved against.
func (c *Context) BaseURL() string {
	return c.baseURL
}

// URL resolves path against the base URL; absolute URLs are returned unchanged.
func (c *Context) URL(path string) string {
	return urlutil.BuildAbsolute(c.baseURL, path)
}

// Goto navigates to path. There is no retry.
func (c *Context) Goto(path string) error {
	target := c.URL(path)
	if _, err := c.page.Goto(target); err != nil {
		return errs.Wrap(errs.Navigation, "navigate to "+target, err)
	}
	return nil
}

// GoBack navigates one step back in history.
func (c *Context) GoBack() error {
	if _, err := c.page.GoBack(); err != nil {
		return errs.Wrap(errs.Navigation, "navigate back from "+c.page.URL(), err)
	}
	return nil
}

// WaitForPageLoad waits until the network is idle, with the engine default timeout.
func (c *Context) WaitForPageLoad() error {
	err := c.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
	if err != nil {
		return errs.Wrap(errs.Navigation, "wait for network idle on "+c.page.URL(), err)
	}
	return nil
}

// WaitForElement waits until locator is visible. A zero timeout means
// DefaultElementTimeout.
func (c *Context) WaitForElement(locator playwright.Locator, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultElementTimeout
	}
	err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeoutMillis(timeout)),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return errs.Wrap(errs.ElementTimeout, fmt.Sprintf("element not visible within %s", timeout), err)
	}
	return fmt.Errorf("wait for element: %w", err)
}

// timeoutMillis converts d to playwright milliseconds, rounding up so a
// positive duration never becomes 0, which playwright reads as no timeout.
func timeoutMillis(d time.Duration) float64 {
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return float64(ms)
}

// TextOf waits for locator to be visible and returns its trimmed text content.
func (c *Context) TextOf(locator playwright.Locator) (string, error) {
	if err := c.WaitForElement(locator, 0); err != nil {
		return "", err
	}
	text, err := locator.TextContent()
	if err != nil {
		return "", fmt.Errorf("read text content: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// IsVisible reports whether locator currently matches a visible element.
func (c *Context) IsVisible(locator playwright.Locator) (bool, error) {
	visible, err := locator.IsVisible()
	if err != nil {
		return false, fmt.Errorf("check visibility: %w", err)
	}
	return visible, nil
}

// GetByText locates elements by their text.
func (c *Context) GetByText(text string) playwright.Locator {
	return c.page.GetByText(text)
}

// GetByRole locates elements by ARIA role and, when name is not empty, accessible name.
func (c *Context) GetByRole(role playwright.AriaRole, name string) playwright.Locator {
	if name == "" {
		return c.page.GetByRole(role)
	}
	return c.page.GetByRole(role, playwright.PageGetByRoleOptions{Name: name})
}

// GetByTestId locates elements by their data-testid attribute.
func (c *Context) GetByTestId(testID string) playwright.Locator {
	return c.page.GetByTestId(testID)
}

// Locator locates elements by CSS or playwright selector.
func (c *Context) Locator(selector string) playwright.Locator {
	return c.page.Locator(selector)
}

// Screenshot writes <screenshot dir>/<name>.png and returns its path and bytes.
func (c *Context) Screenshot(name string) (string, []byte, error) {
	path := filepath.Join(c.screenshotDir, name+".png")
	data, err := c.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	if err != nil {
		return "", nil, fmt.Errorf("screenshot %s: %w", name, err)
	}
	return path, data, nil
}

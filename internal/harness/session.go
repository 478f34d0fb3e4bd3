package harness

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/config"
	"github.com/kuitang/internet-e2e/internal/obs"
	"github.com/kuitang/internet-e2e/internal/pages"
)

// Session is what a scenario receives for one attempt: a fresh page in a
// fresh browser context, plus page objects bound to it.
type Session struct {
	Page    playwright.Page
	Pages   *pages.Context
	Config  *config.Config
	Browser string
	Attempt int

	ctx    context.Context
	expect playwright.PlaywrightAssertions
}

func newSession(ctx context.Context, page playwright.Page, cfg *config.Config, browser string, attempt int) *Session {
	pctx := pages.NewContext(page, cfg.BaseURL).
		WithScreenshotDir(filepath.Join(cfg.Artifacts.Dir, "screenshots"))
	return &Session{
		Page:    page,
		Pages:   pctx,
		Config:  cfg,
		Browser: browser,
		Attempt: attempt,
		ctx:     ctx,
		expect:  playwright.NewPlaywrightAssertions(float64(pages.DefaultElementTimeout.Milliseconds())),
	}
}

// Context carries the attempt correlation (run, test, browser, attempt).
func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Logger() *slog.Logger {
	return obs.From(s.ctx)
}

// Expect returns web-first assertions that retry until the element timeout.
func (s *Session) Expect() playwright.PlaywrightAssertions {
	return s.expect
}

// Step runs fn as a named step. Steps run in call order; the first failure
// ends the attempt.
func (s *Session) Step(name string, fn func() error) error {
	s.Logger().Debug("scenario_step", "step", name)
	if err := fn(); err != nil {
		return fmt.Errorf("step %q: %w", name, err)
	}
	return nil
}

func (s *Session) LoginPage() *pages.LoginPage {
	return pages.NewLoginPage(s.Pages, s.Config.Env())
}

func (s *Session) DashboardPage() *pages.DashboardPage {
	return pages.NewDashboardPage(s.Pages)
}

func (s *Session) AddRemoveElementsPage() *pages.AddRemoveElementsPage {
	return pages.NewAddRemoveElementsPage(s.Pages)
}

func (s *Session) CheckboxesPage() *pages.CheckboxesPage {
	return pages.NewCheckboxesPage(s.Pages)
}

func (s *Session) DropdownPage() *pages.DropdownPage {
	return pages.NewDropdownPage(s.Pages)
}

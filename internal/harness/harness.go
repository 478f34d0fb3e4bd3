// Package harness applies the runner configuration to playwright: it launches
// the configured engines, runs each scenario once per engine on a fresh
// browser context, retries failed attempts and stores screenshots and traces.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/artifacts"
	"github.com/kuitang/internet-e2e/internal/config"
	"github.com/kuitang/internet-e2e/internal/errs"
	"github.com/kuitang/internet-e2e/internal/logutil"
	"github.com/kuitang/internet-e2e/internal/obs"
)

// ErrUnavailable means playwright or a browser engine could not be started.
// Test suites skip on it.
var ErrUnavailable = errors.New("harness: playwright unavailable")

// Playwright errors carry the full call log.
const maxLoggedErrorChars = 500

// Scenario is one test body. It returns the first failing step's error so
// the harness can retry the whole attempt.
type Scenario func(s *Session) error

// Runner owns the playwright driver and the launched browsers. Browsers are
// shared by concurrent scenarios; contexts and pages never are.
type Runner struct {
	cfg      *config.Config
	pw       *playwright.Playwright
	browsers map[string]playwright.Browser
	sink     artifacts.Sink
	runID    string

	// unavailable holds the launch error of each engine that did not start.
	unavailable map[string]error

	closeOnce sync.Once
	closeErr  error
}

// Launch starts playwright and every engine in cfg.Browsers. Engines that
// fail to start are logged and their subtests skip; ErrUnavailable is
// returned only when none starts.
func Launch(ctx context.Context, cfg *config.Config) (*Runner, error) {
	log := obs.Pkg("harness")

	sink, err := artifacts.NewSink(ctx, cfg.Artifacts)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidConfiguration, "configure artifact sink", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	r := &Runner{
		cfg:   cfg,
		pw:    pw,
		sink:  sink,
		runID: uuid.NewString(),
	}
	launched, failed, err := launchEngines(cfg.Browsers, func(name string) (playwright.Browser, error) {
		bt, err := browserType(pw, name)
		if err != nil {
			return nil, err
		}
		return bt.Launch(LaunchOptions(cfg))
	})
	r.browsers = launched
	r.unavailable = failed
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	if len(launched) == 0 {
		_ = r.Close()
		return nil, fmt.Errorf("%w: no browser engine could be launched: %v", ErrUnavailable, joinFailures(cfg.Browsers, failed))
	}
	for _, name := range cfg.Browsers {
		if launchErr, ok := failed[name]; ok {
			log.Warn("browser_unavailable",
				"browser", name,
				"error", logutil.TruncateForLog(launchErr.Error(), maxLoggedErrorChars),
			)
		}
	}

	log.Info("runner_launched",
		"run_id", r.runID,
		"browsers", r.Browsers(),
		"headless", cfg.Headless,
		"max_attempts", cfg.MaxAttempts(),
		"parallel", cfg.Parallel(),
		"trace", string(cfg.Trace),
	)
	return r, nil
}

// launchEngines starts each named engine. Engines that fail to start are
// collected in failed so their tests can skip; an unknown engine name aborts.
func launchEngines(names []string, launch func(name string) (playwright.Browser, error)) (launched map[string]playwright.Browser, failed map[string]error, err error) {
	launched = make(map[string]playwright.Browser, len(names))
	failed = make(map[string]error)
	for _, name := range names {
		browser, launchErr := launch(name)
		if errs.Is(launchErr, errs.InvalidConfiguration) {
			return launched, failed, launchErr
		}
		if launchErr != nil {
			failed[name] = launchErr
			continue
		}
		launched[name] = browser
	}
	return launched, failed, nil
}

func joinFailures(names []string, failed map[string]error) error {
	var errList []error
	for _, name := range names {
		if err, ok := failed[name]; ok {
			errList = append(errList, fmt.Errorf("launch %s: %w", name, err))
		}
	}
	return errors.Join(errList...)
}

func browserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case config.Chromium:
		return pw.Chromium, nil
	case config.Firefox:
		return pw.Firefox, nil
	case config.WebKit:
		return pw.WebKit, nil
	}
	return nil, errs.New(errs.InvalidConfiguration, fmt.Sprintf("unknown browser %q", name))
}

// Browsers lists the engines that launched, in configuration order.
func (r *Runner) Browsers() []string {
	names := make([]string, 0, len(r.browsers))
	for _, name := range r.cfg.Browsers {
		if _, ok := r.browsers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// RunID identifies this run in logs and artifact keys.
func (r *Runner) RunID() string {
	return r.runID
}

// Config is the configuration the runner was launched with.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Close shuts down every browser and the playwright driver. It is safe to
// call more than once.
func (r *Runner) Close() error {
	r.closeOnce.Do(func() {
		var errList []error
		for name, b := range r.browsers {
			if err := b.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close %s: %w", name, err))
			}
		}
		if r.pw != nil {
			if err := r.pw.Stop(); err != nil {
				errList = append(errList, fmt.Errorf("stop playwright: %w", err))
			}
		}
		r.closeErr = errors.Join(errList...)
	})
	return r.closeErr
}

// Run registers name as a subtest with one child per configured engine.
// Children run in parallel unless the configuration is single-worker.
func (r *Runner) Run(t *testing.T, name string, scenario Scenario) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		for _, browserName := range r.cfg.Browsers {
			t.Run(browserName, func(t *testing.T) {
				if r.cfg.Parallel() {
					t.Parallel()
				}
				r.runAttempts(t, browserName, scenario)
			})
		}
	})
}

func (r *Runner) runAttempts(t *testing.T, browserName string, scenario Scenario) {
	t.Helper()

	browser, ok := r.browsers[browserName]
	if !ok {
		if launchErr, unavailable := r.unavailable[browserName]; unavailable {
			t.Skipf("browser %s is not available: %v", browserName, launchErr)
		}
		t.Fatalf("browser %s was not launched", browserName)
	}

	attempts, err := retry(r.cfg.MaxAttempts(), func(attempt int) error {
		ctx := obs.WithCorrelation(context.Background(), obs.Correlation{
			RunID:   r.runID,
			Test:    t.Name(),
			Browser: browserName,
			Attempt: attempt,
		})
		err := r.attempt(ctx, t.Name(), browser, browserName, attempt, scenario)
		if err != nil {
			obs.From(ctx).Warn("scenario_attempt_failed",
				"error", logutil.TruncateForLog(err.Error(), maxLoggedErrorChars),
				"code", string(errs.CodeOf(err)),
			)
			return err
		}
		if attempt > 1 {
			obs.From(ctx).Info("scenario_passed_on_retry")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed after %d attempt(s): %v", attempts, err)
	}
}

func (r *Runner) attempt(ctx context.Context, testName string, browser playwright.Browser, browserName string, attempt int, scenario Scenario) error {
	bctx, err := browser.NewContext(NewContextOptions(r.cfg))
	if err != nil {
		return errs.Wrap(errs.Internal, "create browser context", err)
	}
	defer bctx.Close()

	timeout := float64(r.cfg.Timeout.Milliseconds())
	bctx.SetDefaultTimeout(timeout)
	bctx.SetDefaultNavigationTimeout(timeout)

	tracing := shouldTrace(r.cfg.Trace, attempt)
	if tracing {
		if err := bctx.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
		}); err != nil {
			obs.From(ctx).Warn("trace_start_failed", "error", err)
			tracing = false
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		return errs.Wrap(errs.Internal, "create page", err)
	}

	runErr := scenario(newSession(ctx, page, r.cfg, browserName, attempt))
	if runErr != nil {
		r.saveScreenshot(ctx, page, artifacts.Key(r.runID, testName, browserName, attempt, "failure.png"))
	}
	if tracing {
		r.finishTrace(ctx, bctx,
			artifacts.Key(r.runID, testName, browserName, attempt, "trace.zip"),
			keepTrace(r.cfg.Trace, attempt, runErr != nil))
	}
	return runErr
}

func (r *Runner) saveScreenshot(ctx context.Context, page playwright.Page, key string) {
	data, err := page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)})
	if err != nil {
		obs.From(ctx).Warn("screenshot_failed", "error", err)
		return
	}
	r.store(ctx, key, data, artifacts.ContentTypePNG)
}

func (r *Runner) finishTrace(ctx context.Context, bctx playwright.BrowserContext, key string, keep bool) {
	log := obs.From(ctx)
	if !keep {
		if err := bctx.Tracing().Stop(); err != nil {
			log.Warn("trace_stop_failed", "error", err)
		}
		return
	}

	tmp, err := os.CreateTemp("", "trace-*.zip")
	if err != nil {
		log.Warn("trace_stop_failed", "error", err)
		_ = bctx.Tracing().Stop()
		return
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := bctx.Tracing().Stop(path); err != nil {
		log.Warn("trace_stop_failed", "error", err)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("trace_read_failed", "error", err)
		return
	}
	r.store(ctx, key, data, artifacts.ContentTypeZip)
}

func (r *Runner) store(ctx context.Context, key string, data []byte, contentType string) {
	loc, err := r.sink.Put(ctx, key, data, contentType)
	if err != nil {
		obs.From(ctx).Warn("artifact_store_failed", "key", key, "error", err)
		return
	}
	obs.From(ctx).Info("artifact_stored", "key", key, "location", loc, "bytes", len(data))
}

package harness

import (
	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/config"
)

// LaunchOptions maps the browser settings onto playwright launch options.
func LaunchOptions(cfg *config.Config) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(float64(cfg.SlowMo.Milliseconds())),
	}
}

// NewContextOptions returns the options every fresh browser context is created with.
func NewContextOptions(cfg *config.Config) playwright.BrowserNewContextOptions {
	return playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(cfg.BaseURL),
		Viewport: &playwright.Size{
			Width:  cfg.Viewport.Width,
			Height: cfg.Viewport.Height,
		},
		IgnoreHttpsErrors: playwright.Bool(true),
	}
}

// shouldTrace reports whether attempt (1-based) records a trace.
func shouldTrace(mode config.TraceMode, attempt int) bool {
	switch mode {
	case config.TraceOn, config.TraceRetainOnFailure:
		return true
	case config.TraceOnFirstRetry:
		return attempt == 2
	}
	return false
}

// keepTrace reports whether a recorded trace is stored once the attempt ends.
func keepTrace(mode config.TraceMode, attempt int, failed bool) bool {
	if !shouldTrace(mode, attempt) {
		return false
	}
	if mode == config.TraceRetainOnFailure {
		return failed
	}
	return true
}

// retry calls fn with attempt numbers 1..maxAttempts until it succeeds. It returns
// the number of attempts made and the last error.
func retry(maxAttempts int, fn func(attempt int) error) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return attempt, nil
		}
	}
	return maxAttempts, err
}

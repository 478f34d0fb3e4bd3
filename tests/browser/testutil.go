// Package browser holds the end-to-end browser scenarios. Every test gets
// the shared Suite via SetupSuite(t): the resolved configuration, the
// launched engines and, unless BASE_URL is set, an in-process demo site.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kuitang/internet-e2e/internal/config"
	"github.com/kuitang/internet-e2e/internal/demosite"
	"github.com/kuitang/internet-e2e/internal/harness"
	"github.com/kuitang/internet-e2e/internal/obs"
)

var (
	suiteMu     sync.Mutex
	sharedSuite *Suite
)

// Suite is the state shared by all browser tests in one `go test` run.
type Suite struct {
	Config *config.Config
	Runner *harness.Runner
	// Site is the in-process demo site; nil when BASE_URL targets another host.
	Site *httptest.Server

	skipReason string
	err        error
}

// SetupSuite returns the shared suite, creating it on first use. The test is
// skipped under -short or when playwright or a browser engine is missing.
func SetupSuite(t *testing.T) *Suite {
	t.Helper()

	if testing.Short() {
		t.Skip("browser scenarios skipped in -short mode")
	}

	suiteMu.Lock()
	defer suiteMu.Unlock()

	if sharedSuite == nil {
		sharedSuite = createSuite()
	}
	if sharedSuite.skipReason != "" {
		t.Skip(sharedSuite.skipReason)
	}
	if sharedSuite.err != nil {
		t.Fatalf("browser suite setup failed: %v", sharedSuite.err)
	}
	return sharedSuite
}

func createSuite() *Suite {
	s := &Suite{}

	env, err := config.LoadFromEnvironment(repositoryRoot())
	if err != nil {
		s.err = err
		return s
	}

	if _, ok := env.Lookup("BASE_URL"); !ok {
		site, err := startDemoSite(env)
		if err != nil {
			s.err = err
			return s
		}
		s.Site = site
		env = env.With("BASE_URL", site.URL)
	}

	cfg, err := config.FromEnv(env)
	if err != nil {
		s.err = err
		return s
	}
	obs.SetLevel(cfg.LogLevel)
	cfg.LogSummary()
	s.Config = cfg

	runner, err := harness.Launch(context.Background(), cfg)
	if errors.Is(err, harness.ErrUnavailable) {
		s.skipReason = fmt.Sprintf("playwright not available: %v", err)
		return s
	}
	if err != nil {
		s.err = err
		return s
	}
	s.Runner = runner
	return s
}

// startDemoSite serves the fixture with the account the suite will log in with.
func startDemoSite(env *config.Env) (*httptest.Server, error) {
	site, err := demosite.New(demosite.Options{
		Username: env.Get("USERNAME", config.DefaultUsername),
		Password: env.Get("PASSWORD", config.DefaultPassword),
	})
	if err != nil {
		return nil, err
	}
	return httptest.NewServer(site.Handler()), nil
}

// Run runs scenario once per configured engine with the suite's retry policy.
func (s *Suite) Run(t *testing.T, name string, scenario harness.Scenario) {
	t.Helper()
	s.Runner.Run(t, name, scenario)
}

func cleanupSuite() {
	suiteMu.Lock()
	defer suiteMu.Unlock()

	if sharedSuite == nil {
		return
	}
	if sharedSuite.Runner != nil {
		_ = sharedSuite.Runner.Close()
	}
	if sharedSuite.Site != nil {
		sharedSuite.Site.Close()
	}
	sharedSuite = nil
}

func repositoryRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Failed to resolve repository root for test utilities")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// =============================================================================
// Scenario assertions
// =============================================================================

// expectEqual fails a scenario step when got differs from want.
func expectEqual(what string, want, got any) error {
	if !assert.ObjectsAreEqual(want, got) {
		return fmt.Errorf("%s: want %v, got %v", what, want, got)
	}
	return nil
}

// expectCount reads a count and compares it in one step.
func expectCount(what string, want int, count func() (int, error)) error {
	got, err := count()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return expectEqual(what, want, got)
}

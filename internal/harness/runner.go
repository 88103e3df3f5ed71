// Package harness drives a real browser through fixed verification
// scenarios against a running web app whose backend calls are mocked.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/dealer-verify/internal/artifacts"
	"github.com/kuitang/dealer-verify/internal/config"
	"github.com/kuitang/dealer-verify/internal/errs"
	"github.com/kuitang/dealer-verify/internal/fixture"
	"github.com/kuitang/dealer-verify/internal/obs"
	"github.com/kuitang/dealer-verify/internal/routemock"
	"github.com/kuitang/dealer-verify/internal/urlutil"
)

// Runner owns one playwright driver and one browser process. A Runner is
// used by a single goroutine; concurrent scenarios each get their own.
type Runner struct {
	cfg     *config.Config
	pw      *playwright.Playwright
	browser playwright.Browser

	closeOnce sync.Once
	closeErr  error
}

// Launch starts the playwright driver and the configured browser.
func Launch(ctx context.Context, cfg *config.Config) (*Runner, error) {
	log := obs.From(ctx).With("pkg", "harness")

	pw, err := playwright.Run()
	if err != nil {
		return nil, errs.Wrap(errs.BrowserUnavailable, "start playwright driver", err)
	}

	var browserType playwright.BrowserType
	switch cfg.Browser {
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	default:
		browserType = pw.Chromium
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errs.Wrap(errs.BrowserUnavailable, "launch "+cfg.Browser, err)
	}

	log.Info("browser launched", "browser", cfg.Browser, "headless", cfg.Headless, "version", browser.Version())
	return &Runner{cfg: cfg, pw: pw, browser: browser}, nil
}

// Close shuts the browser and stops the driver. It is safe to call more than once.
func (r *Runner) Close() error {
	r.closeOnce.Do(func() {
		var closeErrs []error
		if r.browser != nil {
			if err := r.browser.Close(); err != nil {
				closeErrs = append(closeErrs, fmt.Errorf("close browser: %w", err))
			}
		}
		if r.pw != nil {
			if err := r.pw.Stop(); err != nil {
				closeErrs = append(closeErrs, fmt.Errorf("stop playwright: %w", err))
			}
		}
		r.closeErr = errors.Join(closeErrs...)
	})
	return r.closeErr
}

// Connected reports whether the browser process is still attached.
func (r *Runner) Connected() bool {
	return r.browser != nil && r.browser.IsConnected()
}

// OpenContexts returns the number of live browser contexts. Every page a
// scenario opens lives in its own context, so this is zero between runs.
func (r *Runner) OpenContexts() int {
	if r.browser == nil {
		return 0
	}
	return len(r.browser.Contexts())
}

func (r *Runner) timeouts() Timeouts {
	return Timeouts{
		ActionMS: r.cfg.ActionTimeoutMS(),
		AssertMS: r.cfg.AssertTimeoutMS(),
	}
}

// Run executes the scenario in a fresh page:
// fixtures, mocks, navigation, steps, screenshot. The page is closed on every
// path. Cancelling ctx closes the page, which aborts any in-flight wait.
func (r *Runner) Run(ctx context.Context, sc Scenario) (*Result, error) {
	ctx = obs.WithCorrelation(ctx, obs.Correlation{Scenario: sc.Name, Browser: r.cfg.Browser})
	log := obs.From(ctx).With("pkg", "harness")

	if err := sc.Validate(); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid scenario", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.Canceled, "run canceled", err)
	}
	table, err := routemock.NewTable(sc.Mocks...)
	if err != nil {
		return nil, errs.Wrap(errs.MockRegistration, "build route mocks", err)
	}

	for _, f := range sc.Fixtures {
		if err := fixture.WriteCSV(f.Path, f.CSV); err != nil {
			return nil, errs.Wrap(errs.Artifact, "write fixture", err)
		}
		log.Debug("fixture written", "path", f.Path)
	}

	started := time.Now()
	page, err := r.browser.NewPage()
	if err != nil {
		return nil, errs.Wrap(errs.BrowserUnavailable, "open page", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Debug("page close failed", "error", cerr)
		}
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = page.Close()
	})
	defer stop()

	page.SetDefaultTimeout(r.cfg.ActionTimeoutMS())
	page.SetDefaultNavigationTimeout(r.cfg.ActionTimeoutMS())

	if err := table.Install(ctx, page); err != nil {
		return nil, r.fail(ctx, err)
	}

	target := urlutil.BuildAbsolute(r.cfg.BaseURL, sc.Route)
	log.Info("navigating", "url", target, "mocks", table.Len())
	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return nil, r.fail(ctx, errs.Wrap(errs.NavigationFailed, "navigate to "+target, err))
	}

	t := r.timeouts()
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.Canceled, "run canceled", err)
		}
		stepStart := time.Now()
		if err := step.Do(ctx, page, t); err != nil {
			return nil, r.fail(ctx, fmt.Errorf("step %d: %w", i+1, err))
		}
		log.Debug("step passed", "step", i+1, "action", step.Describe(), "elapsed", time.Since(stepStart).String())
	}

	if err := (artifacts.Store{Dir: filepath.Dir(sc.Screenshot)}).Ensure(); err != nil {
		return nil, err
	}
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(sc.Screenshot),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return nil, r.fail(ctx, errs.Wrap(errs.Artifact, "capture screenshot", err))
	}

	shadowed := make([]string, 0)
	for _, s := range table.Shadowed() {
		shadowed = append(shadowed, s.String())
	}
	res := &Result{
		Scenario:    sc.Name,
		URL:         target,
		Screenshot:  sc.Screenshot,
		Started:     started,
		Duration:    time.Since(started),
		MockHits:    table.HitCounts(),
		Passthrough: len(table.Passthrough()),
		Shadowed:    shadowed,
	}
	log.Info("scenario passed", "duration", res.Duration.String(), "screenshot", res.Screenshot, "mock_hits", res.MockHits)
	return res, nil
}

// fail turns a step error into the error Run returns. A failure caused by
// cancellation is reported as such rather than as the timeout it surfaced as.
func (r *Runner) fail(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errs.Wrap(errs.Canceled, "run canceled", errors.Join(ctxErr, err))
	}
	obs.From(ctx).Error("scenario failed",
		"pkg", "harness",
		"code", string(errs.CodeOf(err)),
		"timeout", errors.Is(err, playwright.ErrTimeout),
		"error", err,
	)
	return err
}

// Execute launches a browser, runs one scenario and always releases the
// browser before returning. On success the scenario's message is written to
// stdout.
func Execute(ctx context.Context, cfg *config.Config, sc Scenario, stdout io.Writer) (res *Result, err error) {
	if err := sc.Validate(); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid scenario", err)
	}

	runner, err := Launch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			obs.From(ctx).Warn("browser shutdown failed", "pkg", "harness", "error", cerr)
		}
	}()

	res, err = runner.Run(ctx, sc)
	if err != nil {
		return nil, err
	}
	if sc.SuccessMessage != "" {
		fmt.Fprintln(stdout, sc.SuccessMessage)
	}
	return res, nil
}

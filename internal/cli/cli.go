// Package cli holds the entry points shared by the verify commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kuitang/dealer-verify/internal/artifacts"
	"github.com/kuitang/dealer-verify/internal/config"
	"github.com/kuitang/dealer-verify/internal/errs"
	"github.com/kuitang/dealer-verify/internal/harness"
	"github.com/kuitang/dealer-verify/internal/metrics"
	"github.com/kuitang/dealer-verify/internal/obs"
	"github.com/kuitang/dealer-verify/internal/report"
	"github.com/kuitang/dealer-verify/internal/s3client"
	"github.com/kuitang/dealer-verify/internal/scenarios"
)

// RunScenario runs one fixed scenario the way a standalone command does:
// configuration from the environment, one browser, the success line on
// stdout. It returns the process exit code.
func RunScenario(ctx context.Context, stdout, stderr io.Writer, build func(*config.Config) harness.Scenario) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errs.ExitCode(errs.InvalidArgument)
	}

	runID := obs.NewRunID()
	ctx = obs.WithRunID(ctx, runID)
	sc := build(cfg)

	res, err := harness.Execute(ctx, cfg, sc, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", sc.Name, err)
		return errs.ExitCode(errs.CodeOf(err))
	}

	if cfg.PublishesArtifacts() {
		pub, err := newPublisher(ctx, cfg, runID)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return errs.ExitCode(errs.CodeOf(err))
		}
		if _, err := pub.Publish(ctx, sc.Name, res.Screenshot); err != nil {
			fmt.Fprintln(stderr, err)
			return errs.ExitCode(errs.CodeOf(err))
		}
		if err := pub.Verify(ctx); err != nil {
			fmt.Fprintln(stderr, err)
			return errs.ExitCode(errs.CodeOf(err))
		}
	}
	return 0
}

// NewSuiteCommand returns the verify root command. The process exit code is
// stored in *exitCode when the command runs.
func NewSuiteCommand(stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	var flags config.Flags
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run storefront verification scenarios against a dev server",
		Long: `Run storefront verification scenarios in a real browser with every
backend call mocked.

Target, browser and timeouts come from VERIFY_* environment variables.
The exit status is zero only when every selected scenario passed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*exitCode = runSuite(cmd.Context(), flags, stdout, stderr)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringSliceVarP(&flags.Scenarios, "scenario", "s", nil, "scenario to run (repeatable or comma separated; default all)")
	f.BoolVar(&flags.Parallel, "parallel", false, "run scenarios concurrently, one browser each")
	f.BoolVar(&flags.List, "list", false, "list available scenarios and exit")
	f.StringVar(&flags.Report, "report", "", "write an HTML run report to this path")
	f.StringVar(&flags.Metrics, "metrics", "", "write Prometheus textfile metrics to this .prom path")
	return cmd
}

// RunSuite runs the verify command with args and returns the exit code.
func RunSuite(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := 0
	cmd := NewSuiteCommand(stdout, stderr, &code)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return errs.ExitCode(errs.InvalidArgument)
	}
	return code
}

func runSuite(ctx context.Context, flags config.Flags, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errs.ExitCode(errs.InvalidArgument)
	}

	if flags.List {
		listScenarios(stdout, cfg)
		return 0
	}

	if flags.Metrics != "" {
		if err := metrics.CheckTextfilePath(flags.Metrics); err != nil {
			fmt.Fprintln(stderr, err)
			return errs.ExitCode(errs.InvalidArgument)
		}
	}

	selected, err := scenarios.Select(cfg, flags.Scenarios)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errs.ExitCode(errs.InvalidArgument)
	}

	runID := obs.NewRunID()
	ctx = obs.WithRunID(ctx, runID)
	log := obs.From(ctx).With("pkg", "cli")
	log.Info("suite starting", "scenarios", len(selected), "parallel", flags.Parallel, "config", cfg.Summary())

	var outcomes []report.Outcome
	if flags.Parallel {
		outcomes = runParallel(ctx, cfg, selected, stdout)
	} else {
		outcomes = runSequential(ctx, cfg, selected, stdout)
	}

	if cfg.PublishesArtifacts() {
		if err := publishOutcomes(ctx, cfg, runID, outcomes, flags.Report); err != nil {
			fmt.Fprintln(stderr, err)
			return errs.ExitCode(errs.CodeOf(err))
		}
	} else if flags.Report != "" {
		if err := report.WriteFile(flags.Report, runID, outcomes); err != nil {
			fmt.Fprintln(stderr, err)
			return errs.ExitCode(errs.CodeOf(err))
		}
	}

	if flags.Metrics != "" {
		rec := metrics.NewRecorder()
		rec.ObserveAll(outcomes)
		if err := rec.WriteTextfile(flags.Metrics); err != nil {
			fmt.Fprintln(stderr, err)
			return errs.ExitCode(errs.CodeOf(err))
		}
	}

	for _, o := range outcomes {
		if !o.Passed() {
			fmt.Fprintf(stderr, "%s: %v\n", o.Scenario, o.Err)
		}
	}
	failed := report.Failed(outcomes)
	fmt.Fprintf(stdout, "%d/%d scenarios passed (%s)\n", len(outcomes)-failed, len(outcomes), runID)
	log.Info("suite finished", "passed", len(outcomes)-failed, "failed", failed)
	return suiteExitCode(ctx, outcomes)
}

func listScenarios(w io.Writer, cfg *config.Config) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, sc := range scenarios.All(cfg) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", sc.Name, sc.Route, sc.Description)
	}
	_ = tw.Flush()
}

// suiteExitCode is zero when every scenario passed, otherwise the exit code
// of the first failure in selection order.
func suiteExitCode(ctx context.Context, outcomes []report.Outcome) int {
	if ctx.Err() != nil {
		return errs.ExitCode(errs.Canceled)
	}
	for _, o := range outcomes {
		if !o.Passed() {
			return errs.ExitCode(errs.CodeOf(o.Err))
		}
	}
	return 0
}

func runSequential(ctx context.Context, cfg *config.Config, selected []harness.Scenario, stdout io.Writer) []report.Outcome {
	outcomes := make([]report.Outcome, len(selected))
	for i, sc := range selected {
		outcomes[i].Scenario = sc.Name
	}

	runner, err := harness.Launch(ctx, cfg)
	if err != nil {
		for i := range outcomes {
			outcomes[i].Err = err
		}
		return outcomes
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			obs.From(ctx).Warn("browser shutdown failed", "pkg", "cli", "error", cerr)
		}
	}()

	for i, sc := range selected {
		res, err := runner.Run(ctx, sc)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		outcomes[i].Result = res
		if sc.SuccessMessage != "" {
			fmt.Fprintln(stdout, sc.SuccessMessage)
		}
	}
	return outcomes
}

// lockedWriter serialises success lines from concurrent scenarios.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runParallel(ctx context.Context, cfg *config.Config, selected []harness.Scenario, stdout io.Writer) []report.Outcome {
	outcomes := make([]report.Outcome, len(selected))
	out := &lockedWriter{w: stdout}

	var g errgroup.Group
	for i, sc := range selected {
		g.Go(func() error {
			res, err := harness.Execute(ctx, cfg, sc, out)
			outcomes[i] = report.Outcome{Scenario: sc.Name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func newPublisher(ctx context.Context, cfg *config.Config, runID string) (*artifacts.Publisher, error) {
	client, err := s3client.New(ctx, s3client.ConfigFromHarness(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.Artifact, "create artifact store client", err)
	}
	return artifacts.NewPublisher(client, runID), nil
}

func publishOutcomes(ctx context.Context, cfg *config.Config, runID string, outcomes []report.Outcome, reportPath string) error {
	pub, err := newPublisher(ctx, cfg, runID)
	if err != nil {
		return err
	}
	return publishWith(ctx, pub, runID, outcomes, reportPath)
}

// publishWith uploads each passing screenshot, then renders the report with
// the public links and uploads it too. It finishes by checking every upload
// is listed under the run prefix.
func publishWith(ctx context.Context, pub *artifacts.Publisher, runID string, outcomes []report.Outcome, reportPath string) error {
	for i := range outcomes {
		if !outcomes[i].Passed() {
			continue
		}
		url, err := pub.Publish(ctx, outcomes[i].Scenario, outcomes[i].Result.Screenshot)
		if err != nil {
			return err
		}
		outcomes[i].ScreenshotURL = url
	}
	if reportPath != "" {
		if err := report.WriteFile(reportPath, runID, outcomes); err != nil {
			return err
		}
		if _, err := pub.Publish(ctx, "", reportPath); err != nil {
			return err
		}
	}
	return pub.Verify(ctx)
}

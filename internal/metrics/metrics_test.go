package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/dealer-verify/internal/errs"
	"github.com/kuitang/dealer-verify/internal/harness"
	"github.com/kuitang/dealer-verify/internal/report"
)

func outcomes() []report.Outcome {
	return []report.Outcome{
		{
			Scenario: "csv-import",
			Result: &harness.Result{
				Scenario:    "csv-import",
				Duration:    1500 * time.Millisecond,
				MockHits:    map[string]int{"POST **/api/inventory": 1, "ANY **/api/inventory*": 2},
				Passthrough: 3,
			},
		},
		{
			Scenario: "miniapp",
			Err:      errs.New(errs.AssertionFailed, `expect text "Mock Car BMW" visible`),
		},
	}
}

func TestObserve_RecordsPassAndFailure(t *testing.T) {
	r := NewRecorder()
	r.ObserveAll(outcomes())

	require.Equal(t, 1.0, testutil.ToFloat64(r.success.WithLabelValues("csv-import")))
	require.Equal(t, 0.0, testutil.ToFloat64(r.success.WithLabelValues("miniapp")))
	require.Equal(t, 1.5, testutil.ToFloat64(r.duration.WithLabelValues("csv-import")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.mockHits.WithLabelValues("csv-import", "ANY **/api/inventory*")))
	require.Equal(t, 3.0, testutil.ToFloat64(r.passthrough.WithLabelValues("csv-import")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("miniapp", "assertion_failed")))
}

func TestObserve_FailuresAccumulate(t *testing.T) {
	r := NewRecorder()
	fail := outcomes()[1]
	r.Observe(fail)
	r.Observe(fail)
	require.Equal(t, 2.0, testutil.ToFloat64(r.failures.WithLabelValues("miniapp", "assertion_failed")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveAll(outcomes())

	path := filepath.Join(t.TempDir(), "textfile", "dealer_verify.prom")
	require.NoError(t, r.WriteTextfile(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	require.Contains(t, text, `dealer_verify_scenario_success{scenario="csv-import"} 1`)
	require.Contains(t, text, `dealer_verify_scenario_success{scenario="miniapp"} 0`)
	require.Contains(t, text, "# TYPE dealer_verify_scenario_failures_total counter")

	count, err := testutil.GatherAndCount(r.Registry(), "dealer_verify_mock_hits")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestWriteTextfile_RejectsWrongExtension(t *testing.T) {
	err := NewRecorder().WriteTextfile(filepath.Join(t.TempDir(), "metrics.txt"))
	require.Error(t, err)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
	require.True(t, strings.Contains(err.Error(), ".prom"))
}

func TestCheckTextfilePath(t *testing.T) {
	require.NoError(t, CheckTextfilePath("/var/lib/node_exporter/textfile/dealer_verify.prom"))
	err := CheckTextfilePath("dealer_verify.prom.tmp")
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

// Command verify-csv drives the admin inventory page through a CSV import
// against a running dev server, with every backend call mocked.
//
// On success it writes verification/csv_import.png and prints
// "CSV Import Verified".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuitang/dealer-verify/internal/cli"
	"github.com/kuitang/dealer-verify/internal/obs"
	"github.com/kuitang/dealer-verify/internal/scenarios"
)

func main() {
	obs.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.RunScenario(ctx, os.Stdout, os.Stderr, scenarios.CSVImport)
	stop()
	os.Exit(code)
}

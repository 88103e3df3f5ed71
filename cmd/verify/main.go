// Command verify runs any of the storefront verification scenarios.
//
// Usage:
//
//	verify [--scenario name]... [--parallel] [--list] [--report path] [--metrics path.prom]
//
// Target, browser and timeouts come from VERIFY_* environment variables.
// The exit status is zero only when every selected scenario passed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuitang/dealer-verify/internal/cli"
	"github.com/kuitang/dealer-verify/internal/obs"
)

func main() {
	obs.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.RunSuite(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

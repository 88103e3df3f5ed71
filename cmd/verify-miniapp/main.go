// Command verify-miniapp loads the public mini-app storefront against a
// running dev server and checks the mocked bot branding and inventory render.
//
// On success it writes verification/verification.png and prints its path.
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
	code := cli.RunScenario(ctx, os.Stdout, os.Stderr, scenarios.MiniApp)
	stop()
	os.Exit(code)
}

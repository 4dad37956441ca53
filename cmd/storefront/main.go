// Command storefront drives the travel-activity storefront from a terminal:
// browse the catalog, manage the cart, book an activity and, for admins,
// review and export transactions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"storefront.app/pkg/config"
	"storefront.app/pkg/errs"
	"storefront.app/pkg/logger"
)

const usage = `usage: storefront <command> [flags]

commands:
  activities   list activities (-category, -sort, -min-price, -max-price, -min-rating, -q)
  promos       list promos (-q, -sort)
  login        log in (-email, -password)
  logout       end the session
  whoami       show the logged-in user
  cart         list|add|update|remove|clear cart lines
  book         book an activity end to end (-activity, -date, -payment, -proof, ...)
  dashboard    admin: resource counts
  review       admin: -approve <id> or -reject <id>
  export       admin: write transactions as CSV (-status, -q, -out)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}
	logger.SetGlobalOutput(stderr)
	logger.SetGlobalLevel(logger.ParseLevel(cfg.Logging.Level))

	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "startup:", err)
		return 1
	}
	defer a.Close()

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(ctx, cfg.Metrics.Addr)
		defer stopMetrics()
	}

	if err := a.dispatch(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(stderr, "error:", message(err))
		if errors.Is(err, errUnknownCommand) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		return 1
	}
	return 0
}

// message prefers the API's own wording over the error code
func message(err error) string {
	var e *errs.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

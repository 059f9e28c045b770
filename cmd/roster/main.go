// Command roster manages a phone-number roster: bulk import of pasted text,
// export with optional assignment, and manual number and person management.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/roster/internal/core"
)

func main() {
	// Load .env file if it exists; real environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()

	if cerr := a.shutdown(); cerr != nil {
		slog.Error("failed to close storage", "error", cerr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorText(err))
		os.Exit(1)
	}
}

// errorText renders err for the terminal, with the support code and
// suggested action when the error is a known one.
func errorText(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("%v\n%s", err, core.FormatUserError(err))
	}
	return err.Error()
}

package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinetic-dev/kinetic/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kinetic",
		Short: "Reactive per-object state runtime",
		Long: `Kinetic is a reactive state runtime for Go.

Objects carry dynamic properties (stored, computed, lazy, accessor),
a priority-ordered event bus, cooperative scheduling, bindings,
and bounded undo/redo history. The CLI runs a runtime with the
HTTP inspector attached.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var cerr *errors.CLIError
		if stderrors.As(err, &cerr) {
			fmt.Fprint(os.Stderr, cerr.Format())
		} else {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}

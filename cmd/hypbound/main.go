// Command hypbound computes how many terms of a hypergeometric-type series
// must be summed so that the remaining tail is provably below 2^-tol.
package main

import (
	"context"
	"os"

	"github.com/agbru/hypbound/internal/app"
	apperrors "github.com/agbru/hypbound/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		// the error and the usage text are already on stderr
		os.Exit(apperrors.ExitErrorConfig)
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}

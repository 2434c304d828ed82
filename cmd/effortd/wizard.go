package main

import (
	"fmt"
	"os"

	"github.com/amp-labs/effort-economics/cli"
	"github.com/amp-labs/effort-economics/wizard"
	"github.com/spf13/cobra"
)

var wizardCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "wizard",
	Short: "Run the wizard in the terminal",
	Long: `Asks for the same details as the web form, verifies the location,
calculates and prints the report. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	rem, err := newRemotes(ctx)
	if err != nil {
		return err
	}

	opts, err := sessionOptions(ctx)
	if err != nil {
		return err
	}

	runner := &cli.Runner{
		Prompter: &cli.Terminal{},
		Deps: wizard.Deps{
			Geocoder:   rem.geocoder,
			Calculator: rem.calc,
			Store:      store,
		},
		Out:     os.Stdout,
		Usage:   rem.calc.Usage,
		Options: opts,
	}

	doc, err := runner.Run(ctx)
	if err != nil {
		if cli.IsInterrupt(err) {
			return nil
		}

		return err
	}

	_, err = fmt.Fprintf(os.Stdout, "\nSaved as %s\n", doc.ID)

	return err
}

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/amp-labs/effort-economics/report"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "usage",
	Short: "Print how many people have used the calculator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rem, err := newRemotes(ctx)
		if err != nil {
			return err
		}

		count, err := rem.calc.Usage(ctx)
		if err != nil {
			return err
		}

		line := report.UsageLine(count)
		if line == "" {
			line = strconv.Itoa(count)
		}

		_, err = fmt.Fprintln(os.Stdout, line)

		return err
	},
}

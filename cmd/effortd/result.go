package main

import (
	"fmt"
	"os"

	"github.com/amp-labs/effort-economics/report"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/spf13/cobra"
)

var (
	resultHTML  bool //nolint:gochecknoglobals
	resultClear bool //nolint:gochecknoglobals
)

var resultCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "result <id>",
	Short: "Print a stored result",
	Long: `Prints a result saved by "serve" or "wizard". Only useful with
RESULT_STORE=sqlite, since the memory store does not outlive the process.`,
	Args: cobra.ExactArgs(1),
	RunE: runResult,
}

func init() { //nolint:gochecknoinits
	resultCmd.Flags().BoolVar(&resultHTML, "html", false, "print the HTML page instead of text")
	resultCmd.Flags().BoolVar(&resultClear, "clear", false, "delete the result instead of printing it")
}

func runResult(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	if resultClear {
		if err := resultstore.Clear(ctx, store, id); err != nil {
			return err
		}

		_, err = fmt.Fprintf(os.Stdout, "Cleared %s\n", id)

		return err
	}

	doc, err := report.Load(ctx, store, id)
	if err != nil {
		return fmt.Errorf("loading result %s: %w", id, err)
	}

	if rem, err := newRemotes(ctx); err == nil {
		doc.Usage, _ = rem.calc.Usage(ctx)
	}

	if resultHTML {
		return report.RenderHTML(os.Stdout, doc, report.HTMLOptions{})
	}

	return report.RenderText(os.Stdout, doc)
}

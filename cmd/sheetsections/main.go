// Command sheetsections extracts product sections from HTML spreadsheet exports,
// either as an HTTP service or one file at a time.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sheetsections",
		Short: "Extract product sections from HTML spreadsheet exports",
		Long: `sheetsections reads spreadsheet exports saved as HTML and groups their
product rows into sections. Each row containing "Total:" closes a section and
names it; rows after the last Total: row are discarded.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newExtractCmd())
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

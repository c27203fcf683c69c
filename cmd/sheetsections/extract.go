package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/sheetsections/internal/extract"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	pretty bool
	output string
	stats  bool
}

func newExtractCmd() *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Extract sections from one export and print them as JSON",
		Long: `Extract reads an HTML export from a file, or from stdin when the file is
"-" or omitted, and prints its sections as a JSON array.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			out := cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			return runExtract(in, out, cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print row statistics to stderr")
	return cmd
}

func runExtract(in io.Reader, out, errOut io.Writer, opts extractOptions) error {
	res, err := extract.New(nil).Run(in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res.Sections); err != nil {
		return fmt.Errorf("write sections: %w", err)
	}

	if opts.stats {
		s := res.Stats
		fmt.Fprintf(errOut, "rows=%d sections=%d products=%d skipped=%d dangling=%d\n",
			s.Rows, s.Terminators, s.Products, s.SkippedTotal(), s.Dangling)
		for reason, n := range s.Skipped {
			fmt.Fprintf(errOut, "  skipped %s=%d\n", reason, n)
		}
	}
	return nil
}

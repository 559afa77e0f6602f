package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		textOnly bool
		out      string
	)
	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Extract paragraphs and headings from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document %s: %w", args[0], err)
			}

			e, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := e.ExtractDocument(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("extracting %s: %w", args[0], err)
			}
			if textOnly {
				return writeOutput(cmd, out, []byte(doc.RawText))
			}
			return writeJSON(cmd, out, doc)
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text", false, "Print the raw text only")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write output to this file instead of stdout")
	return cmd
}

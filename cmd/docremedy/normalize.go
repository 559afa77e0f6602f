package main

import (
	"github.com/spf13/cobra"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "normalize <report>",
		Short: "Normalize a scan report into per-document issue records",
		Long: "Reads a CSV or XLSX scan report and prints one record per scanned document with total " +
			"and critical issue counts, the score as a percentage and the pass-through context columns.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			rep, err := loadReport(cmd.Context(), e, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, out, rep)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write JSON to this file instead of stdout")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newRankCmd(a *app) *cobra.Command {
	var (
		critical bool
		page     int
		pageSize int
		out      string
	)
	cmd := &cobra.Command{
		Use:   "rank <report>",
		Short: "Rank documents by issue count",
		Long: "Keeps documents with at least one issue (or one critical issue with --critical), orders " +
			"them by that count, highest first, and prints the requested page.",
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
			return writeJSON(cmd, out, e.Rank(rep.Records, critical, pageSize, page))
		},
	}
	f := cmd.Flags()
	f.BoolVar(&critical, "critical", false, "Rank by critical issues only")
	f.IntVarP(&page, "page", "p", 1, "1-based page number")
	f.IntVar(&pageSize, "page-size", 0, "Documents per page (0 uses the configured default)")
	f.StringVarP(&out, "out", "o", "", "Write JSON to this file instead of stdout")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/docremedy/export"
	"github.com/brunobiangulo/docremedy/ranking"
	"github.com/brunobiangulo/docremedy/report"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		ranked   bool
		critical bool
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export <report>",
		Short: "Export normalized records as an XLSX workbook",
		Long: "Writes one row per document. With --ranked only documents with issues are kept, " +
			"highest count first.",
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
			records := rep.Records
			if ranked || critical {
				records = rankAll(rep.Records, critical)
			}

			data, err := export.RecordsXLSX(records)
			if err != nil {
				return fmt.Errorf("exporting records: %w", err)
			}
			return writeOutput(cmd, out, data)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&ranked, "ranked", false, "Keep documents with issues, ordered by issue count")
	f.BoolVar(&critical, "critical", false, "Rank by critical issues (implies --ranked)")
	f.StringVarP(&out, "out", "o", "", "Output file (required)")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}
	return cmd
}

// rankAll returns every ranked record on a single page.
func rankAll(records []report.Record, critical bool) []report.Record {
	return ranking.Paginate(records, critical, max(len(records), 1), 1).Items
}

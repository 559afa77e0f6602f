package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/docremedy"
	"github.com/brunobiangulo/docremedy/export"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		reportPath      string
		name            string
		instructionFile string
		out             string
		xlsxOut         string
	)
	cmd := &cobra.Command{
		Use:   "analyze <pdf>",
		Short: "Produce a remediation plan for one PDF",
		Long: "Extracts the PDF text, pairs it with the document's row from the scan report and asks " +
			"the completion service for a numbered list of issues with descriptions and solutions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document %s: %w", args[0], err)
			}
			in := docremedy.AnalyzeInput{
				DocumentName: filepath.Base(args[0]),
				Document:     doc,
			}
			if name != "" {
				in.DocumentName = name
			}
			if reportPath != "" {
				rep, err := os.ReadFile(reportPath)
				if err != nil {
					return fmt.Errorf("failed to read report %s: %w", reportPath, err)
				}
				in.Report, in.ReportName = rep, filepath.Base(reportPath)
			}
			if instructionFile != "" {
				text, err := os.ReadFile(instructionFile)
				if err != nil {
					return fmt.Errorf("failed to read instruction %s: %w", instructionFile, err)
				}
				in.Instruction = strings.TrimSpace(string(text))
			}

			e, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			analysis, err := e.Analyze(cmd.Context(), in)
			if err != nil {
				return err
			}

			if xlsxOut != "" {
				data, err := export.PlanXLSX(analysis.Document, analysis.Issues)
				if err != nil {
					return fmt.Errorf("exporting plan: %w", err)
				}
				if err := writeOutput(cmd, xlsxOut, data); err != nil {
					return err
				}
			}
			return writeJSON(cmd, out, analysis)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&reportPath, "report", "r", "", "Scan report (CSV or XLSX) listing the document")
	f.StringVarP(&name, "name", "n", "", "Document name in the report (defaults to the PDF file name)")
	f.StringVar(&instructionFile, "instruction-file", "", "File replacing the built-in analysis instruction")
	f.StringVarP(&out, "out", "o", "", "Write JSON to this file instead of stdout")
	f.StringVar(&xlsxOut, "xlsx", "", "Also write the plan as an XLSX workbook")
	return cmd
}

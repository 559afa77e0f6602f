package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/docremedy"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool
	provider   string
	model      string
	history    string

	logger    *slog.Logger
	newEngine func(ctx context.Context, cfg docremedy.Config, opts ...docremedy.Option) (docremedy.Engine, error)
}

func newApp() *app {
	return &app{newEngine: docremedy.New}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "docremedy",
		Short: "Accessibility remediation for scanned PDF documents",
		Long: "docremedy reads accessibility scan reports (CSV or XLSX), ranks the scanned documents " +
			"by issue count and asks a completion service for a numbered remediation plan per PDF.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to config file (YAML or JSON)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&a.provider, "provider", "", "Completion provider (overrides config)")
	pf.StringVar(&a.model, "model", "", "Completion model (overrides config)")
	pf.StringVar(&a.history, "history", "", "History store: SQLite path or postgres:// URL (overrides config)")

	root.AddCommand(
		newNormalizeCmd(a),
		newRankCmd(a),
		newExtractCmd(a),
		newAnalyzeCmd(a),
		newAskCmd(a),
		newExportCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// config resolves file, environment and flag settings, in that order.
func (a *app) config() (docremedy.Config, error) {
	cfg := docremedy.DefaultConfig()
	if a.configPath != "" {
		c, err := docremedy.LoadConfig(a.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if a.provider != "" {
		cfg.LLM.Provider = a.provider
	}
	if a.model != "" {
		cfg.LLM.Model = a.model
	}
	if a.history != "" {
		cfg.HistoryDSN = a.history
	}
	return cfg, nil
}

// engine builds an engine for one command run. The caller closes it.
func (a *app) engine(ctx context.Context) (docremedy.Engine, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}
	e, err := a.newEngine(ctx, cfg, docremedy.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// loadReport reads and normalizes a report file.
func loadReport(ctx context.Context, e docremedy.Engine, path string) (*docremedy.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	return e.LoadReport(ctx, filepath.Base(path), data)
}

// writeJSON prints v as indented JSON to the command output, or to path when
// set.
func writeJSON(cmd *cobra.Command, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	return writeOutput(cmd, path, data)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the upload history",
		Long:  "Stores, lists and deletes normalized records per user. Requires history_dsn or --history.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if p := cmd.Root(); p.PersistentPreRun != nil {
				p.PersistentPreRun(cmd, args)
			}
			if strings.TrimSpace(user) == "" {
				return fmt.Errorf("--user is required")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&user, "user", "u", "", "User identifier")

	save := &cobra.Command{
		Use:   "save <report>",
		Short: "Store every record of a report",
		Args:  cobra.ExactArgs(1),
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
			entries, err := e.SaveReport(cmd.Context(), user, rep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d records from %s\n", len(entries), rep.Name)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored records, newest upload first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.History(cmd.Context(), user)
			if err != nil {
				return err
			}
			return writeJSON(cmd, "", entries)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid history id %q: %w", args[0], err)
			}

			e, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.DeleteHistory(cmd.Context(), user, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}

	cmd.AddCommand(save, list, del)
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pevans/hnsort/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs",
	}

	cmd.AddCommand(newHistoryListCmd(a), newHistoryShowCmd(a))

	return cmd
}

// openHistory opens the configured history database.
func (a *app) openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("history is disabled (history.enabled: false)")
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			printRunsTable(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0: all)")

	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var showItems bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			store, err := a.openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printRunDetail(out, run)

			if showItems {
				items, err := store.RunItems(runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				printItemsTable(out, items)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showItems, "items", true, "Print the collected items")

	return cmd
}

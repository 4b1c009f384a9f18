package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/meridianhq/eventrecon/internal/common"
	"github.com/meridianhq/eventrecon/internal/feed"
	"github.com/meridianhq/eventrecon/internal/model"
	"github.com/meridianhq/eventrecon/internal/normalize"
	"github.com/meridianhq/eventrecon/internal/service"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Reconcile extracted expenses against both transaction feeds",
		Long: `Match each extracted expense against the card feed and the expense
system export, then store the scored results.

Examples:
  # Reconcile one event's expenses
  eventrecon match --expenses q3-offsite.json --card chase.qfx --export concur.csv

  # Preview without saving
  eventrecon match --expenses q3-offsite.json --card chase.qfx --export concur.csv --dry-run`,
		RunE: runMatch,
	}

	cmd.Flags().String("expenses", "", "extracted expenses JSON file (required)")
	cmd.Flags().StringSlice("card", nil, "card feed OFX/QFX file(s) (required)")
	cmd.Flags().String("export", "", "expense system CSV export (required)")
	cmd.Flags().String("event", "", "only reconcile expenses for this event")
	cmd.Flags().BoolP("dry-run", "d", false, "score without saving results")
	_ = cmd.MarkFlagRequired("expenses")
	_ = cmd.MarkFlagRequired("card")
	_ = cmd.MarkFlagRequired("export")

	return cmd
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	expensesPath, _ := cmd.Flags().GetString("expenses")
	cardPaths, _ := cmd.Flags().GetStringSlice("card")
	exportPath, _ := cmd.Flags().GetString("export")
	eventFilter, _ := cmd.Flags().GetString("event")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	expenses, err := loadExpenses(ctx, expensesPath, eventFilter)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		slog.Warn("No expenses to reconcile", "file", expensesPath, "event", eventFilter)
		return nil
	}

	cardTxns, err := loadCardFeed(ctx, cardPaths)
	if err != nil {
		return err
	}
	expSysTxns, err := loadExpenseExport(ctx, exportPath)
	if err != nil {
		return err
	}

	slog.Info("Starting reconciliation",
		"expenses", len(expenses),
		"card_candidates", len(cardTxns),
		"expense_system_candidates", len(expSysTxns),
		"dry_run", dryRun)

	eng, cleanup, err := initEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	var store service.Storage
	if !dryRun {
		s, storeErr := initStorage(ctx)
		if storeErr != nil {
			return storeErr
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	bar := progressbar.NewOptions(len(expenses),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Reconciling expenses..."),
	)

	counts := map[model.MatchStatus]int{}
	for _, expense := range expenses {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := eng.Match(ctx, expense, cardTxns, expSysTxns)
		counts[result.Status]++

		if store != nil {
			if err := store.SaveResult(ctx, &result); err != nil {
				return fmt.Errorf("failed to save result for expense %s: %w", expense.ID, err)
			}
		}
		_ = bar.Add(1)
	}

	fmt.Println()
	fmt.Printf("Reconciled %d expenses: %d confirmed, %d pending review, %d rejected\n",
		len(expenses),
		counts[model.StatusConfirmed],
		counts[model.StatusPending],
		counts[model.StatusRejected])
	if dryRun {
		fmt.Println("Dry run complete, nothing saved")
	}

	return nil
}

// loadExpenses reads and normalizes the extraction output. Malformed
// records are skipped with a warning rather than aborting the batch.
func loadExpenses(ctx context.Context, path, eventFilter string) ([]model.Expense, error) {
	records, err := readFeedFile(ctx, path, feed.NewExpenseReader().Read)
	if err != nil {
		return nil, err
	}

	var expenses []model.Expense
	for _, raw := range records {
		if eventFilter != "" && raw.EventID != eventFilter {
			continue
		}
		expense, normErr := normalize.Expense(raw)
		if normErr != nil {
			logSkippedRecord("expense", raw.ExternalID, normErr)
			continue
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}

func loadCardFeed(ctx context.Context, paths []string) ([]model.Transaction, error) {
	reader := feed.NewOFXReader()
	seen := make(map[string]bool)

	var txns []model.Transaction
	for _, pattern := range paths {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}

		for _, path := range matches {
			records, readErr := readFeedFile(ctx, path, reader.Read)
			if readErr != nil {
				return nil, readErr
			}
			for _, raw := range records {
				tx, normErr := normalize.Transaction(raw, model.SourceCardFeed)
				if normErr != nil {
					logSkippedRecord("card transaction", raw.ExternalID, normErr)
					continue
				}
				if seen[tx.Hash()] {
					continue
				}
				seen[tx.Hash()] = true
				txns = append(txns, tx)
			}
		}
	}
	return txns, nil
}

func loadExpenseExport(ctx context.Context, path string) ([]model.Transaction, error) {
	records, err := readFeedFile(ctx, path, feed.NewCSVReader().Read)
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for _, raw := range records {
		tx, normErr := normalize.Transaction(raw, model.SourceExpenseSystem)
		if normErr != nil {
			logSkippedRecord("expense system transaction", raw.ExternalID, normErr)
			continue
		}
		txns = append(txns, tx)
	}
	return txns, nil
}

func readFeedFile(ctx context.Context, path string, read func(context.Context, io.Reader) ([]normalize.RawRecord, error)) ([]normalize.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

func logSkippedRecord(kind, id string, err error) {
	fields := common.Fields{"kind": kind, "id": id}

	var malformed *common.MalformedRecordError
	if errors.As(err, &malformed) {
		fields["field"] = malformed.Field
		fields["value"] = malformed.Value
	}

	common.LogError(err, "Skipping record that could not be normalized", fields)
}

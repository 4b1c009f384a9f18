package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianhq/eventrecon/internal/model"
)

func resultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results <event-id>",
		Short: "List stored reconciliation results for an event",
		Args:  cobra.ExactArgs(1),
		RunE:  runResults,
	}

	cmd.Flags().String("status", "", "only show results with this status (confirmed, pending, rejected)")

	return cmd
}

func runResults(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eventID := args[0]
	statusFilter, _ := cmd.Flags().GetString("status")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	results, err := store.GetResultsByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	if len(results) == 0 {
		fmt.Printf("No results stored for event %s\n", eventID)
		return nil
	}

	shown := 0
	for _, result := range results {
		if statusFilter != "" && !statusMatches(result.Status, statusFilter) {
			continue
		}
		shown++

		fmt.Printf("%s  %s %s  %s  %s  confidence %.2f\n",
			result.Status,
			result.Expense.Amount.String(),
			result.Expense.Currency,
			result.Expense.Date.Format("2006-01-02"),
			result.Expense.Vendor,
			result.OverallConfidence)
		fmt.Printf("    card: %s\n", describeOutcome(result.CardOutcome))
		fmt.Printf("    expense system: %s\n", describeOutcome(result.ExpenseSystemOutcome))
		if result.Reasoning != "" {
			fmt.Printf("    %s\n", result.Reasoning)
		}
	}

	if shown == 0 {
		fmt.Printf("No %s results for event %s\n", statusFilter, eventID)
	}

	return nil
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <event-id>",
		Short: "Show the reconciliation summary for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summary, err := store.GetEventSummary(ctx, eventID)
			if err != nil {
				return fmt.Errorf("failed to load event summary: %w", err)
			}

			fmt.Printf("Event %s\n", summary.EventID)
			fmt.Printf("  Expenses:        %d\n", summary.Total)
			fmt.Printf("  Confirmed:       %d\n", summary.Confirmed)
			fmt.Printf("  Pending review:  %d\n", summary.Pending)
			fmt.Printf("  Rejected:        %d\n", summary.Rejected)
			fmt.Printf("  Match rate:      %.0f%%\n", summary.MatchRate*100)
			fmt.Printf("  Confirmed total: %s\n", summary.ConfirmedTotal.StringFixed(2))

			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Println("Database schema is up to date")
			return nil
		},
	}
}

func statusMatches(status model.MatchStatus, filter string) bool {
	switch filter {
	case "confirmed":
		return status == model.StatusConfirmed
	case "pending":
		return status == model.StatusPending
	case "rejected":
		return status == model.StatusRejected
	default:
		return true
	}
}

func describeOutcome(outcome model.MatchOutcome) string {
	if !outcome.Matched() {
		if outcome.Reasoning != "" {
			return "no match (" + outcome.Reasoning + ")"
		}
		return "no match"
	}
	tx := outcome.Transaction
	return fmt.Sprintf("%s %s %s on %s at %s (%.2f)",
		tx.ExternalID,
		tx.Amount.String(),
		tx.Currency,
		tx.Date.Format("2006-01-02"),
		tx.Vendor,
		outcome.Confidence)
}

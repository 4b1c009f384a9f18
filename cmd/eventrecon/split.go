package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianhq/eventrecon/internal/split"
)

// participantsFile is the JSON shape of the --participants input.
type participantsFile struct {
	Participants []split.Participant `json:"participants"`
}

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <event-id>",
		Short: "Split an event's confirmed total among participants",
		Long: `Split the confirmed reconciled total of an event among its
participants, either equally or proportionally to weights.

The participants file is JSON:
  {"participants": [{"id": "u1", "name": "Kim", "weight": 2}, ...]}`,
		Args: cobra.ExactArgs(1),
		RunE: runSplit,
	}

	cmd.Flags().String("participants", "", "participants JSON file (required)")
	cmd.Flags().String("method", "equal", "splitting method (equal, weighted)")
	_ = cmd.MarkFlagRequired("participants")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eventID := args[0]
	participantsPath, _ := cmd.Flags().GetString("participants")
	method, _ := cmd.Flags().GetString("method")

	data, err := os.ReadFile(participantsPath)
	if err != nil {
		return fmt.Errorf("failed to read participants file: %w", err)
	}

	var pf participantsFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse participants file: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	total, err := store.GetConfirmedTotal(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load confirmed total: %w", err)
	}

	result, err := split.Apportion(eventID, total, pf.Participants, split.Method(method))
	if err != nil {
		return err
	}

	fmt.Printf("Event %s: %s split %s among %d participants\n",
		result.EventID,
		result.Total.StringFixed(2),
		result.Method,
		len(result.Shares))
	for _, share := range result.Shares {
		name := share.Participant.Name
		if name == "" {
			name = share.Participant.ID
		}
		fmt.Printf("  %-24s %10s  (%.1f%%)\n",
			name,
			share.Amount.StringFixed(2),
			share.Portion*100)
	}

	return nil
}

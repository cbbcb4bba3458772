package main

import (
	"context"
	"fmt"

	"github.com/energypatrikhu/obs-ui/internal/adapter/twitch"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/spf13/cobra"
)

func newClearStaleCmd(open opener) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clear-stale",
		Short: "Delete every subscription that is not enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmin(cmd, open, func(ctx context.Context, admin subscriptionAdmin) error {
				if dryRun {
					return previewStale(ctx, cmd, admin)
				}

				deleted, err := admin.ClearStale(ctx)
				if err != nil {
					return fmt.Errorf("failed to clear stale subscriptions: %w", err)
				}
				cmd.Printf("Deleted %d stale subscription(s)\n", deleted)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only list what would be deleted")
	return cmd
}

func previewStale(ctx context.Context, cmd *cobra.Command, admin subscriptionAdmin) error {
	subs, err := admin.ListAll(ctx, twitch.ListFilter{})
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	stale := make([]domain.Subscription, 0, len(subs))
	for _, s := range subs {
		if s.Status != domain.SubscriptionEnabled {
			stale = append(stale, s)
		}
	}
	return printSubscriptions(cmd, stale)
}

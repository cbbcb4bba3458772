package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/adapter/twitch"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/spf13/cobra"
)

func newListCmd(open opener) *cobra.Command {
	var filter twitch.ListFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List EventSub subscriptions",
		Example: `  # Every subscription
  eventsubctl list

  # Subscriptions Twitch stopped delivering
  eventsubctl list --status websocket_disconnected`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmin(cmd, open, func(ctx context.Context, admin subscriptionAdmin) error {
				subs, err := admin.ListAll(ctx, filter)
				if err != nil {
					return fmt.Errorf("failed to list subscriptions: %w", err)
				}
				return printSubscriptions(cmd, subs)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "only subscriptions with this status")
	cmd.Flags().StringVar(&filter.Type, "type", "", "only subscriptions of this type")
	cmd.Flags().StringVar(&filter.UserID, "user-id", "", "only subscriptions for this user")
	cmd.MarkFlagsMutuallyExclusive("status", "type", "user-id")
	return cmd
}

func printSubscriptions(cmd *cobra.Command, subs []domain.Subscription) error {
	if len(subs) == 0 {
		cmd.Println("No subscriptions")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tVERSION\tSTATUS\tTRANSPORT\tCONDITION\tCREATED (UTC)")
	for _, s := range subs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Type, s.Version, s.Status, s.Transport.Method,
			formatCondition(s.Condition), s.CreatedAt.UTC().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write subscriptions: %w", err)
	}
	cmd.Printf("%d subscription(s)\n", len(subs))
	return nil
}

func formatCondition(condition map[string]string) string {
	parts := make([]string, 0, len(condition))
	for _, key := range slices.Sorted(maps.Keys(condition)) {
		if condition[key] != "" {
			parts = append(parts, key+"="+condition[key])
		}
	}
	return strings.Join(parts, ",")
}

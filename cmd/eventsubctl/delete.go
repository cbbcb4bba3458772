package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <subscription-id>...",
		Short: "Delete EventSub subscriptions by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, open, func(ctx context.Context, admin subscriptionAdmin) error {
				for _, id := range args {
					if err := admin.Delete(ctx, id); err != nil {
						return fmt.Errorf("failed to delete subscription %s: %w", id, err)
					}
					cmd.Printf("Deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

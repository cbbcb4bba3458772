package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/adapter/storage"
	"github.com/energypatrikhu/obs-ui/internal/adapter/twitch"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/config"
	"github.com/energypatrikhu/obs-ui/internal/platform/logging"
	"github.com/spf13/cobra"
)

// subscriptionAdmin is the part of the EventSub manager the commands use.
type subscriptionAdmin interface {
	ListAll(ctx context.Context, filter twitch.ListFilter) ([]domain.Subscription, error)
	Delete(ctx context.Context, id string) error
	ClearStale(ctx context.Context) (int, error)
}

// opener connects to Twitch. The returned func releases the connection.
type opener func(ctx context.Context) (subscriptionAdmin, func(), error)

type rootOptions struct {
	timeout time.Duration
	debug   bool
}

func newRootCmd(open opener) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "eventsubctl",
		Short:        "Manage the EventSub subscriptions of the broadcaster account",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "info"
			if opts.debug {
				level = "debug"
			}
			logging.InitLogger(level, "pretty")

			if opts.timeout > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
				cobra.OnFinalize(cancel)
				cmd.SetContext(ctx)
			}
			return nil
		},
	}

	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "timeout for the whole command, 0 disables it")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logs")

	root.AddCommand(
		newListCmd(open),
		newDeleteCmd(open),
		newClearStaleCmd(open),
	)
	return root
}

// openTwitch loads the server configuration and credentials and makes sure
// the stored token is usable. The server must have been authorized once.
func openTwitch(ctx context.Context) (subscriptionAdmin, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	backend, err := storage.Open(ctx, cfg, twitch.DefaultScopes())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	creds, err := backend.Store.GetCredentials(ctx)
	if err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.Code == "" && creds.AccessToken == "" {
		_ = backend.Close()
		return nil, nil, domain.ErrNotAuthenticated
	}

	client := twitch.New(backend.Store, twitch.Config{RedirectURL: cfg.TwitchRedirectURI, FailWithoutAuthorization: true})
	if err := client.Tokens.Initialize(ctx); err != nil {
		client.Events.Close()
		_ = backend.Close()
		return nil, nil, fmt.Errorf("failed to initialize Twitch API: %w", err)
	}
	slog.DebugContext(ctx, "Twitch API ready", "store", cfg.StoreBackend)

	closeFn := func() {
		client.Events.Close()
		_ = backend.Close()
	}
	return client.EventSub, closeFn, nil
}

func withAdmin(cmd *cobra.Command, open opener, fn func(ctx context.Context, admin subscriptionAdmin) error) error {
	ctx := cmd.Context()
	admin, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, admin)
}

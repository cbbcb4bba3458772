package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/centrifugal/centrifuge"
	"github.com/energypatrikhu/obs-ui/internal/adapter/httpserver"
	"github.com/energypatrikhu/obs-ui/internal/adapter/metrics"
	"github.com/energypatrikhu/obs-ui/internal/adapter/redis"
	"github.com/energypatrikhu/obs-ui/internal/adapter/storage"
	"github.com/energypatrikhu/obs-ui/internal/adapter/twitch"
	"github.com/energypatrikhu/obs-ui/internal/adapter/websocket"
	"github.com/energypatrikhu/obs-ui/internal/app"
	"github.com/energypatrikhu/obs-ui/internal/platform/config"
	"github.com/energypatrikhu/obs-ui/internal/platform/logging"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

type metricGroups struct {
	registry  *prometheus.Registry
	http      *metrics.HTTPMetrics
	websocket *metrics.WebSocketMetrics
	twitch    *metrics.TwitchMetrics
	store     *metrics.StoreMetrics
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupMetrics() metricGroups {
	reg := metrics.NewRegistry()
	return metricGroups{
		registry:  reg,
		http:      metrics.NewHTTPMetrics(reg),
		websocket: metrics.NewWebSocketMetrics(reg),
		twitch:    metrics.NewTwitchMetrics(reg),
		store:     metrics.NewStoreMetrics(reg),
	}
}

func setupStore(ctx context.Context, cfg *config.Config, storeMetrics *metrics.StoreMetrics) *storage.Backend {
	backend, err := storage.Open(ctx, cfg, twitch.DefaultScopes(),
		redis.WithStateObserver(func(_, to gobreaker.State) {
			storeMetrics.BreakerStateChanged("redis", to.String(), redis.StateLevel(to))
		}),
	)
	if err != nil {
		slog.Error("Failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	slog.Info("Store opened", "backend", cfg.StoreBackend)
	return backend
}

func setupOverlayNode(cfg *config.Config, backend *storage.Backend, wsMetrics *metrics.WebSocketMetrics) *centrifuge.Node {
	node, err := websocket.NewNode(wsMetrics, cfg.LogLevel)
	if err != nil {
		slog.Error("Failed to create overlay node", "error", err)
		os.Exit(1)
	}
	if backend.Redis != nil {
		if err := websocket.SetupRedis(node, backend.Redis.Options().Addr); err != nil {
			slog.Error("Failed to set up overlay broker", "error", err)
			os.Exit(1)
		}
	}
	if err := node.Run(); err != nil {
		slog.Error("Failed to start overlay node", "error", err)
		os.Exit(1)
	}
	return node
}

// twitchRunner owns everything that talks to Twitch on behalf of this
// instance: token initialization, periodic validation and the EventSub
// relay.
type twitchRunner struct {
	client    *twitch.Client
	relay     *app.Relay
	validator *app.TokenValidator
}

func (t *twitchRunner) run(ctx context.Context) {
	t.relay.Start(ctx)
	go t.validator.Run(ctx)

	if err := t.client.Tokens.Initialize(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Twitch integration is paused until it is authorized again", "error", err)
	}

	<-ctx.Done()
	t.relay.Stop()
	if err := t.client.Session.Close(); err != nil {
		slog.Error("Failed to close EventSub session", "error", err)
	}
}

// start runs the Twitch integration in the background. With a shared Redis
// store only the instance holding the leader lease does so; losing the lease
// calls onLost.
func (t *twitchRunner) start(ctx context.Context, backend *storage.Backend, onLost func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if backend.Redis == nil {
			t.run(ctx)
			return
		}

		elector := redis.NewLeaderElector(backend.Redis, uuid.NewString(), 0)
		err := elector.Lead(ctx, t.run)
		if errors.Is(err, redis.ErrLeadershipLost) {
			slog.Error("Lost EventSub leadership, shutting down")
			onLost()
		}
	}()
	return done
}

func healthChecks(store storage.Store) []httpserver.HealthCheck {
	return []httpserver.HealthCheck{
		{
			Name: "store",
			Check: func(ctx context.Context) error {
				_, err := store.GetWidgetSettings(ctx)
				return err
			},
		},
	}
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mg := setupMetrics()

	backend := setupStore(ctx, cfg, mg.store)
	defer func() { _ = backend.Close() }()

	client := twitch.New(backend.Store, twitch.Config{
		RedirectURL:   cfg.TwitchRedirectURI,
		WebhookSecret: cfg.TwitchWebhookSecret,
		Metrics:       mg.twitch,
	})
	defer client.Events.Close()

	node := setupOverlayNode(cfg, backend, mg.websocket)
	publisher := websocket.NewPublisher(node, mg.websocket)

	nowPlaying := app.NewNowPlayingService(publisher, clock)
	widgets := app.NewWidgetService(backend.Store, publisher)

	runner := &twitchRunner{
		client:    client,
		relay:     app.NewRelay(client.Events, client.Session, client.API, client.EventSub, publisher),
		validator: app.NewTokenValidator(client.Tokens, clock, cfg.TokenValidateInterval),
	}
	twitchDone := runner.start(ctx, backend, stop)

	handlers := httpserver.Handlers{
		NowPlaying:   nowPlaying,
		Widgets:      widgets,
		Twitch:       client.Tokens,
		Overlay:      centrifuge.NewWebsocketHandler(node, centrifuge.WebsocketConfig{CheckOrigin: websocket.NewCheckOrigin(cfg.PublicURL, cfg.Origins())}),
		Metrics:      metrics.Handler(mg.registry),
		HTTPMetrics:  mg.http,
		HealthChecks: healthChecks(backend.Store),
	}
	// Pass nil explicitly to avoid a typed-nil interface
	if client.Webhook != nil {
		handlers.WebhookHandler = client.Webhook
		slog.Info("EventSub webhook receiver enabled", "path", "/webhooks/eventsub", "callback", strings.TrimSuffix(cfg.PublicURL, "/")+"/webhooks/eventsub")
	}
	srv := httpserver.NewServer(cfg, handlers)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}

	select {
	case <-twitchDone:
	case <-shutdownCtx.Done():
		slog.Warn("Twitch integration did not stop in time")
	}

	if err := node.Shutdown(shutdownCtx); err != nil {
		slog.Error("Overlay node shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

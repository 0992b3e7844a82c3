package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lernapp-service/internal/app"
	"lernapp-service/internal/auth"
	"lernapp-service/internal/config"
	"lernapp-service/internal/tasks"
	transport "lernapp-service/internal/transport/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	store, err := b.kvStore(ctx, cfg.Store.Driver)
	if err != nil {
		return err
	}

	var (
		authenticator app.Authenticator
		accounts      transport.Accounts
	)
	if cfg.Auth.RemoteURL != "" {
		authenticator = auth.NewClient(cfg.Auth.RemoteURL, config.TTLDuration(cfg.Auth.Timeout, 10*time.Second))
	} else {
		svc := auth.NewService(b.accounts(), newMailer(cfg, logger), config.TTLDuration(cfg.Auth.ResetTTL, auth.DefaultResetTTL), logger)
		authenticator, accounts = svc, svc
	}

	service := app.NewService(app.Deps{
		Store:    store,
		Sessions: b.sessions(config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)),
		Auth:     authenticator,
		Tasks:    tasks.NewGenerator(),
		Logger:   logger,
	})
	handler := transport.NewHandler(transport.Options{
		Service:       service,
		Accounts:      accounts,
		Logger:        logger,
		NextTaskDelay: config.TTLDuration(cfg.Play.NextTaskDelay, 1500*time.Millisecond),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting lernapp service", "port", finalPort, "store", cfg.Store.Driver, "remoteAuth", cfg.Auth.RemoteURL != "")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeledger/internal/httpapi"
	"github.com/alexanderramin/timeledger/internal/service"
)

func newServeCmd(app *App, opts *globalOpts) *cobra.Command {
	var addr string
	var sweepOrgs []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timesheet HTTP API and sweep stale logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil || app.Config.HTTP.JWTSecret == "" {
				return errors.New("serve: http.jwt_secret is not configured")
			}
			if addr == "" {
				addr = app.Config.HTTP.Addr
			}
			if len(sweepOrgs) == 0 && opts.org != "" {
				sweepOrgs = []string{opts.org}
			}
			logger := app.Logger
			if logger == nil {
				logger = slog.Default()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              addr,
				Handler:           httpapi.NewRouter(app.Engine, []byte(app.Config.HTTP.JWTSecret), logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			sweepDone := make(chan struct{})
			go func() {
				defer close(sweepDone)
				sweepLoop(ctx, app.Engine, opts.tenant, sweepOrgs, app.Config.Engine.SweepInterval, logger)
			}()

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("http server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			var err error
			select {
			case <-ctx.Done():
			case err = <-serveErr:
			}
			stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
				logger.Error("shutting down http server", "error", shutdownErr)
			}
			<-sweepDone
			logger.Info("http server stopped")
			if err != nil {
				return fmt.Errorf("serving http: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringSliceVar(&sweepOrgs, "sweep-org", nil, "Organizations to sweep for stale logs (default --org)")
	return cmd
}

// sweepLoop closes stale logs of every organization in orgs each interval
// until ctx is done. A zero interval or no organizations disables it.
func sweepLoop(ctx context.Context, sweeper service.SweepService, tenantID string, orgs []string, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 || len(orgs) == 0 {
		logger.Info("stale log sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, org := range orgs {
				closed, err := sweeper.CloseStaleLogs(ctx, tenantID, org)
				if err != nil {
					logger.WarnContext(ctx, "stale log sweep failed", "organization_id", org, "error", err)
					continue
				}
				if closed > 0 {
					logger.InfoContext(ctx, "closed stale time logs", "organization_id", org, "closed", closed)
				}
			}
		}
	}
}

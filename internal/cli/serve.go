package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Povusa/TECNOMAT/internal/config"
	"github.com/Povusa/TECNOMAT/internal/service"
	"github.com/Povusa/TECNOMAT/internal/template"
	"github.com/Povusa/TECNOMAT/internal/webapi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with its background workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, app, nil)
		},
	}
	config.BindFlags(cmd.Flags())
	return cmd
}

// runServe serves the API on ln, or on the configured address when ln is nil,
// until ctx is cancelled or either goroutine fails.
func runServe(ctx context.Context, app *App, ln net.Listener) error {
	svcs, err := app.Services()
	if err != nil {
		return err
	}
	cfg := app.Config

	srv := webapi.NewServer(webapi.ServerConfig{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         app.Logger,
	}, svcs.Timesheet)

	app.Logger.Info("timesheet service ready",
		"version", app.Version,
		"session_store", cfg.SessionStore,
		"template", cfg.TemplatePath,
		"output_dir", cfg.OutputDir,
		"session_ttl", cfg.SessionTTL,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if ln != nil {
			return srv.Serve(gctx, ln)
		}
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		return service.RunJanitor(gctx, svcs.Timesheet, cfg.JanitorInterval, app.Logger)
	})
	g.Go(func() error {
		// A watcher failure is logged, not fatal.
		if err := template.NewWatcher(cfg.TemplatePath, app.Logger).Run(gctx); err != nil {
			app.Logger.Warn("template watching disabled", "error", err)
		}
		return nil
	})
	return g.Wait()
}

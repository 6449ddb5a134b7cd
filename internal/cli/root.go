package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Povusa/TECNOMAT/internal/bootstrap"
	"github.com/Povusa/TECNOMAT/internal/config"
	"github.com/spf13/cobra"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
)

// WireFunc builds the service graph for a loaded configuration.
type WireFunc func(cfg config.Config, logger *slog.Logger) (*bootstrap.Services, error)

// App holds the settings resolved before a command runs and the services it
// wires on demand.
type App struct {
	Version string

	// IsInteractive reports whether stdin is a terminal. Nil means never.
	IsInteractive func() bool

	// Wire defaults to bootstrap.Wire.
	Wire WireFunc

	Config config.Config
	Logger *slog.Logger

	services *bootstrap.Services
}

// NewApp returns an App that wires the production graph.
func NewApp(version string) *App {
	return &App{Version: version, Config: config.DefaultConfig(), Logger: slog.Default()}
}

// Services wires the graph on first use and returns the same one afterwards.
func (a *App) Services() (*bootstrap.Services, error) {
	if a.services != nil {
		return a.services, nil
	}
	wire := a.Wire
	if wire == nil {
		wire = func(cfg config.Config, logger *slog.Logger) (*bootstrap.Services, error) {
			return bootstrap.Wire(cfg, logger, bootstrap.Options{Version: a.Version})
		}
	}
	svcs, err := wire(a.Config, a.Logger)
	if err != nil {
		return nil, err
	}
	a.services = svcs
	return svcs, nil
}

// Close releases wired services, if any.
func (a *App) Close() error {
	if a.services == nil {
		return nil
	}
	err := a.services.Close()
	a.services = nil
	return err
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "tecnomat" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:           "tecnomat",
		Short:         "Daily timesheet assistant",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.ApplyFlags(&cfg, cmd.Flags()); err != nil {
				return fmt.Errorf("reading flags: %w", err)
			}
			cfg.Debug = cfg.Debug || debug
			app.Config = cfg
			app.Logger = newLogger(cmd.ErrOrStderr(), levelFor(cfg.Debug, slog.LevelInfo))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, flagConfig, "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&debug, flagDebug, false, "enable debug logging")

	root.AddCommand(
		newServeCmd(app),
		newChatCmd(app),
		newTemplateCmd(app),
	)

	return root
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func levelFor(debug bool, normal slog.Level) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return normal
}

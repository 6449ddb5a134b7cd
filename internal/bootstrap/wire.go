// Package bootstrap assembles the timesheet service and its dependencies from a
// validated configuration. Both the HTTP server and the terminal chat start
// from here.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Povusa/TECNOMAT/internal/artifact"
	"github.com/Povusa/TECNOMAT/internal/config"
	"github.com/Povusa/TECNOMAT/internal/db"
	"github.com/Povusa/TECNOMAT/internal/dialogue"
	"github.com/Povusa/TECNOMAT/internal/repository"
	"github.com/Povusa/TECNOMAT/internal/service"
	"github.com/Povusa/TECNOMAT/internal/template"
)

// Options carries build-time values that do not belong in Config.
type Options struct {
	Version string
	// Now dates reports and session activity. Defaults to time.Now.
	Now func() time.Time
}

// Services is the wired object graph. Close releases the session store.
type Services struct {
	Timesheet service.TimesheetService
	Artifacts *artifact.Store
	closers   []func() error
}

// Close runs the cleanup functions in reverse order of acquisition.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Wire validates cfg and builds the service graph.
func Wire(cfg config.Config, logger *slog.Logger, opts Options) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	out := &Services{}
	repo, err := openSessionRepo(cfg.SessionStore, out)
	if err != nil {
		return nil, err
	}

	// A bad template is not fatal: sessions still run and fail at the last
	// step with a generation error.
	if sheet, layout, err := template.InspectFile(cfg.TemplatePath); err != nil {
		logger.Warn("report template unusable", "path", cfg.TemplatePath, "error", err)
	} else {
		logger.Debug("report template loaded", "path", cfg.TemplatePath, "sheet", sheet, "project_row", layout.Row)
	}

	out.Artifacts = artifact.NewStore(cfg.OutputDir)
	merger := template.NewXLSXMerger(cfg.TemplatePath, out.Artifacts, opts.Now)
	engine := dialogue.NewEngine(cfg.Passcode, merger,
		dialogue.WithClock(opts.Now),
		dialogue.WithLogger(logger),
	)

	out.Timesheet = service.NewTimesheetService(repo, engine, out.Artifacts, service.TimesheetOptions{
		IdleTTL:      cfg.SessionTTL,
		MergeTimeout: cfg.MergeTimeout,
		Version:      opts.Version,
		Logger:       logger,
		Now:          opts.Now,
	}, service.NewSlogUseCaseObserver(logger))

	return out, nil
}

func openSessionRepo(kind string, out *Services) (repository.SessionRepo, error) {
	switch kind {
	case config.StoreMemory:
		return repository.NewMemorySessionRepo(), nil
	case config.StoreSQLite:
		conn, err := db.OpenDB(db.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		out.closers = append(out.closers, conn.Close)
		return repository.NewSQLiteSessionRepo(conn), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}

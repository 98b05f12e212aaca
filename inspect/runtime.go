package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/autoview/dbopen"
	"github.com/hazyhaar/autoview/idgen"
	"github.com/hazyhaar/autoview/inspect/internal/inject"
	"github.com/hazyhaar/autoview/inspect/internal/surface"
	"github.com/hazyhaar/autoview/sourcemap"
)

var newSurfaceID = idgen.Prefixed("srf_", idgen.Default)

// Runtime assembles the production stack from a FileConfig: the shared
// browser, the injection selector, the sqlite-backed source mapper with
// its freshness watcher, and the Service on top.
type Runtime struct {
	cfg     *FileConfig
	logger  *slog.Logger
	mgr     *surface.Manager
	sel     *inject.Selector
	db      *sql.DB
	watcher *sourcemap.Watcher
	svc     *Service
}

// NewRuntime wires the stack together. Call Start before use.
func NewRuntime(cfg *FileConfig, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := dbopen.Open(cfg.Project.IndexPath, dbopen.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("inspect: open index db: %w", err)
	}

	finder := sourcemap.NewIndexFinder(db, cfg.Project.Root, logger)
	if err := finder.Init(); err != nil {
		db.Close()
		return nil, err
	}

	mapper := sourcemap.NewMapper(sourcemap.Config{
		Searcher: sourcemap.NewDirSearcher(cfg.Project.Root, logger),
		Finder:   finder,
		Logger:   logger,
	})

	rt := &Runtime{
		cfg:    cfg,
		logger: logger,
		mgr: surface.NewManager(surface.ManagerConfig{
			RemoteURL: cfg.Browser.Remote,
			Stealth:   cfg.Browser.Stealth,
			Logger:    logger,
		}),
		sel: inject.NewSelector(logger),
		db:  db,
		watcher: sourcemap.NewWatcher(finder, sourcemap.WatchOptions{
			Interval: cfg.Project.RescanInterval,
			Logger:   logger,
		}),
	}

	rt.svc = NewService(ServiceConfig{
		Open:         rt.openSurface,
		Mapper:       mapper,
		Editor:       sourcemap.NewCommandEditor(cfg.Project.Editor, cfg.Project.Root, logger),
		ReadyTimeout: cfg.Inspect.ReadyTimeout,
		SettleDelay:  cfg.Inspect.SettleDelay,
		Logger:       logger,
	})
	return rt, nil
}

// Start connects the browser and begins the index watcher. The watcher
// stops when ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	if err := r.mgr.Start(ctx); err != nil {
		return err
	}
	go r.watcher.Run(ctx)
	return nil
}

// Service exposes the session manager the transports drive.
func (r *Runtime) Service() *Service { return r.svc }

// Close tears everything down: sessions, surfaces, browser, index.
func (r *Runtime) Close(ctx context.Context) {
	r.svc.Close(ctx)
	r.mgr.Close()
	if err := r.db.Close(); err != nil {
		r.logger.Warn("inspect: close index db", "error", err)
	}
}

func (r *Runtime) openSurface(ctx context.Context, url string) (PreviewSurface, Injector, error) {
	surf, err := surface.Open(ctx, r.mgr, surface.Options{
		ID:            newSurfaceID(),
		HostURL:       r.cfg.Browser.HostURL,
		TargetURL:     url,
		FrameSelector: r.cfg.Browser.FrameSelector,
	})
	if err != nil {
		return nil, nil, err
	}
	return surf, BindInjector(r.sel, surf), nil
}

package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hazyhaar/autoview/inspect/internal/config"
	"github.com/hazyhaar/autoview/inspect/msg"
	"github.com/hazyhaar/autoview/sourcemap"
)

// FileConfig is the on-disk service configuration. Re-exported from internal.
type FileConfig = config.Config

// LoadConfigFile reads a YAML configuration file with env overrides.
func LoadConfigFile(path string) (*FileConfig, error) {
	return config.LoadFile(path)
}

// LoadConfigEnv builds a configuration from the environment alone.
func LoadConfigEnv() *FileConfig {
	return config.Load()
}

// ErrNoSurface is returned for operations on an unknown surface ID.
var ErrNoSurface = errors.New("inspect: no such surface")

// OpenFunc opens a live preview surface for a URL and returns it together
// with a bound injector. The production implementation wraps the browser
// manager; tests supply fakes.
type OpenFunc func(ctx context.Context, url string) (PreviewSurface, Injector, error)

// ServiceConfig assembles a Service.
type ServiceConfig struct {
	Open   OpenFunc
	Mapper *sourcemap.Mapper
	// Editor handles open-in-editor delegation. Nil disables it.
	Editor       sourcemap.Editor
	ReadyTimeout time.Duration
	SettleDelay  time.Duration
	Logger       *slog.Logger
}

// Service owns one controller per open surface and fans inspection results
// out to subscribers. The HTTP bridge and the MCP tools both drive it.
type Service struct {
	open         OpenFunc
	mapper       *sourcemap.Mapper
	editor       sourcemap.Editor
	readyTimeout time.Duration
	settleDelay  time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	entries map[string]*serviceEntry
	subs    map[int64]func(Result)
	nextSub int64
}

type serviceEntry struct {
	surface PreviewSurface
	ctrl    *Controller
	cancel  context.CancelFunc
}

// NewService creates a service around an opener.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		open:         cfg.Open,
		mapper:       cfg.Mapper,
		editor:       cfg.Editor,
		readyTimeout: cfg.ReadyTimeout,
		settleDelay:  cfg.SettleDelay,
		logger:       cfg.Logger,
		entries:      map[string]*serviceEntry{},
		subs:         map[int64]func(Result){},
	}
}

// OpenSurface opens a preview surface on the URL and attaches a controller.
// The returned ID addresses the surface in all later calls.
func (s *Service) OpenSurface(ctx context.Context, url string) (string, error) {
	surface, injector, err := s.open(ctx, url)
	if err != nil {
		return "", fmt.Errorf("inspect: open surface: %w", err)
	}

	ctrl := NewController(Config{
		Surface:      surface,
		Injector:     injector,
		Mapper:       s.mapper,
		ReadyTimeout: s.readyTimeout,
		SettleDelay:  s.settleDelay,
		Logger:       s.logger,
	})

	// Controller lifetime is the surface's, not the opening request's.
	cctx, cancel := context.WithCancel(context.Background())
	ctrl.Attach(cctx)

	s.mu.Lock()
	s.entries[surface.ID()] = &serviceEntry{surface: surface, ctrl: ctrl, cancel: cancel}
	s.mu.Unlock()

	s.logger.Info("inspect: surface opened", "surface", surface.ID(), "url", url)
	return surface.ID(), nil
}

// Surfaces lists open surface IDs in stable order.
func (s *Service) Surfaces() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start begins inspection on the surface. Results reach all subscribers.
func (s *Service) Start(ctx context.Context, surfaceID string) (*Session, error) {
	e, err := s.entry(surfaceID)
	if err != nil {
		return nil, err
	}
	return e.ctrl.Start(ctx, s.broadcast)
}

// Stop ends inspection on the surface. No active session is not an error.
func (s *Service) Stop(ctx context.Context, surfaceID string) error {
	e, err := s.entry(surfaceID)
	if err != nil {
		return err
	}
	e.ctrl.Stop(ctx)
	return nil
}

// Session returns the surface's active session, or nil.
func (s *Service) Session(surfaceID string) (*Session, error) {
	e, err := s.entry(surfaceID)
	if err != nil {
		return nil, err
	}
	return e.ctrl.Session(), nil
}

// CloseSurface stops inspection and releases the surface.
func (s *Service) CloseSurface(ctx context.Context, surfaceID string) error {
	s.mu.Lock()
	e := s.entries[surfaceID]
	delete(s.entries, surfaceID)
	s.mu.Unlock()
	if e == nil {
		return ErrNoSurface
	}

	e.ctrl.Stop(ctx)
	e.ctrl.Detach()
	e.cancel()
	if err := e.surface.Close(); err != nil {
		s.logger.Warn("inspect: close surface", "surface", surfaceID, "error", err)
	}
	return nil
}

// Close releases every surface.
func (s *Service) Close(ctx context.Context) {
	for _, id := range s.Surfaces() {
		if err := s.CloseSurface(ctx, id); err != nil && !errors.Is(err, ErrNoSurface) {
			s.logger.Warn("inspect: close", "surface", id, "error", err)
		}
	}
}

// Subscribe registers a result listener and returns its cancel func.
// Listeners are called synchronously from the controller's message pump;
// slow consumers must buffer on their side.
func (s *Service) Subscribe(fn func(Result)) (cancel func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) broadcast(r Result) {
	s.mu.Lock()
	fns := make([]func(Result), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(r)
	}
}

// ResolveSource maps a component name to source candidates without a click.
func (s *Service) ResolveSource(ctx context.Context, name string) *msg.ComponentSourceInfo {
	if s.mapper == nil {
		return nil
	}
	return s.mapper.Resolve(ctx, msg.ComponentDescriptor{ComponentName: name})
}

// OpenInEditor delegates a resolved location to the editor collaborator.
func (s *Service) OpenInEditor(ctx context.Context, path string, line, column int) error {
	if s.editor == nil {
		return fmt.Errorf("inspect: no editor configured")
	}
	return s.editor.OpenFile(ctx, path, line, column)
}

func (s *Service) entry(surfaceID string) (*serviceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[surfaceID]
	if e == nil {
		return nil, ErrNoSurface
	}
	return e, nil
}

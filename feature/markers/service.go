package markers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"marker-sync/core/markerset"
	"marker-sync/core/reconcile"

	"go.uber.org/zap"
)

// ErrInvalidMarkerType is returned by Toggle for an unknown marker type.
var ErrInvalidMarkerType = errors.New("invalid marker type")

// InvalidTypeMessage is the answer to an unknown marker type.
const InvalidTypeMessage = "Invalid marker type! Use: spawn, firstspawn, or warp"

// ConfigStore is the part of the configuration store the service drives.
type ConfigStore interface {
	Reload() error
	Toggle(key string) (bool, error)
}

// Runner runs one reconciliation pass synchronously.
type Runner interface {
	RunNow(ctx context.Context) error
}

// Engine exposes the reconciliation state.
type Engine interface {
	State() reconcile.State
	Active() map[string]markerset.Record
}

// HandleSource lists the marker containers in use.
type HandleSource interface {
	Handles() map[markerset.Group][]markerset.Handle
}

// markerType maps a command argument to its configuration key.
type markerType struct {
	key  string
	name string
}

var markerTypes = map[string]markerType{
	"spawn":      {"spawn-marker.enabled", "Spawn"},
	"firstspawn": {"first-spawn-marker.enabled", "First Spawn"},
	"warp":       {"warps-marker.enabled", "Warps"},
	"warps":      {"warps-marker.enabled", "Warps"},
}

// LastPass remembers the most recent pass summary. It is registered as an
// engine observer.
type LastPass struct {
	mu      sync.RWMutex
	summary *reconcile.Summary
}

// ObservePass stores the summary.
func (l *LastPass) ObservePass(s reconcile.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summary = &s
}

// Last returns the most recent summary, or nil before the first pass.
func (l *LastPass) Last() *reconcile.Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.summary == nil {
		return nil
	}
	s := *l.summary
	return &s
}

// Status is the answer of GET /markers.
type Status struct {
	State    reconcile.State               `json:"state"`
	Active   []markerset.Record            `json:"active"`
	Handles  map[string][]markerset.Handle `json:"handles"`
	LastPass *reconcile.Summary            `json:"last_pass,omitempty"`
}

// ToggleResult is the outcome of a toggle command.
type ToggleResult struct {
	Marker  string `json:"marker"`
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// Service implements the reload, toggle and status commands.
type Service struct {
	config     ConfigStore
	runner     Runner
	engine     Engine
	handles    HandleSource
	last       *LastPass
	invalidate func()
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInvalidate registers a hook that runs after a configuration reload,
// e.g. to drop cached source documents.
func WithInvalidate(fn func()) Option {
	return func(s *Service) {
		s.invalidate = fn
	}
}

// NewService creates the service.
func NewService(config ConfigStore, runner Runner, engine Engine, handles HandleSource, last *LastPass, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		config:  config,
		runner:  runner,
		engine:  engine,
		handles: handles,
		last:    last,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the engine state, the active set sorted by id, the container
// handles and the last pass summary.
func (s *Service) Status() Status {
	active := s.engine.Active()
	records := make([]markerset.Record, 0, len(active))
	for _, rec := range active {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	handles := make(map[string][]markerset.Handle)
	for group, hs := range s.handles.Handles() {
		handles[group.String()] = hs
	}

	st := Status{
		State:   s.engine.State(),
		Active:  records,
		Handles: handles,
	}
	if s.last != nil {
		st.LastPass = s.last.Last()
	}
	return st
}

// Reload re-reads the configuration and runs one pass.
func (s *Service) Reload(ctx context.Context) (string, error) {
	if err := s.config.Reload(); err != nil {
		return fmt.Sprintf("Error reloading configuration: %s", err), err
	}
	if s.invalidate != nil {
		s.invalidate()
	}
	if err := s.runner.RunNow(ctx); err != nil {
		return fmt.Sprintf("Error reloading configuration: %s", err), err
	}
	return "Configuration reloaded successfully!", nil
}

// Toggle flips the enabled flag of a marker type, persists it and runs one
// pass. The type is case-insensitive.
func (s *Service) Toggle(ctx context.Context, kind string) (ToggleResult, error) {
	mt, ok := markerTypes[strings.ToLower(kind)]
	if !ok {
		return ToggleResult{}, ErrInvalidMarkerType
	}

	enabled, err := s.config.Toggle(mt.key)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("failed to toggle %s: %w", mt.key, err)
	}

	if err := s.runner.RunNow(ctx); err != nil {
		s.logger.Warn("Marker update after toggle failed", zap.String("marker", mt.name), zap.Error(err))
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return ToggleResult{
		Marker:  mt.name,
		Enabled: enabled,
		Message: fmt.Sprintf("%s markers %s!", mt.name, state),
	}, nil
}

package refresh

import (
	"fmt"

	"github.com/rs/zerolog"

	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/domain"
)

// Registry owns one session per configured panel, in definition order.
type Registry[T any] struct {
	defs     []config.PanelDefinition
	sessions map[string]*Session[T]
}

// NewRegistry builds a session for every definition; build supplies the
// fetcher for a panel.
func NewRegistry[T any](
	defs []config.PanelDefinition,
	build func(config.PanelDefinition) (Fetcher[T], error),
	logger zerolog.Logger,
	opts ...Option,
) (*Registry[T], error) {
	r := &Registry[T]{
		defs:     append([]config.PanelDefinition(nil), defs...),
		sessions: make(map[string]*Session[T], len(defs)),
	}
	for _, def := range defs {
		if _, dup := r.sessions[def.Key]; dup {
			r.Close()
			return nil, fmt.Errorf("duplicate panel %q", def.Key)
		}
		fetch, err := build(def)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("panel %q: %w", def.Key, err)
		}
		r.sessions[def.Key] = NewSession(def.Key, fetch, logger, opts...)
	}
	return r, nil
}

func (r *Registry[T]) Get(key string) (*Session[T], bool) {
	s, ok := r.sessions[key]
	return s, ok
}

func (r *Registry[T]) Definitions() []config.PanelDefinition {
	return append([]config.PanelDefinition(nil), r.defs...)
}

// Sessions returns the sessions in definition order.
func (r *Registry[T]) Sessions() []*Session[T] {
	out := make([]*Session[T], 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, r.sessions[def.Key])
	}
	return out
}

// StartAll issues the initial load of every panel with unbounded filters.
func (r *Registry[T]) StartAll() error {
	for _, s := range r.Sessions() {
		if err := s.Start(domain.DateRange{}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry[T]) Close() {
	for _, s := range r.sessions {
		s.Close()
	}
}

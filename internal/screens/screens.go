// Package screens names the views of the client and builds them on demand.
package screens

import (
	"context"
	"fmt"
	"sync"

	"objectsrecognition/internal/apperr"
)

type ID int

const (
	Main ID = iota
	Configuration
	EventJournal
	VideoEventJournal
)

var names = map[ID]string{
	Main:              "main",
	Configuration:     "configuration",
	EventJournal:      "event-journal",
	VideoEventJournal: "video-event-journal",
}

func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("screen(%d)", int(id))
}

// ParseID maps a screen name back to its ID.
func ParseID(name string) (ID, error) {
	for id, n := range names {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown screen %q", apperr.ErrInvalidInput, name)
}

// Builder produces the view model of a screen.
type Builder func(ctx context.Context) (any, error)

// Registry maps each screen to its builder.
type Registry struct {
	builders map[ID]Builder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[ID]Builder)}
}

// Register sets the builder of id, replacing any previous one.
func (r *Registry) Register(id ID, builder Builder) *Registry {
	r.builders[id] = builder
	return r
}

// Build runs the builder of id.
func (r *Registry) Build(ctx context.Context, id ID) (any, error) {
	builder, ok := r.builders[id]
	if !ok {
		return nil, fmt.Errorf("%w: no builder for screen %s", apperr.ErrInvalidInput, id)
	}
	return builder(ctx)
}

// Navigator tracks the screen currently shown.
type Navigator struct {
	registry *Registry
	mu       sync.Mutex
	current  ID
}

func NewNavigator(registry *Registry) *Navigator {
	return &Navigator{registry: registry, current: Main}
}

// Navigate builds the view of id and makes it current. The current screen is
// unchanged when the build fails.
func (n *Navigator) Navigate(ctx context.Context, id ID) (any, error) {
	view, err := n.registry.Build(ctx, id)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.current = id
	n.mu.Unlock()
	return view, nil
}

// Current returns the screen shown last.
func (n *Navigator) Current() ID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Package timeline holds the ordered, navigable set of loaded media items
// and the display rectangles computed for each of them.
//
// A Timeline is not safe for concurrent use; the service Manager serializes
// every access.
package timeline

import (
	"errors"
	"fmt"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/geometry"
	"objectsrecognition/internal/models"
)

// ErrStaleGeneration is returned when results arrive for a timeline that has
// been replaced since the request was issued.
var ErrStaleGeneration = errors.New("stale timeline generation")

type Timeline struct {
	items      []models.MediaItem
	rects      [][]geometry.DisplayRect
	current    int
	generation uint64
}

func New() *Timeline {
	return &Timeline{}
}

// Load replaces every item, resets the position to the first item, clears
// all rectangle sets and starts a new generation, which it returns.
func (t *Timeline) Load(items []models.MediaItem) uint64 {
	t.items = make([]models.MediaItem, len(items))
	for i, item := range items {
		item.Index = i
		t.items[i] = item
	}
	t.rects = make([][]geometry.DisplayRect, len(items))
	t.current = 0
	t.generation++
	return t.generation
}

// SetRects assigns the rectangle set of the item at index.
func (t *Timeline) SetRects(index int, rects []geometry.DisplayRect) error {
	if index < 0 || index >= len(t.items) {
		return fmt.Errorf("%w: index %d out of range [0, %d)", apperr.ErrInvalidInput, index, len(t.items))
	}
	t.rects[index] = append([]geometry.DisplayRect(nil), rects...)
	return nil
}

// SetRectsFor is SetRects guarded by the generation returned from Load.
func (t *Timeline) SetRectsFor(generation uint64, index int, rects []geometry.DisplayRect) error {
	if generation != t.generation {
		return fmt.Errorf("%w: got %d, current %d", ErrStaleGeneration, generation, t.generation)
	}
	return t.SetRects(index, rects)
}

// Next moves to the following item, wrapping to the first. No-op when empty.
func (t *Timeline) Next() {
	if len(t.items) == 0 {
		return
	}
	t.current = (t.current + 1) % len(t.items)
}

// Previous moves to the preceding item, wrapping to the last. No-op when empty.
func (t *Timeline) Previous() {
	if len(t.items) == 0 {
		return
	}
	t.current = (t.current - 1 + len(t.items)) % len(t.items)
}

// Current returns the current item and its rectangles; ok is false when the
// timeline is empty.
func (t *Timeline) Current() (item models.MediaItem, rects []geometry.DisplayRect, ok bool) {
	if len(t.items) == 0 {
		return models.MediaItem{}, nil, false
	}
	return t.items[t.current], append([]geometry.DisplayRect(nil), t.rects[t.current]...), true
}

// Len returns the number of loaded items.
func (t *Timeline) Len() int {
	return len(t.items)
}

// Index returns the current position, 0 when empty.
func (t *Timeline) Index() int {
	return t.current
}

// Generation returns the generation of the last Load.
func (t *Timeline) Generation() uint64 {
	return t.generation
}

// Items returns a copy of the loaded items in load order.
func (t *Timeline) Items() []models.MediaItem {
	return append([]models.MediaItem(nil), t.items...)
}

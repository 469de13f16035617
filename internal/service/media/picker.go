package media

import (
	"context"
	"errors"
	"strings"
)

// ErrNoSelection means the user dismissed the selection. Callers treat it as
// a silent no-op.
var ErrNoSelection = errors.New("no selection")

// Picker asks the user for a path.
type Picker interface {
	PickImage(ctx context.Context) (string, error)
	PickFolder(ctx context.Context) (string, error)
	PickVideo(ctx context.Context) (string, error)
}

type selectionKey struct{}

// WithSelection attaches a path chosen by the caller to ctx.
func WithSelection(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, selectionKey{}, path)
}

// ContextPicker returns whatever path was attached with WithSelection.
type ContextPicker struct{}

func (ContextPicker) PickImage(ctx context.Context) (string, error)  { return selection(ctx) }
func (ContextPicker) PickFolder(ctx context.Context) (string, error) { return selection(ctx) }
func (ContextPicker) PickVideo(ctx context.Context) (string, error)  { return selection(ctx) }

func selection(ctx context.Context) (string, error) {
	path, ok := ctx.Value(selectionKey{}).(string)
	if !ok || strings.TrimSpace(path) == "" {
		return "", ErrNoSelection
	}
	return strings.TrimSpace(path), nil
}

// StaticPicker always returns fixed paths. An empty path is a dismissed
// selection.
type StaticPicker struct {
	Image  string
	Folder string
	Video  string
}

func (p StaticPicker) PickImage(context.Context) (string, error)  { return static(p.Image) }
func (p StaticPicker) PickFolder(context.Context) (string, error) { return static(p.Folder) }
func (p StaticPicker) PickVideo(context.Context) (string, error)  { return static(p.Video) }

func static(path string) (string, error) {
	if path == "" {
		return "", ErrNoSelection
	}
	return path, nil
}

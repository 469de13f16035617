package geometry

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"objectsrecognition/internal/apperr"
)

// ErrUnknownClass is returned for class labels missing from the legend.
var ErrUnknownClass = errors.New("unknown class")

// Color is a named colour tag understood by viewers.
type Color string

const (
	Green  Color = "Green"
	Red    Color = "Red"
	Blue   Color = "Blue"
	Yellow Color = "Yellow"
	Purple Color = "Purple"
)

// LegendEntry maps a class label to its colour.
type LegendEntry struct {
	ClassName string `json:"class_name" yaml:"class_name"`
	Color     Color  `json:"color" yaml:"color"`
}

// Legend is a fixed class to colour mapping. It is built once and never
// mutated, so it is safe for concurrent reads.
type Legend struct {
	entries []LegendEntry
	colors  map[string]Color
}

// DefaultLegend returns the built-in legend. Both spellings of the board
// class appear in service responses.
func DefaultLegend() *Legend {
	legend, _ := NewLegend([]LegendEntry{
		{ClassName: "human", Color: Green},
		{ClassName: "wind/sup-board", Color: Red},
		{ClassName: "sup-board", Color: Red},
		{ClassName: "bouy", Color: Blue},
		{ClassName: "sailboat", Color: Yellow},
		{ClassName: "kayak", Color: Purple},
	})
	return legend
}

// NewLegend builds a legend, rejecting empty or duplicate class labels.
func NewLegend(entries []LegendEntry) (*Legend, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: legend has no entries", apperr.ErrInvalidInput)
	}

	legend := &Legend{
		entries: make([]LegendEntry, 0, len(entries)),
		colors:  make(map[string]Color, len(entries)),
	}
	for _, entry := range entries {
		if entry.ClassName == "" || entry.Color == "" {
			return nil, fmt.Errorf("%w: legend entry %+v is incomplete", apperr.ErrInvalidInput, entry)
		}
		if _, exists := legend.colors[entry.ClassName]; exists {
			return nil, fmt.Errorf("%w: duplicate legend class %q", apperr.ErrInvalidInput, entry.ClassName)
		}
		legend.colors[entry.ClassName] = entry.Color
		legend.entries = append(legend.entries, entry)
	}
	return legend, nil
}

// LoadLegend reads a YAML list of {class_name, color} entries.
func LoadLegend(path string) (*Legend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legend %s: %w", path, err)
	}

	var entries []LegendEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to parse legend %s: %v", apperr.ErrInvalidInput, path, err)
	}
	return NewLegend(entries)
}

// Color returns the colour for className or an InvalidInput error wrapping ErrUnknownClass.
func (l *Legend) Color(className string) (Color, error) {
	if color, ok := l.colors[className]; ok {
		return color, nil
	}
	return "", fmt.Errorf("%w: %w %q", apperr.ErrInvalidInput, ErrUnknownClass, className)
}

// Known reports whether className has a colour.
func (l *Legend) Known(className string) bool {
	_, ok := l.colors[className]
	return ok
}

// Unknown returns the labels from classNames that the legend does not cover,
// in input order and without duplicates.
func (l *Legend) Unknown(classNames []string) []string {
	var unknown []string
	seen := make(map[string]bool)
	for _, name := range classNames {
		if l.Known(name) || seen[name] {
			continue
		}
		seen[name] = true
		unknown = append(unknown, name)
	}
	return unknown
}

// Entries returns a copy of the legend in definition order.
func (l *Legend) Entries() []LegendEntry {
	out := make([]LegendEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

package geometry

import (
	"fmt"
	"math"

	"objectsrecognition/internal/apperr"
)

// Box is a detection box in source pixels. X and Y are the box centre.
type Box struct {
	ClassName string
	X         int
	Y         int
	Width     int
	Height    int
}

// DisplayRect is a box in canvas coordinates. X and Y are the top-left corner.
type DisplayRect struct {
	X      int
	Y      int
	Width  int
	Height int
	Color  Color
}

// Footprint is the scaled source image inside the canvas.
type Footprint struct {
	Width   float64
	Height  float64
	OffsetX float64
	OffsetY float64
}

// Fit scales the source to fit the target canvas while keeping its aspect
// ratio. The axis that would overflow first binds the scale, the other axis
// is centred.
func Fit(sourceWidth, sourceHeight, targetWidth, targetHeight int) (Footprint, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Footprint{}, fmt.Errorf("%w: source size %dx%d", apperr.ErrInvalidInput, sourceWidth, sourceHeight)
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return Footprint{}, fmt.Errorf("%w: target size %dx%d", apperr.ErrInvalidInput, targetWidth, targetHeight)
	}

	k1 := float64(sourceWidth) / float64(targetWidth)
	k2 := float64(sourceHeight) / float64(targetHeight)
	k := math.Max(k1, k2)

	width := float64(sourceWidth) / k
	height := float64(sourceHeight) / k

	return Footprint{
		Width:   width,
		Height:  height,
		OffsetX: (float64(targetWidth) - width) / 2,
		OffsetY: (float64(targetHeight) - height) / 2,
	}, nil
}

// Map projects box from a sourceWidth x sourceHeight image onto a
// targetWidth x targetHeight canvas and resolves its colour from legend.
// All conversions to integers truncate toward zero.
func Map(box Box, sourceWidth, sourceHeight, targetWidth, targetHeight int, legend *Legend) (DisplayRect, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return DisplayRect{}, fmt.Errorf("%w: box size %dx%d", apperr.ErrInvalidInput, box.Width, box.Height)
	}
	if box.X < 0 || box.Y < 0 {
		return DisplayRect{}, fmt.Errorf("%w: box position %d,%d", apperr.ErrInvalidInput, box.X, box.Y)
	}

	fp, err := Fit(sourceWidth, sourceHeight, targetWidth, targetHeight)
	if err != nil {
		return DisplayRect{}, err
	}

	color, err := legend.Color(box.ClassName)
	if err != nil {
		return DisplayRect{}, err
	}

	sw, sh := float64(sourceWidth), float64(sourceHeight)

	centerX := fp.Width*(float64(box.X)/sw) + fp.OffsetX
	centerY := fp.Height*(float64(box.Y)/sh) + fp.OffsetY

	width := int(math.Trunc(fp.Width * (float64(box.Width) / sw)))
	height := int(math.Trunc(fp.Height * (float64(box.Height) / sh)))

	return DisplayRect{
		X:      int(math.Trunc(centerX - float64(width/2))),
		Y:      int(math.Trunc(centerY - float64(height/2))),
		Width:  width,
		Height: height,
		Color:  color,
	}, nil
}

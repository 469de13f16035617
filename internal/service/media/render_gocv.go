package media

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/geometry"
	"objectsrecognition/internal/models"
)

var drawColors = map[geometry.Color]color.RGBA{
	geometry.Green:  {G: 200, A: 255},
	geometry.Red:    {R: 255, A: 255},
	geometry.Blue:   {B: 255, A: 255},
	geometry.Yellow: {R: 255, G: 255, A: 255},
	geometry.Purple: {R: 160, B: 200, A: 255},
}

// Render draws the item letterboxed onto a canvas of the given size with its
// rectangles on top and returns the JPEG. Rects are in canvas coordinates.
func Render(item models.MediaItem, rects []geometry.DisplayRect, canvasWidth, canvasHeight int) ([]byte, error) {
	fp, err := geometry.Fit(item.Width, item.Height, canvasWidth, canvasHeight)
	if err != nil {
		return nil, err
	}

	src, err := gocv.IMDecode(item.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", apperr.ErrInvalidInput, item.Name, err)
	}
	defer src.Close()
	if src.Empty() {
		return nil, fmt.Errorf("%w: %s decoded to an empty image", apperr.ErrInvalidInput, item.Name)
	}

	canvas := gocv.NewMatWithSize(canvasHeight, canvasWidth, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	footprint := image.Rect(int(fp.OffsetX), int(fp.OffsetY), int(fp.OffsetX)+int(fp.Width), int(fp.OffsetY)+int(fp.Height))
	if footprint.Dx() > 0 && footprint.Dy() > 0 {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(src, &resized, footprint.Size(), 0, 0, gocv.InterpolationLinear)

		region := canvas.Region(footprint)
		defer region.Close()
		resized.CopyTo(&region)
	}

	for _, r := range rects {
		c, ok := drawColors[r.Color]
		if !ok {
			c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		if err := gocv.Rectangle(&canvas, image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height), c, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %v", err)
		}
	}

	buf, err := gocv.IMEncode(".jpg", canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %v", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

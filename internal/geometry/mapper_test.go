package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"objectsrecognition/internal/apperr"
)

func TestMap_ReferenceScenario(t *testing.T) {
	box := Box{ClassName: "human", X: 100, Y: 100, Width: 100, Height: 100}

	rect, err := Map(box, 1920, 1080, 1000, 500, DefaultLegend())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	expected := DisplayRect{X: 78, Y: 23, Width: 46, Height: 46, Color: Green}
	if diff := cmp.Diff(expected, rect); diff != "" {
		t.Errorf("Map mismatch (-expected +got):\n%s", diff)
	}

	centerX := rect.X + rect.Width/2
	centerY := rect.Y + rect.Height/2
	if centerX != 101 || centerY != 46 {
		t.Errorf("center = %d,%d, expected 101,46", centerX, centerY)
	}
}

func TestFit_BindsOnOverflowingAxis(t *testing.T) {
	fp, err := Fit(1920, 1080, 1000, 500)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if math.Abs(fp.Height-500) > 1e-9 {
		t.Errorf("height should bind to canvas, got %f", fp.Height)
	}
	if math.Abs(fp.Width-888.888) > 0.001 {
		t.Errorf("width = %f, expected about 888.889", fp.Width)
	}
	if math.Abs(fp.OffsetX-55.555) > 0.001 || math.Abs(fp.OffsetY) > 1e-9 {
		t.Errorf("offset = %f,%f", fp.OffsetX, fp.OffsetY)
	}
}

var (
	sourceSizes = [][2]int{{1920, 1080}, {1080, 1920}, {640, 480}, {100, 100}, {3000, 200}, {7, 13}}
	targetSizes = [][2]int{{1000, 500}, {500, 300}, {300, 500}, {1, 1}, {333, 333}}
)

func TestFit_PreservesAspectRatio(t *testing.T) {
	for _, src := range sourceSizes {
		for _, dst := range targetSizes {
			fp, err := Fit(src[0], src[1], dst[0], dst[1])
			if err != nil {
				t.Fatalf("Fit(%v, %v) failed: %v", src, dst, err)
			}

			expectedWidth := fp.Height * float64(src[0]) / float64(src[1])
			if math.Abs(math.Round(fp.Width)-math.Round(expectedWidth)) > 1 {
				t.Errorf("Fit(%v, %v): footprint %fx%f breaks aspect ratio", src, dst, fp.Width, fp.Height)
			}
			if fp.Width > float64(dst[0])+1e-9 || fp.Height > float64(dst[1])+1e-9 {
				t.Errorf("Fit(%v, %v): footprint %fx%f overflows canvas", src, dst, fp.Width, fp.Height)
			}
		}
	}
}

func TestMap_InsideSourceStaysInsideCanvas(t *testing.T) {
	legend := DefaultLegend()

	for _, src := range sourceSizes {
		for _, dst := range targetSizes {
			sw, sh := src[0], src[1]
			for _, w := range []int{1, 2, 3, sw / 3, sw} {
				for _, h := range []int{1, 2, 5, sh / 2, sh} {
					if w <= 0 || h <= 0 {
						continue
					}
					// centres that keep the box inside the image, edges included
					for _, x := range []int{(w + 1) / 2, sw / 2, sw - (w+1)/2} {
						for _, y := range []int{(h + 1) / 2, sh / 2, sh - (h+1)/2} {
							if float64(x)-float64(w)/2 < 0 || float64(x)+float64(w)/2 > float64(sw) ||
								float64(y)-float64(h)/2 < 0 || float64(y)+float64(h)/2 > float64(sh) {
								continue
							}
							box := Box{ClassName: "kayak", X: x, Y: y, Width: w, Height: h}
							rect, err := Map(box, sw, sh, dst[0], dst[1], legend)
							if err != nil {
								t.Fatalf("Map(%+v, %v, %v) failed: %v", box, src, dst, err)
							}
							if rect.X < 0 || rect.Y < 0 || rect.X+rect.Width > dst[0] || rect.Y+rect.Height > dst[1] {
								t.Errorf("Map(%+v, %v, %v) = %+v lies outside the canvas", box, src, dst, rect)
							}
						}
					}
				}
			}
		}
	}
}

func TestMap_Deterministic(t *testing.T) {
	box := Box{ClassName: "sailboat", X: 321, Y: 123, Width: 77, Height: 41}

	first, err := Map(box, 1280, 720, 500, 300, DefaultLegend())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		again, _ := Map(box, 1280, 720, 500, 300, DefaultLegend())
		if again != first {
			t.Fatalf("run %d returned %+v, expected %+v", i, again, first)
		}
	}
}

func TestMap_UsesSourceImageDimensions(t *testing.T) {
	// Same relative box on an image twice as large must land on the same rect.
	small := Box{ClassName: "bouy", X: 480, Y: 270, Width: 100, Height: 50}
	large := Box{ClassName: "bouy", X: 960, Y: 540, Width: 200, Height: 100}

	a, err := Map(small, 960, 540, 500, 300, DefaultLegend())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Map(large, 1920, 1080, 500, 300, DefaultLegend())
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("scaled inputs mapped differently: %+v vs %+v", a, b)
	}
}

func TestMap_RejectsInvalidInput(t *testing.T) {
	valid := Box{ClassName: "human", X: 10, Y: 10, Width: 10, Height: 10}

	tests := []struct {
		name   string
		box    Box
		sw, sh int
		tw, th int
	}{
		{"zero source width", valid, 0, 100, 500, 300},
		{"negative source height", valid, 100, -1, 500, 300},
		{"zero target", valid, 100, 100, 0, 300},
		{"zero box width", Box{ClassName: "human", X: 1, Y: 1, Width: 0, Height: 10}, 100, 100, 500, 300},
		{"negative box height", Box{ClassName: "human", X: 1, Y: 1, Width: 10, Height: -5}, 100, 100, 500, 300},
		{"negative position", Box{ClassName: "human", X: -1, Y: 1, Width: 10, Height: 10}, 100, 100, 500, 300},
		{"unknown class", Box{ClassName: "submarine", X: 1, Y: 1, Width: 10, Height: 10}, 100, 100, 500, 300},
	}

	for _, tt := range tests {
		_, err := Map(tt.box, tt.sw, tt.sh, tt.tw, tt.th, DefaultLegend())
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tt.name, err)
		}
	}
}

func TestMap_UnknownClassIsExplicit(t *testing.T) {
	_, err := Map(Box{ClassName: "submarine", X: 5, Y: 5, Width: 2, Height: 2}, 10, 10, 10, 10, DefaultLegend())
	if !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
}

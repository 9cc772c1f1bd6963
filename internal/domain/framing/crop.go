package framing

import (
	"errors"
	"fmt"
	"math"

	"github.com/forPelevin/viralcut/internal/types"
)

// TargetRatio is the width/height of the output clips (portrait 9:16).
const TargetRatio = 9.0 / 16.0

var ErrInvalidFrame = errors.New("invalid frame dimensions")

// PlanCrop returns the source rectangle that reframes a width x height frame
// to TargetRatio. Frames already as narrow as the target are left untouched.
// Coordinates are not rounded; see Even.
func PlanCrop(width, height int) (types.CropRect, error) {
	if width <= 0 || height <= 0 {
		return types.CropRect{}, fmt.Errorf("%w: %dx%d", ErrInvalidFrame, width, height)
	}
	w, h := float64(width), float64(height)
	if w/h <= TargetRatio {
		return types.CropRect{X1: 0, Y1: 0, X2: w, Y2: h}, nil
	}
	newW := h * TargetRatio
	x1 := w/2 - newW/2
	return types.CropRect{X1: x1, Y1: 0, X2: x1 + newW, Y2: h}, nil
}

// Box is a crop in whole pixels as encoders expect it.
type Box struct {
	X, Y, W, H int
}

// Even snaps a crop to even pixel sizes and offsets, which yuv420p encoders
// require. The box is never larger than the rectangle and stays centered on
// it to within a pixel.
func Even(c types.CropRect) Box {
	w := evenDown(c.Width())
	h := evenDown(c.Height())
	x := evenDown(c.X1 + (c.Width()-float64(w))/2)
	y := evenDown(c.Y1 + (c.Height()-float64(h))/2)
	return Box{X: x, Y: y, W: w, H: h}
}

func evenDown(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Floor(v/2)) * 2
}

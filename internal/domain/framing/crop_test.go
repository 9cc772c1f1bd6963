package framing

import (
	"errors"
	"testing"

	"github.com/forPelevin/viralcut/internal/types"
)

func TestPlanCrop_AlreadyPortraitIsNoop(t *testing.T) {
	tests := []struct{ w, h int }{
		{1080, 1920},
		{720, 1280},
		{500, 1920}, // narrower than 9:16
	}
	for _, tt := range tests {
		got, err := PlanCrop(tt.w, tt.h)
		if err != nil {
			t.Fatalf("PlanCrop(%d,%d): %v", tt.w, tt.h, err)
		}
		want := types.CropRect{X1: 0, Y1: 0, X2: float64(tt.w), Y2: float64(tt.h)}
		if got != want {
			t.Fatalf("PlanCrop(%d,%d) = %+v, want full frame", tt.w, tt.h, got)
		}
	}
}

func TestPlanCrop_LandscapeIsCenterCropped(t *testing.T) {
	got, err := PlanCrop(1920, 1080)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width() != 607.5 {
		t.Fatalf("expected width 607.5, got %v", got.Width())
	}
	if got.X1 != 656.25 || got.X2 != 1263.75 {
		t.Fatalf("expected x 656.25..1263.75, got %v..%v", got.X1, got.X2)
	}
	if got.Y1 != 0 || got.Y2 != 1080 {
		t.Fatalf("expected full height, got %v..%v", got.Y1, got.Y2)
	}
}

func TestPlanCrop_InvalidDimensions(t *testing.T) {
	for _, d := range [][2]int{{0, 1080}, {1920, 0}, {-1, 10}} {
		if _, err := PlanCrop(d[0], d[1]); !errors.Is(err, ErrInvalidFrame) {
			t.Fatalf("PlanCrop(%d,%d): expected ErrInvalidFrame, got %v", d[0], d[1], err)
		}
	}
}

func TestEven(t *testing.T) {
	c, _ := PlanCrop(1920, 1080)
	b := Even(c)
	if b.W%2 != 0 || b.H%2 != 0 || b.X%2 != 0 || b.Y%2 != 0 {
		t.Fatalf("expected even box, got %+v", b)
	}
	if b.W != 606 || b.H != 1080 {
		t.Fatalf("unexpected size %+v", b)
	}
	if b.X != 656 {
		t.Fatalf("expected x snapped to 656, got %d", b.X)
	}
	if b.X < 0 || b.X+b.W > 1920 {
		t.Fatalf("box %+v escapes the frame", b)
	}

	full := Even(types.CropRect{X2: 1081, Y2: 1921})
	if full != (Box{X: 0, Y: 0, W: 1080, H: 1920}) {
		t.Fatalf("unexpected full-frame box %+v", full)
	}
}

package captions

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/forPelevin/viralcut/internal/types"
)

const (
	fontSizeRatio = 0.12
	maxWidthRatio = 0.90
	strokeRatio   = 0.08
	minFontSize   = 20
	fontSizeStep  = 5
	canvasPadding = 20
)

var ErrInvalidWidth = errors.New("invalid frame width")

// GeometryPlanner sizes caption cues for a frame width. It holds no state
// besides the resolved font and is safe for concurrent use.
type GeometryPlanner struct {
	metrics Metrics
}

func NewGeometryPlanner(m Metrics) *GeometryPlanner {
	if m == nil {
		m = BitmapMetrics{}
	}
	return &GeometryPlanner{metrics: m}
}

func (p *GeometryPlanner) FontName() string { return p.metrics.Name() }

// FontFamily names the measured font for subtitle styles. Sources without a
// family name fall back to Arial, which libass always substitutes.
func (p *GeometryPlanner) FontFamily() string {
	if f, ok := p.metrics.(interface{ Family() string }); ok && f.Family() != "" {
		return f.Family()
	}
	return "Arial"
}

// Plan picks the largest font size (starting at 12% of the frame width,
// stepping down 5px, never below 20px) at which text fits in 90% of the
// frame width, then derives the outline and canvas around it.
func (p *GeometryPlanner) Plan(text string, frameWidth int) (types.CueGeometry, error) {
	if frameWidth <= 0 {
		return types.CueGeometry{}, fmt.Errorf("%w: %d", ErrInvalidWidth, frameWidth)
	}

	size := roundInt(float64(frameWidth) * fontSizeRatio)
	maxW := roundInt(float64(frameWidth) * maxWidthRatio)

	tw, th := p.metrics.Measure(text, size)
	for tw > maxW && size > minFontSize {
		size = max(size-fontSizeStep, minFontSize)
		tw, th = p.metrics.Measure(text, size)
	}

	stroke := roundInt(float64(size) * strokeRatio)
	canvasH := th + 4*stroke + canvasPadding

	return types.CueGeometry{
		FontSize:     size,
		StrokeWidth:  stroke,
		CanvasWidth:  frameWidth,
		CanvasHeight: canvasH,
		Origin:       image.Pt((frameWidth-tw)/2, (canvasH-th)/2),
	}, nil
}

func roundInt(v float64) int { return int(math.Round(v)) }

package captions

import (
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FontSource is one place a caption font may come from.
type FontSource interface {
	Name() string
	Load() ([]byte, error)
}

// FileFont reads a TrueType/OpenType file from disk.
type FileFont string

func (f FileFont) Name() string          { return string(f) }
func (f FileFont) Load() ([]byte, error) { return os.ReadFile(string(f)) }

// EmbeddedFont is a font compiled into the binary.
type EmbeddedFont struct {
	Label string
	Data  []byte
}

func (e EmbeddedFont) Name() string { return e.Label }

func (e EmbeddedFont) Load() ([]byte, error) {
	if len(e.Data) == 0 {
		return nil, fmt.Errorf("font %s: no data", e.Label)
	}
	return e.Data, nil
}

// GoBold ships with x/image and is always available.
var GoBold = EmbeddedFont{Label: "gobold", Data: gobold.TTF}

// DefaultSources lists configured font files first, then the embedded font.
func DefaultSources(files ...string) []FontSource {
	out := make([]FontSource, 0, len(files)+1)
	for _, f := range files {
		if f != "" {
			out = append(out, FileFont(f))
		}
	}
	return append(out, GoBold)
}

// Metrics measures rendered text in pixels at a given font size.
type Metrics interface {
	Name() string
	Measure(text string, size int) (width, height int)
}

// ResolveFont returns metrics for the first source that loads and parses.
// If none do, a scaled built-in bitmap font is returned, so callers always
// get something usable.
func ResolveFont(sources []FontSource, log zerolog.Logger) Metrics {
	for _, src := range sources {
		b, err := src.Load()
		if err != nil {
			log.Debug().Err(err).Str("font", src.Name()).Msg("font source unavailable")
			continue
		}
		f, err := opentype.Parse(b)
		if err != nil {
			log.Debug().Err(err).Str("font", src.Name()).Msg("font source unparsable")
			continue
		}
		log.Debug().Str("font", src.Name()).Msg("caption font resolved")
		return outlineMetrics{name: src.Name(), font: f}
	}
	log.Warn().Msg("no caption font could be loaded, using built-in bitmap font")
	return BitmapMetrics{}
}

type outlineMetrics struct {
	name string
	font *sfnt.Font
}

func (m outlineMetrics) Name() string { return m.name }

// Family is the font's own family name, which subtitle renderers match on.
func (m outlineMetrics) Family() string {
	fam, err := m.font.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return ""
	}
	return fam
}

// Measure returns the ink bounds of text, like an image library's text bbox.
func (m outlineMetrics) Measure(text string, size int) (int, int) {
	face, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return BitmapMetrics{}.Measure(text, size)
	}
	defer face.Close()

	b, _ := font.BoundString(face, text)
	return (b.Max.X - b.Min.X).Ceil(), (b.Max.Y - b.Min.Y).Ceil()
}

// BitmapMetrics measures with basicfont.Face7x13 scaled linearly from its
// native 13px line height. Low fidelity, but it never fails.
type BitmapMetrics struct{}

func (BitmapMetrics) Name() string { return "basicfont-7x13" }

func (BitmapMetrics) Measure(text string, size int) (int, int) {
	if text == "" || size <= 0 {
		return 0, 0
	}
	face := basicfont.Face7x13
	scale := float64(size) / float64(face.Height)
	adv := font.MeasureString(face, text)
	w := int(math.Ceil(float64(adv) / 64 * scale))
	return w, size
}

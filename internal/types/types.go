package types

import (
	"image"
	"math"
	"sort"
	"strings"
	"time"
)

type Transcript struct {
	Text     string    `json:"text"`
	Words    []Word    `json:"words,omitempty"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

func (w Word) StartDur() time.Duration { return Seconds(w.Start) }
func (w Word) EndDur() time.Duration   { return Seconds(w.End) }

// AllWords returns the word-level timeline. Top-level words win; otherwise
// per-segment words are flattened in segment order. Blank words and words
// ending before they start are dropped; zero-length words are kept, since
// recognisers emit them for short tokens. Order is preserved as received.
func (t Transcript) AllWords() []Word {
	src := t.Words
	if len(src) == 0 {
		for _, s := range t.Segments {
			src = append(src, s.Words...)
		}
	}
	out := make([]Word, 0, len(src))
	for _, w := range src {
		txt := strings.TrimSpace(w.Word)
		if txt == "" || w.End < w.Start {
			continue
		}
		out = append(out, Word{Start: w.Start, End: w.End, Word: txt})
	}
	return out
}

// Candidate is a segment proposed by the ranking step. Boundaries are
// phrases that still have to be resolved against the transcript.
type Candidate struct {
	Title       string
	StartPhrase string
	EndPhrase   string
	Score       int
	Description string
}

type ResolvedSegment struct {
	Start time.Duration
	End   time.Duration
}

func (r ResolvedSegment) Duration() time.Duration { return r.End - r.Start }

// Cue is one caption display unit. RelativeStart is measured from the
// segment start.
type Cue struct {
	Text          string
	RelativeStart time.Duration
	Duration      time.Duration
	Words         []Word
}

func (c Cue) End() time.Duration { return c.RelativeStart + c.Duration }

type CueGeometry struct {
	FontSize     int
	StrokeWidth  int
	CanvasWidth  int
	CanvasHeight int
	// Origin is the top-left corner of the text box inside the canvas.
	Origin image.Point
}

type CropRect struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

func (c CropRect) Width() float64  { return c.X2 - c.X1 }
func (c CropRect) Height() float64 { return c.Y2 - c.Y1 }

type PlannedCue struct {
	Cue      Cue
	Geometry CueGeometry
}

type RenderPlan struct {
	Crop        CropRect
	Cues        []PlannedCue
	Bounds      ResolvedSegment
	Title       string
	Score       int
	Description string
}

// VideoInfo is what the media prober knows about the source.
type VideoInfo struct {
	Width    int
	Height   int
	Duration time.Duration
}

// PublishedClip is the metadata kept for a clip once it has been stored.
type PublishedClip struct {
	ID          string
	RunID       string
	Title       string
	Description string
	Score       int
	Start       time.Duration
	End         time.Duration
	URL         string
	CreatedAt   time.Time
}

type Manifest struct {
	Input string         `json:"input"`
	RunID string         `json:"run_id"`
	Clips []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID          string  `json:"id"`
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	Score       int     `json:"score"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Cues        int     `json:"cues"`
	File        string  `json:"file"`
	Subtitles   string  `json:"subtitles,omitempty"`
	URL         string  `json:"url,omitempty"`
}

// PlanDocument is the JSON shape of render plans printed by `viralcut plan`.
type PlanDocument struct {
	Source PlanSource `json:"source"`
	Plans  []PlanJSON `json:"plans"`
}

type PlanSource struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	DurationSec float64 `json:"duration_sec"`
}

type PlanJSON struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Score       int        `json:"score"`
	StartSec    float64    `json:"start_sec"`
	EndSec      float64    `json:"end_sec"`
	Crop        [4]float64 `json:"crop"`
	Cues        []CueJSON  `json:"cues"`
}

type CueJSON struct {
	Text        string  `json:"text"`
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
	FontSize    int     `json:"font_size"`
	StrokeWidth int     `json:"stroke_width"`
	CanvasW     int     `json:"canvas_w"`
	CanvasH     int     `json:"canvas_h"`
	OriginX     int     `json:"origin_x"`
	OriginY     int     `json:"origin_y"`
}

func NewPlanDocument(src VideoInfo, plans []RenderPlan) PlanDocument {
	doc := PlanDocument{
		Source: PlanSource{Width: src.Width, Height: src.Height, DurationSec: src.Duration.Seconds()},
		Plans:  make([]PlanJSON, 0, len(plans)),
	}
	for _, p := range plans {
		pj := PlanJSON{
			Title:       p.Title,
			Description: p.Description,
			Score:       p.Score,
			StartSec:    p.Bounds.Start.Seconds(),
			EndSec:      p.Bounds.End.Seconds(),
			Crop:        [4]float64{p.Crop.X1, p.Crop.Y1, p.Crop.X2, p.Crop.Y2},
			Cues:        make([]CueJSON, 0, len(p.Cues)),
		}
		for _, pc := range p.Cues {
			pj.Cues = append(pj.Cues, CueJSON{
				Text:        pc.Cue.Text,
				StartSec:    pc.Cue.RelativeStart.Seconds(),
				DurationSec: pc.Cue.Duration.Seconds(),
				FontSize:    pc.Geometry.FontSize,
				StrokeWidth: pc.Geometry.StrokeWidth,
				CanvasW:     pc.Geometry.CanvasWidth,
				CanvasH:     pc.Geometry.CanvasHeight,
				OriginX:     pc.Geometry.Origin.X,
				OriginY:     pc.Geometry.Origin.Y,
			})
		}
		doc.Plans = append(doc.Plans, pj)
	}
	return doc
}

// SortWordsByStart sorts in place, keeping the relative order of words that
// start at the same instant.
func SortWordsByStart(words []Word) {
	sort.SliceStable(words, func(i, j int) bool { return words[i].Start < words[j].Start })
}

// Seconds converts transcript seconds to a Duration, rounded to the nearest
// nanosecond so that millisecond timestamps subtract exactly.
func Seconds(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}

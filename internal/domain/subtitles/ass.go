package subtitles

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/forPelevin/viralcut/internal/domain/framing"
	"github.com/forPelevin/viralcut/internal/types"
)

// captionHeightRatio places the caption centre at this fraction of the
// frame height, in the lower third where faces are rarely framed.
const captionHeightRatio = 0.75

// RenderPlanASS renders the cues of a plan as an ASS script sized to the
// cropped output. Cue times are clip-local, matching a render trimmed at the
// segment start. A plan without cues yields an empty string.
func RenderPlanASS(plan types.RenderPlan, fontName string) string {
	if len(plan.Cues) == 0 {
		return ""
	}
	box := framing.Even(plan.Crop)
	if fontName == "" {
		fontName = "Arial"
	}

	var b strings.Builder
	b.WriteString(assHeader(box.W, box.H, fontName))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	x := box.W / 2
	y := int(math.Round(float64(box.H) * captionHeightRatio))
	for _, pc := range plan.Cues {
		c := pc.Cue
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(c.RelativeStart))
		b.WriteString(",")
		b.WriteString(assTime(c.End()))
		b.WriteString(",Caption,,0,0,0,,")
		fmt.Fprintf(&b, "{\\an5\\pos(%d,%d)\\fs%d\\bord%d}", x, y, pc.Geometry.FontSize, pc.Geometry.StrokeWidth)
		b.WriteString(karaoke(c, plan.Bounds.Start))
		b.WriteString("\n")
	}
	return b.String()
}

// karaoke highlights the words of a cue one by one. Without word timing the
// plain cue text is used. Centiseconds are taken from each word's end
// position within the cue, so the \k values add up to the cue length.
func karaoke(c types.Cue, segStart time.Duration) string {
	if len(c.Words) == 0 {
		return sanitizeASS(c.Text)
	}
	parts := make([]string, 0, len(c.Words))
	done := 0
	for i, w := range c.Words {
		end := c.End()
		if i+1 < len(c.Words) {
			end = c.Words[i+1].StartDur() - segStart
		}
		pos := int(math.Round(float64(end-c.RelativeStart) / float64(10*time.Millisecond)))
		cs := max(pos-done, 1)
		done += cs
		parts = append(parts, fmt.Sprintf("{\\k%d}%s", cs, sanitizeASS(strings.ToUpper(w.Word))))
	}
	return strings.Join(parts, " ")
}

func assHeader(w, h int, fontName string) string {
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes
WrapStyle: 2

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, %s, 72, &H0000FFFF, &H00FFFFFF, &H00000000, &H00000000, 1,0,0,0,100,100,0,0,1,6,0,5, 0,0,0,1
`, w, h, fontName))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

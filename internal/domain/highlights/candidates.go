package highlights

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/viralcut/internal/types"
)

const (
	fallbackMinClip = 15 * time.Second
	fallbackMaxClip = 60 * time.Second
	phraseWords     = 3
)

// FallbackCandidates builds up to n non-overlapping candidates straight from
// the transcript when the ranking model returns nothing usable. Windows are
// grown over whole transcript segments, scored with Score, and described by
// their first and last words so they go through the same resolution path as
// model output.
func FallbackCandidates(tr types.Transcript, n int) []types.Candidate {
	if n <= 0 {
		return nil
	}
	words := tr.AllWords()
	if len(words) == 0 {
		return nil
	}

	type window struct {
		start, end time.Duration
		first      []string
		last       []string
		text       string
		score      float64
	}

	segs := tr.Segments
	var wins []window
	for i := 0; i < len(segs); i++ {
		start := types.Seconds(segs[i].Start)
		for j := i; j < len(segs); j++ {
			end := types.Seconds(segs[j].End)
			if end-start > fallbackMaxClip {
				break
			}
			if end-start < fallbackMinClip {
				continue
			}
			in := wordsWithin(words, start, end)
			if len(in) == 0 {
				continue
			}
			text := joinWords(in)
			info, hook := Score(text)
			wins = append(wins, window{
				start: start,
				end:   end,
				first: leadingPhrase(in),
				last:  trailingPhrase(in),
				text:  text,
				score: info + hook,
			})
		}
	}

	// Prefer higher scores, then earlier windows.
	sort.SliceStable(wins, func(a, b int) bool {
		if wins[a].score == wins[b].score {
			return wins[a].start < wins[b].start
		}
		return wins[a].score > wins[b].score
	})

	picked := make([]window, 0, n)
	for _, w := range wins {
		if len(picked) >= n {
			break
		}
		overlaps := false
		for _, p := range picked {
			if w.start < p.end && w.end > p.start {
				overlaps = true
				break
			}
		}
		if overlaps || len(w.first) == 0 || len(w.last) == 0 {
			continue
		}
		picked = append(picked, w)
	}
	sort.Slice(picked, func(a, b int) bool { return picked[a].start < picked[b].start })

	out := make([]types.Candidate, 0, len(picked))
	for _, w := range picked {
		out = append(out, types.Candidate{
			Title:       "Highlight",
			StartPhrase: strings.Join(w.first, " "),
			EndPhrase:   strings.Join(w.last, " "),
			Score:       scoreToRank(w.score),
			Description: truncateWords(w.text, 20),
		})
	}
	return out
}

func wordsWithin(words []types.Word, start, end time.Duration) []types.Word {
	var out []types.Word
	for _, w := range words {
		if w.StartDur() >= start && w.EndDur() <= end {
			out = append(out, w)
		}
	}
	return out
}

func joinWords(words []types.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Word)
	}
	return strings.Join(parts, " ")
}

// leadingPhrase returns up to phraseWords folded tokens taken from
// consecutive words at the start of the window. Words with nothing left after
// folding are skipped before the run starts and end it otherwise, because
// Resolve matches tokens against adjacent words.
func leadingPhrase(words []types.Word) []string {
	var out []string
	for _, w := range words {
		t := fold(w.Word)
		if t == "" {
			if len(out) > 0 {
				break
			}
			continue
		}
		out = append(out, t)
		if len(out) == phraseWords {
			break
		}
	}
	return out
}

// trailingPhrase is leadingPhrase read from the end of the window.
func trailingPhrase(words []types.Word) []string {
	var out []string
	for i := len(words) - 1; i >= 0; i-- {
		t := fold(words[i].Word)
		if t == "" {
			if len(out) > 0 {
				break
			}
			continue
		}
		out = append([]string{t}, out...)
		if len(out) == phraseWords {
			break
		}
	}
	return out
}

// scoreToRank maps the heuristic into the 1..10 scale the ranking model uses.
func scoreToRank(s float64) int {
	return int(clamp(math.Round(1+s), 1, 10))
}

func truncateWords(s string, n int) string {
	f := strings.Fields(s)
	if len(f) <= n {
		return s
	}
	return strings.Join(f[:n], " ") + "..."
}

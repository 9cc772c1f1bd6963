package captions

import (
	"strings"
	"time"

	"github.com/forPelevin/viralcut/internal/types"
)

const (
	DefaultBucketSize = 2
	// MinCueDuration keeps very fast speech on screen long enough to read.
	MinCueDuration = 300 * time.Millisecond
)

// Bucketize groups the words of one segment into caption cues of bucketSize
// words. Words are expected to already be limited to the segment; they are
// stable-sorted by start time here.
//
// Each cue lasts until the next cue starts, and the last cue until its last
// word ends, so consecutive cues neither overlap nor leave gaps. The only
// exception is MinCueDuration: a cue shorter than that is stretched, and then
// it overlaps the next one.
func Bucketize(words []types.Word, segmentStart time.Duration, bucketSize int) []types.Cue {
	if len(words) == 0 {
		return nil
	}
	if bucketSize <= 0 {
		bucketSize = DefaultBucketSize
	}

	sorted := make([]types.Word, len(words))
	copy(sorted, words)
	types.SortWordsByStart(sorted)

	cues := make([]types.Cue, 0, (len(sorted)+bucketSize-1)/bucketSize)
	for j := 0; j < len(sorted); j += bucketSize {
		chunk := sorted[j:min(j+bucketSize, len(sorted))]

		rel := max(0, chunk[0].StartDur()-segmentStart)

		var end time.Duration
		if j+bucketSize < len(sorted) {
			end = sorted[j+bucketSize].StartDur() - segmentStart
		} else {
			end = chunk[len(chunk)-1].EndDur() - segmentStart
		}
		d := max(end-rel, MinCueDuration)

		cues = append(cues, types.Cue{
			Text:          cueText(chunk),
			RelativeStart: rel,
			Duration:      d,
			Words:         chunk,
		})
	}
	return cues
}

func cueText(words []types.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, strings.TrimSpace(w.Word))
	}
	return strings.ToUpper(strings.Join(parts, " "))
}

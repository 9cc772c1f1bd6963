package clips

import (
	"time"

	"github.com/forPelevin/viralcut/internal/domain/highlights"
	"github.com/forPelevin/viralcut/internal/types"
)

const (
	MinScore      = 1
	MinSegmentLen = 2 * time.Second
	// endMargin keeps a clamped end just inside the source.
	endMargin = 100 * time.Millisecond
)

// Rejection explains why a candidate was dropped. Empty means accepted.
type Rejection string

const (
	RejectLowScore   Rejection = "low score"
	RejectUnresolved Rejection = "boundary phrase not found"
	RejectInverted   Rejection = "start not before end"
	RejectTooShort   Rejection = "shorter than minimum"
)

// Accept resolves a candidate against the transcript and validates the
// result. duration is the source length; zero means unknown and disables the
// end clamp.
func Accept(words []types.Word, c types.Candidate, duration time.Duration) (types.ResolvedSegment, Rejection) {
	if c.Score < MinScore {
		return types.ResolvedSegment{}, RejectLowScore
	}

	r := highlights.Resolve(words, c.StartPhrase, c.EndPhrase)
	if !r.OK() {
		return types.ResolvedSegment{}, RejectUnresolved
	}

	seg := types.ResolvedSegment{Start: r.Start, End: r.End}
	if duration > 0 && seg.End > duration {
		seg.End = duration - endMargin
	}
	if seg.Start >= seg.End {
		return types.ResolvedSegment{}, RejectInverted
	}
	if seg.Duration() < MinSegmentLen {
		return types.ResolvedSegment{}, RejectTooShort
	}
	return seg, ""
}

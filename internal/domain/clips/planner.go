package clips

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/viralcut/internal/domain/captions"
	"github.com/forPelevin/viralcut/internal/domain/framing"
	"github.com/forPelevin/viralcut/internal/types"
)

type Options struct {
	// BucketSize is the number of words per caption cue.
	BucketSize int
	// Workers bounds how many segments are planned at once. 1 plans
	// strictly in order.
	Workers int
}

// Planner turns ranked candidates into render plans for one source video.
type Planner struct {
	geom *captions.GeometryPlanner
	opts Options
	log  zerolog.Logger
}

func NewPlanner(geom *captions.GeometryPlanner, opts Options, log zerolog.Logger) *Planner {
	if opts.BucketSize <= 0 {
		opts.BucketSize = captions.DefaultBucketSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Planner{geom: geom, opts: opts, log: log}
}

type job struct {
	cand types.Candidate
	seg  types.ResolvedSegment
}

// Plan produces one render plan per accepted candidate, in candidate order.
//
// Bad candidates are dropped, never reported as errors. An error is returned
// only for an invalid source description, or when ctx ends; in the latter
// case the plans completed so far are returned alongside ctx.Err().
func (p *Planner) Plan(ctx context.Context, tr types.Transcript, cands []types.Candidate, src types.VideoInfo) ([]types.RenderPlan, error) {
	if src.Duration < 0 {
		return nil, fmt.Errorf("%w: negative duration %s", framing.ErrInvalidFrame, src.Duration)
	}
	crop, err := framing.PlanCrop(src.Width, src.Height)
	if err != nil {
		return nil, err
	}
	frameW := int(math.Round(crop.Width()))

	words := tr.AllWords()
	jobs := make([]job, 0, len(cands))
	for i, c := range cands {
		seg, why := Accept(words, c, src.Duration)
		if why != "" {
			p.log.Debug().Int("idx", i).Str("title", c.Title).Str("reason", string(why)).Msg("candidate rejected")
			continue
		}
		jobs = append(jobs, job{cand: c, seg: seg})
	}
	p.log.Info().Int("candidates", len(cands)).Int("accepted", len(jobs)).Msg("candidates resolved")

	results := make([]*types.RenderPlan, len(jobs))
	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			plan, err := p.planSegment(words, j, crop, frameW)
			if err != nil {
				p.log.Warn().Err(err).Str("title", j.cand.Title).Msg("segment planning failed")
				return nil
			}
			results[i] = &plan
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.RenderPlan, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func (p *Planner) planSegment(words []types.Word, j job, crop types.CropRect, frameW int) (types.RenderPlan, error) {
	plan := types.RenderPlan{
		Crop:        crop,
		Bounds:      j.seg,
		Title:       j.cand.Title,
		Score:       j.cand.Score,
		Description: j.cand.Description,
	}

	in := make([]types.Word, 0, 64)
	for _, w := range words {
		if w.StartDur() >= j.seg.Start && w.EndDur() <= j.seg.End {
			in = append(in, w)
		}
	}
	// Silence: the clip is still produced, just without captions.
	if len(in) == 0 {
		return plan, nil
	}

	cues := captions.Bucketize(in, j.seg.Start, p.opts.BucketSize)
	plan.Cues = make([]types.PlannedCue, 0, len(cues))
	var errs []error
	for _, c := range cues {
		g, err := p.geom.Plan(c.Text, frameW)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		plan.Cues = append(plan.Cues, types.PlannedCue{Cue: c, Geometry: g})
	}
	if len(errs) > 0 {
		return types.RenderPlan{}, fmt.Errorf("plan captions for %q: %w", j.cand.Title, errors.Join(errs...))
	}
	return plan, nil
}

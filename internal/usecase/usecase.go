package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/forPelevin/viralcut/internal/domain/clips"
	"github.com/forPelevin/viralcut/internal/domain/highlights"
	"github.com/forPelevin/viralcut/internal/domain/subtitles"
	"github.com/forPelevin/viralcut/internal/ports"
	"github.com/forPelevin/viralcut/internal/types"
)

type Deps struct {
	Video    ports.VideoTool
	ASR      ports.ASR
	Analyzer ports.Analyzer
	// Publisher is optional; without it clips stay in the run directory only.
	Publisher ports.Publisher
	Planner   *clips.Planner
	// FontName is written into subtitle styles.
	FontName string
	Log      zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	InputMP4      string
	RunID         string
	MaxClips      int
	BurnSubtitles bool
	CacheDir      string
	OutDir        string
}

type Result struct {
	Manifest types.Manifest
}

// Run processes one video: transcribe, rank, plan, then render and publish
// each planned clip. A clip that fails to render or publish is logged and
// skipped; only failures before planning, or cancellation, abort the run.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log.With().Str("run_id", in.RunID).Logger()

	info, err := u.d.Video.ProbeVideo(ctx, in.InputMP4)
	if err != nil {
		return Result{}, fmt.Errorf("probe input: %w", err)
	}
	log.Info().Int("width", info.Width).Int("height", info.Height).Dur("duration", info.Duration).Msg("probed input")

	wav := filepath.Join(in.CacheDir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.InputMP4, wav); err != nil {
		return Result{}, err
	}

	tr, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	if err := writeJSON(filepath.Join(in.OutDir, "transcript.json"), tr); err != nil {
		return Result{}, err
	}

	cands, err := u.d.Analyzer.Analyze(ctx, tr, in.MaxClips)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Warn().Err(err).Msg("analysis failed, using transcript fallback")
		cands = highlights.FallbackCandidates(tr, in.MaxClips)
	}
	if err := writeJSON(filepath.Join(in.OutDir, "candidates.json"), candidatesDoc(cands)); err != nil {
		return Result{}, err
	}

	plans, err := u.d.Planner.Plan(ctx, tr, cands, info)
	if err != nil {
		return Result{}, fmt.Errorf("plan clips: %w", err)
	}

	clipsDir := filepath.Join(in.OutDir, "clips")
	subsDir := filepath.Join(in.OutDir, "subtitles")
	for _, d := range []string{clipsDir, subsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Result{}, err
		}
	}

	m := types.Manifest{Input: in.InputMP4, RunID: in.RunID, Clips: make([]types.ManifestClip, 0, len(plans))}
	for i, plan := range plans {
		id := fmt.Sprintf("%03d", i+1)
		clip, err := u.produce(ctx, log, in, id, plan)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Manifest: m}, ctx.Err()
			}
			log.Warn().Err(err).Str("clip", id).Str("title", plan.Title).Msg("clip failed")
			continue
		}
		m.Clips = append(m.Clips, clip)
	}
	log.Info().Int("planned", len(plans)).Int("produced", len(m.Clips)).Msg("run finished")
	return Result{Manifest: m}, nil
}

func (u Usecase) produce(ctx context.Context, log zerolog.Logger, in Input, id string, plan types.RenderPlan) (types.ManifestClip, error) {
	clipRel := filepath.Join("clips", id+".mp4")
	clipPath := filepath.Join(in.OutDir, clipRel)

	var assRel, assPath string
	if in.BurnSubtitles && len(plan.Cues) > 0 {
		assRel = filepath.Join("subtitles", id+".ass")
		assPath = filepath.Join(in.OutDir, assRel)
		if err := os.WriteFile(assPath, []byte(subtitles.RenderPlanASS(plan, u.d.FontName)), 0o644); err != nil {
			return types.ManifestClip{}, fmt.Errorf("write subtitles: %w", err)
		}
	}

	if err := u.d.Video.RenderClip(ctx, in.InputMP4, plan, assPath, clipPath); err != nil {
		return types.ManifestClip{}, err
	}
	log.Info().Str("clip", id).Str("title", plan.Title).Int("cues", len(plan.Cues)).Msg("clip rendered")

	mc := types.ManifestClip{
		ID:          id,
		StartSec:    plan.Bounds.Start.Seconds(),
		EndSec:      plan.Bounds.End.Seconds(),
		Score:       plan.Score,
		Title:       plan.Title,
		Description: plan.Description,
		Cues:        len(plan.Cues),
		File:        filepath.ToSlash(clipRel),
		Subtitles:   filepath.ToSlash(assRel),
	}

	if u.d.Publisher != nil {
		url, err := u.d.Publisher.Publish(ctx, types.PublishedClip{
			RunID:       in.RunID,
			Title:       plan.Title,
			Description: plan.Description,
			Score:       plan.Score,
			Start:       plan.Bounds.Start,
			End:         plan.Bounds.End,
		}, clipPath)
		if err != nil {
			if ctx.Err() != nil {
				return types.ManifestClip{}, ctx.Err()
			}
			// The rendered file is still useful locally.
			log.Warn().Err(err).Str("clip", id).Msg("publish failed")
		}
		mc.URL = url
	}
	return mc, nil
}

// CandidateJSON is the on-disk form of a ranked candidate, shared with the
// plan command.
type CandidateJSON struct {
	Title       string `json:"title"`
	StartText   string `json:"start_text"`
	EndText     string `json:"end_text"`
	Score       int    `json:"score"`
	Description string `json:"viral_description"`
}

func candidatesDoc(cands []types.Candidate) map[string][]CandidateJSON {
	out := make([]CandidateJSON, 0, len(cands))
	for _, c := range cands {
		out = append(out, CandidateJSON{
			Title:       c.Title,
			StartText:   c.StartPhrase,
			EndText:     c.EndPhrase,
			Score:       c.Score,
			Description: c.Description,
		})
	}
	return map[string][]CandidateJSON{"clips": out}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

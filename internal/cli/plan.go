package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/viralcut/internal/domain/highlights"
	"github.com/forPelevin/viralcut/internal/pipeline"
	"github.com/forPelevin/viralcut/internal/types"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print render plans for a transcript and ranked candidates as JSON",
		Long: "Runs only the planning core: resolves candidate phrases against the transcript,\n" +
			"buckets captions, sizes them and plans the vertical crop. No external tools are needed.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runPlan,
	}
	cmd.Flags().String("transcript", "", "Transcript JSON (text, words, segments)")
	cmd.Flags().String("candidates", "", `Candidates JSON ({"clips":[...]})`)
	cmd.Flags().Int("width", 0, "Source frame width")
	cmd.Flags().Int("height", 0, "Source frame height")
	cmd.Flags().Float64("duration", 0, "Source duration in seconds (0 = unknown)")
	cmd.Flags().Int("bucket", 0, "Words per caption cue")
	_ = cmd.MarkFlagRequired("transcript")
	_ = cmd.MarkFlagRequired("candidates")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	trPath, _ := cmd.Flags().GetString("transcript")
	candPath, _ := cmd.Flags().GetString("candidates")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	durSec, _ := cmd.Flags().GetFloat64("duration")
	if v, _ := cmd.Flags().GetInt("bucket"); v > 0 {
		cfg.Captions.BucketSize = v
	}
	if durSec < 0 {
		return errors.New("duration must be >= 0")
	}

	tb, err := os.ReadFile(trPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	var tr types.Transcript
	if err := json.Unmarshal(tb, &tr); err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}
	cb, err := os.ReadFile(candPath)
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}
	cands := highlights.DecodeCandidates(cb)

	src := types.VideoInfo{Width: width, Height: height, Duration: types.Seconds(durSec)}
	planner, _ := pipeline.NewPlanner(cfg.Captions.FontFiles, cfg.Captions.BucketSize, cfg.Planner.Workers, logger)
	plans, err := planner.Plan(cmd.Context(), tr, cands, src)
	if err != nil {
		return err
	}
	logger.Info().Int("candidates", len(cands)).Int("plans", len(plans)).Dur("source", src.Duration.Round(time.Millisecond)).Msg("planned")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(types.NewPlanDocument(src, plans))
}

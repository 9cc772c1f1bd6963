package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forPelevin/viralcut/internal/config"
	"github.com/forPelevin/viralcut/internal/logging"
	"github.com/forPelevin/viralcut/internal/pipeline"
	"github.com/forPelevin/viralcut/internal/ports/adapters/openrouter"
)

func run(cmd *cobra.Command, input string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("out"); v != "" {
		cfg.OutDir = v
	}
	if v, _ := cmd.Flags().GetInt("clips"); v > 0 {
		cfg.LLM.MaxClips = v
	}
	if v, _ := cmd.Flags().GetInt("bucket"); v > 0 {
		cfg.Captions.BucketSize = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.Planner.Workers = v
	}
	noSubs, _ := cmd.Flags().GetBool("no-subs")
	publish, _ := cmd.Flags().GetBool("publish")

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	pcfg := pipeline.Config{
		InputMP4:      absIn,
		OutDir:        cfg.OutDir,
		CacheDir:      cfg.CacheDir,
		MaxClips:      cfg.LLM.MaxClips,
		BurnSubtitles: !noSubs,
		Log:           logger,

		BucketSize: cfg.Captions.BucketSize,
		Workers:    cfg.Planner.Workers,
		FontFiles:  cfg.Captions.FontFiles,

		FFmpegPath:  cfg.Tools.FFmpeg,
		FFprobePath: cfg.Tools.FFprobe,

		WhisperBin:   cfg.Tools.WhisperBin,
		WhisperModel: cfg.Tools.WhisperModel,

		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:        getenvDefault("OPENROUTER_MODEL", cfg.LLM.Model),
		OpenRouterBaseURL:      getenvDefault("OPENROUTER_BASE_URL", cfg.LLM.BaseURL),
		OpenRouterAllowedHosts: cfg.LLM.AllowedHosts,

		Publish:    publish,
		StoreDB:    cfg.Store.Database,
		LibraryDir: cfg.Store.LibraryDir,
	}
	if hosts := openrouter.ParseAllowedHosts(os.Getenv("OPENROUTER_ALLOWED_HOSTS")); len(hosts) > 0 {
		pcfg.OpenRouterAllowedHosts = hosts
	}

	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, pcfg)
}

// setup loads the config file and initialises logging for any subcommand.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logging.Init(verbose)

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	return cfg, log.Logger, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/viralcut/internal/domain/captions"
	"github.com/forPelevin/viralcut/internal/domain/clips"
	"github.com/forPelevin/viralcut/internal/logging"
	"github.com/forPelevin/viralcut/internal/ports"
	"github.com/forPelevin/viralcut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/viralcut/internal/ports/adapters/openrouter"
	"github.com/forPelevin/viralcut/internal/ports/adapters/sqlitestore"
	"github.com/forPelevin/viralcut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/viralcut/internal/usecase"
)

type Config struct {
	InputMP4      string
	OutDir        string
	MaxClips      int
	BurnSubtitles bool
	Log           zerolog.Logger

	// CacheDir is the base directory for local artifacts (audio, transcripts, etc.).
	// If empty, defaults to ".cache".
	CacheDir string

	BucketSize int
	Workers    int
	FontFiles  []string

	FFmpegPath  string
	FFprobePath string

	WhisperBin   string
	WhisperModel string

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string

	// Publish stores every rendered clip in the library and its database.
	Publish    bool
	StoreDB    string
	LibraryDir string
}

func (c Config) Validate() error {
	if c.InputMP4 == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.InputMP4); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.MaxClips <= 0 {
		return fmt.Errorf("clips must be > 0")
	}
	if c.BucketSize < 0 {
		return fmt.Errorf("bucket size must be >= 0")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if c.WhisperModel == "" {
		return fmt.Errorf("whisper model path is required")
	}
	if c.OpenRouterAPIKey == "" {
		return errors.New("OPENROUTER_API_KEY is required (set it in .env)")
	}
	if c.Publish && (c.StoreDB == "" || c.LibraryDir == "") {
		return errors.New("publishing needs a store database and a library dir")
	}
	return openrouter.ValidateBaseURL(
		c.OpenRouterBaseURL,
		c.OpenRouterAllowedHosts,
	)
}

// NewPlanner resolves the caption font and builds the clip planner shared by
// the full run and the plan command.
func NewPlanner(fontFiles []string, bucketSize, workers int, log zerolog.Logger) (*clips.Planner, *captions.GeometryPlanner) {
	metrics := captions.ResolveFont(captions.DefaultSources(fontFiles...), logging.WithComponent(log, "fonts"))
	geom := captions.NewGeometryPlanner(metrics)
	p := clips.NewPlanner(geom, clips.Options{BucketSize: bucketSize, Workers: workers}, logging.WithComponent(log, "planner"))
	return p, geom
}

func Run(ctx context.Context, cfg Config) error {
	log := cfg.Log
	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()

	// adapters
	v := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, log)
	asr := whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, log)
	llm := openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL, log)
	planner, geom := NewPlanner(cfg.FontFiles, cfg.BucketSize, cfg.Workers, log)

	deps := usecase.Deps{
		Video:    v,
		ASR:      asr,
		Analyzer: llm,
		Planner:  planner,
		FontName: geom.FontFamily(),
		Log:      log,
	}
	if cfg.Publish {
		store, err := sqlitestore.Open(cfg.StoreDB, cfg.LibraryDir, log)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		deps.Publisher = store
	}

	uc := usecase.New(deps)

	jobID := hash(cfg.InputMP4)
	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", jobID)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	log.Debug().Str("cache", cacheDir).Msg("workspace ready")

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.InputMP4, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return err
	}
	log.Info().Str("dir", runOutDir).Str("font", geom.FontName()).Msg("output run dir")

	res, err := uc.Run(ctx, usecase.Input{
		InputMP4:      cfg.InputMP4,
		RunID:         runID,
		MaxClips:      cfg.MaxClips,
		BurnSubtitles: cfg.BurnSubtitles,
		CacheDir:      cacheDir,
		OutDir:        runOutDir,
	})
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	log.Info().Int("clips", len(res.Manifest.Clips)).Str("path", manifestPath).Msg("manifest written")
	return nil
}

func buildRunOutDir(outRoot, inputMP4 string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(inputMP4), filepath.Ext(inputMP4))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", inputMP4, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.Analyzer = (*openrouter.Adapter)(nil)
var _ ports.Publisher = (*sqlitestore.Store)(nil)

package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/viralcut/internal/domain/framing"
	"github.com/forPelevin/viralcut/internal/logging"
	"github.com/forPelevin/viralcut/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	log     zerolog.Logger
}

func New(ffmpegPath, ffprobePath string, log zerolog.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		log:     logging.WithComponent(log, "ffmpeg"),
	}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error {
	return a.run(ctx, "extract audio",
		"-y",
		"-i", inMP4,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
}

// ProbeVideo reads the first video stream's size and the container duration.
// A missing duration is reported as zero.
func (a *Adapter) ProbeVideo(ctx context.Context, inMP4 string) (types.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	return parseProbe(b)
}

func (a *Adapter) RenderClip(ctx context.Context, inMP4 string, plan types.RenderPlan, assPath, outMP4 string) error {
	args := []string{
		"-y",
		"-ss", fmtSeconds(plan.Bounds.Start),
		"-to", fmtSeconds(plan.Bounds.End),
		"-i", inMP4,
		"-vf", videoFilter(plan.Crop, assPath),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		outMP4,
	}
	return a.run(ctx, "render clip", args...)
}

func (a *Adapter) run(ctx context.Context, what string, args ...string) error {
	a.log.Debug().Str("op", what).Strs("args", args).Msg("executing ffmpeg")
	start := time.Now()
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg %s: %w\n%s", what, err, string(b))
	}
	a.log.Debug().Str("op", what).Dur("took", time.Since(start)).Msg("ffmpeg done")
	return nil
}

// videoFilter crops to the planned rectangle, snapped for the encoder, and
// burns subtitles on the cropped frame so ASS coordinates match the output.
func videoFilter(crop types.CropRect, assPath string) string {
	box := framing.Even(crop)
	f := fmt.Sprintf("crop=%d:%d:%d:%d", box.W, box.H, box.X, box.Y)
	if assPath != "" {
		f += ",subtitles=" + escapeFilterPath(assPath)
	}
	return f
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func parseProbe(b []byte) (types.VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(b, &probe); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	var info types.VideoInfo
	for _, s := range probe.Streams {
		if s.CodecType == "video" {
			info.Width, info.Height = s.Width, s.Height
			break
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return types.VideoInfo{}, fmt.Errorf("%w: no video stream with dimensions", framing.ErrInvalidFrame)
	}
	if d := strings.TrimSpace(probe.Format.Duration); d != "" {
		sec, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return types.VideoInfo{}, fmt.Errorf("parse duration %q: %w", d, err)
		}
		info.Duration = types.Seconds(sec)
	}
	return info, nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}

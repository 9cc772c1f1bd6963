package ports

import (
	"context"

	"github.com/forPelevin/viralcut/internal/types"
)

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error
	ProbeVideo(ctx context.Context, inMP4 string) (types.VideoInfo, error)
	// RenderClip cuts plan.Bounds out of inMP4, crops it to plan.Crop and
	// burns assPath in when it is not empty.
	RenderClip(ctx context.Context, inMP4 string, plan types.RenderPlan, assPath, outMP4 string) error
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

// Analyzer proposes up to maxClips candidate segments for a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, tr types.Transcript, maxClips int) ([]types.Candidate, error)
}

// Publisher stores a rendered clip and returns where it can be fetched.
type Publisher interface {
	Publish(ctx context.Context, clip types.PublishedClip, filePath string) (string, error)
}

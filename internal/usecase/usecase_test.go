package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/viralcut/internal/domain/captions"
	"github.com/forPelevin/viralcut/internal/domain/clips"
	"github.com/forPelevin/viralcut/internal/domain/highlights"
	"github.com/forPelevin/viralcut/internal/types"
)

func TestRun_BurnSubtitlesToggle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		burnSubtitles bool
	}{
		{name: "disabled", burnSubtitles: false},
		{name: "enabled", burnSubtitles: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tmp := t.TempDir()
			outDir := filepath.Join(tmp, "out")
			video := &fakeVideoTool{}
			uc := New(testDeps(video, fakeAnalyzer{cands: []types.Candidate{
				{Title: "t", StartPhrase: "hello world", EndPhrase: "again", Score: 8, Description: "d"},
			}}, nil))

			res, err := uc.Run(context.Background(), Input{
				InputMP4:      filepath.Join(tmp, "in.mp4"),
				RunID:         "run-1",
				MaxClips:      1,
				BurnSubtitles: tc.burnSubtitles,
				CacheDir:      filepath.Join(tmp, "cache"),
				OutDir:        outDir,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(video.renderASS) != 1 {
				t.Fatalf("expected 1 rendered clip, got %d", len(video.renderASS))
			}
			if len(res.Manifest.Clips) != 1 {
				t.Fatalf("expected 1 clip in manifest, got %d", len(res.Manifest.Clips))
			}
			mc := res.Manifest.Clips[0]
			if mc.Cues == 0 || mc.Score != 8 || mc.Description != "d" || mc.File != "clips/001.mp4" {
				t.Fatalf("unexpected manifest clip %+v", mc)
			}

			subtitlesPath := filepath.Join(outDir, "subtitles", "001.ass")
			if tc.burnSubtitles {
				if !strings.HasSuffix(video.renderASS[0], filepath.Join("subtitles", "001.ass")) {
					t.Fatalf("unexpected ASS path: %q", video.renderASS[0])
				}
				if mc.Subtitles != "subtitles/001.ass" {
					t.Fatalf("unexpected manifest subtitles path: %q", mc.Subtitles)
				}
				b, err := os.ReadFile(subtitlesPath)
				if err != nil {
					t.Fatalf("read subtitles: %v", err)
				}
				if !strings.Contains(string(b), "HELLO") || !strings.Contains(string(b), "PlayResX: 606") {
					t.Fatalf("subtitles do not match the plan:\n%s", b)
				}
				return
			}

			if video.renderASS[0] != "" {
				t.Fatalf("expected empty ASS path, got %q", video.renderASS[0])
			}
			if mc.Subtitles != "" {
				t.Fatalf("expected empty manifest subtitles path, got %q", mc.Subtitles)
			}
			if _, err := os.Stat(subtitlesPath); !os.IsNotExist(err) {
				t.Fatalf("expected no subtitle file, stat err=%v", err)
			}
		})
	}
}

func TestRun_KeepsCandidateOrderAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	video := &fakeVideoTool{failTitle: "broken"}
	pub := &fakePublisher{failTitle: "unpublished"}
	uc := New(testDeps(video, fakeAnalyzer{cands: []types.Candidate{
		{Title: "late", StartPhrase: "w10", EndPhrase: "w19", Score: 6},
		{Title: "broken", StartPhrase: "w00", EndPhrase: "w05", Score: 7},
		{Title: "rejected", StartPhrase: "nowhere", EndPhrase: "w05", Score: 9},
		{Title: "unpublished", StartPhrase: "hello", EndPhrase: "again", Score: 5},
	}}, pub))

	res, err := uc.Run(context.Background(), Input{
		InputMP4: filepath.Join(tmp, "in.mp4"),
		RunID:    "run-2",
		MaxClips: 4,
		CacheDir: filepath.Join(tmp, "cache"),
		OutDir:   filepath.Join(tmp, "out"),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(video.renderTitles) != 3 {
		t.Fatalf("expected 3 render attempts, got %v", video.renderTitles)
	}
	got := make([]string, 0, len(res.Manifest.Clips))
	for _, c := range res.Manifest.Clips {
		got = append(got, c.Title)
	}
	if strings.Join(got, ",") != "late,unpublished" {
		t.Fatalf("expected [late unpublished] in candidate order, got %v", got)
	}
	if res.Manifest.Clips[0].ID != "001" || res.Manifest.Clips[1].ID != "003" {
		t.Fatalf("ids should follow plan positions, got %s and %s", res.Manifest.Clips[0].ID, res.Manifest.Clips[1].ID)
	}
	if res.Manifest.Clips[0].URL != "mem://late" {
		t.Fatalf("expected published url, got %q", res.Manifest.Clips[0].URL)
	}
	if res.Manifest.Clips[1].URL != "" {
		t.Fatalf("failed publish must leave url empty, got %q", res.Manifest.Clips[1].URL)
	}
	if res.Manifest.RunID != "run-2" || pub.runIDs[0] != "run-2" {
		t.Fatalf("run id not propagated")
	}
}

func TestRun_AnalyzerErrorFallsBack(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	video := &fakeVideoTool{}
	uc := New(testDeps(video, fakeAnalyzer{err: errors.New("boom")}, nil))

	res, err := uc.Run(context.Background(), Input{
		InputMP4: filepath.Join(tmp, "in.mp4"),
		MaxClips: 2,
		CacheDir: filepath.Join(tmp, "cache"),
		OutDir:   filepath.Join(tmp, "out"),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := len(highlights.FallbackCandidates(testTranscript(), 2))
	if want == 0 {
		t.Fatalf("fixture should produce fallback candidates")
	}
	if len(res.Manifest.Clips) != want {
		t.Fatalf("expected %d fallback clips, got %d", want, len(res.Manifest.Clips))
	}
	if _, err := os.Stat(filepath.Join(tmp, "out", "candidates.json")); err != nil {
		t.Fatalf("candidates.json not written: %v", err)
	}
}

func TestRun_ProbeFailureAborts(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	video := &fakeVideoTool{probeErr: errors.New("no such file")}
	uc := New(testDeps(video, fakeAnalyzer{}, nil))
	_, err := uc.Run(context.Background(), Input{
		InputMP4: filepath.Join(tmp, "in.mp4"),
		MaxClips: 1,
		CacheDir: tmp,
		OutDir:   tmp,
	})
	if err == nil || !strings.Contains(err.Error(), "probe input") {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func testDeps(video *fakeVideoTool, an fakeAnalyzer, pub *fakePublisher) Deps {
	geom := captions.NewGeometryPlanner(captions.ResolveFont([]captions.FontSource{captions.GoBold}, zerolog.Nop()))
	d := Deps{
		Video:    video,
		ASR:      fakeASR{tr: testTranscript()},
		Analyzer: an,
		Planner:  clips.NewPlanner(geom, clips.Options{BucketSize: 2, Workers: 2}, zerolog.Nop()),
		FontName: "Go Bold",
		Log:      zerolog.Nop(),
	}
	if pub != nil {
		d.Publisher = pub
	}
	return d
}

type fakeVideoTool struct {
	mu           sync.Mutex
	probeErr     error
	failTitle    string
	renderASS    []string
	renderTitles []string
}

func (f *fakeVideoTool) ExtractAudioMono16k(_ context.Context, _, _ string) error {
	return nil
}

func (f *fakeVideoTool) ProbeVideo(_ context.Context, _ string) (types.VideoInfo, error) {
	if f.probeErr != nil {
		return types.VideoInfo{}, f.probeErr
	}
	return types.VideoInfo{Width: 1920, Height: 1080, Duration: 60 * time.Second}, nil
}

func (f *fakeVideoTool) RenderClip(_ context.Context, _ string, plan types.RenderPlan, assPath, outMP4 string) error {
	f.mu.Lock()
	f.renderASS = append(f.renderASS, assPath)
	f.renderTitles = append(f.renderTitles, plan.Title)
	f.mu.Unlock()
	if plan.Title == f.failTitle {
		return errors.New("encoder exploded")
	}
	return os.WriteFile(outMP4, []byte("mp4"), 0o644)
}

type fakeASR struct {
	tr types.Transcript
}

func (f fakeASR) Transcribe(_ context.Context, _, _ string) (types.Transcript, error) {
	return f.tr, nil
}

type fakeAnalyzer struct {
	cands []types.Candidate
	err   error
}

func (f fakeAnalyzer) Analyze(_ context.Context, _ types.Transcript, _ int) ([]types.Candidate, error) {
	return f.cands, f.err
}

type fakePublisher struct {
	failTitle string
	runIDs    []string
}

func (f *fakePublisher) Publish(_ context.Context, clip types.PublishedClip, _ string) (string, error) {
	f.runIDs = append(f.runIDs, clip.RunID)
	if clip.Title == f.failTitle {
		return "", errors.New("storage offline")
	}
	return "mem://" + clip.Title, nil
}

// testTranscript has "hello world ... again" from 0.5s to 4.5s followed by
// w00..w29, one word per second from 5s, in five-second segments.
func testTranscript() types.Transcript {
	tr := types.Transcript{Segments: []types.Segment{{
		Start: 0,
		End:   5,
		Text:  "hello world once again",
		Words: []types.Word{
			{Start: 0.5, End: 1.25, Word: "Hello"},
			{Start: 1.5, End: 2.25, Word: "world,"},
			{Start: 2.5, End: 3.25, Word: "once"},
			{Start: 3.5, End: 4.5, Word: "again!"},
		},
	}}}
	for s := 0; s < 6; s++ {
		seg := types.Segment{Start: float64(5 + 5*s), End: float64(10 + 5*s)}
		var parts []string
		for k := 0; k < 5; k++ {
			n := 5*s + k
			w := fmt.Sprintf("w%02d", n)
			seg.Words = append(seg.Words, types.Word{Start: float64(5 + n), End: float64(5+n) + 0.75, Word: w})
			parts = append(parts, w)
		}
		seg.Text = strings.Join(parts, " ")
		tr.Segments = append(tr.Segments, seg)
	}
	return tr
}

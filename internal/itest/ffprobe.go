//go:build integration

package itest

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

type clipInfo struct {
	Width    int
	Height   int
	Duration float64
}

func probeClip(mp4Path string) (clipInfo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "json",
		mp4Path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return clipInfo{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	var out struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return clipInfo{}, fmt.Errorf("parse ffprobe: %w", err)
	}
	if len(out.Streams) == 0 {
		return clipInfo{}, fmt.Errorf("no video stream in %s", mp4Path)
	}
	sec, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return clipInfo{}, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}
	return clipInfo{Width: out.Streams[0].Width, Height: out.Streams[0].Height, Duration: sec}, nil
}

// makeFixture renders a black landscape video of d seconds, with speech
// when wav is not empty.
func makeFixture(path, wav string, d int) error {
	args := []string{"-y", "-f", "lavfi", "-i", fmt.Sprintf("color=c=black:s=1280x720:d=%d", d)}
	if wav != "" {
		args = append(args, "-i", wav, "-shortest")
	} else {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("anullsrc=r=16000:cl=mono:d=%d", d), "-shortest")
	}
	args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac", path)
	if b, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg fixture: %w\n%s", err, string(b))
	}
	return nil
}

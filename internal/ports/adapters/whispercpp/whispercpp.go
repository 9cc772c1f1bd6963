package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/viralcut/internal/logging"
	"github.com/forPelevin/viralcut/internal/types"
)

type Adapter struct {
	bin   string
	model string
	log   zerolog.Logger
}

func New(binPath, modelPath string, log zerolog.Logger) *Adapter {
	return &Adapter{bin: binPath, model: modelPath, log: logging.WithComponent(log, "whisper")}
}

// Transcribe runs whisper.cpp with full JSON output and rebuilds word
// timings from its token offsets.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-ojf",
		"-of", outPrefix,
	}
	a.log.Debug().Strs("args", args).Msg("executing whisper.cpp")
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	tr, err := parseOutput(jb)
	if err != nil {
		return types.Transcript{}, err
	}
	a.log.Info().Int("segments", len(tr.Segments)).Int("words", len(tr.AllWords())).Msg("transcribed")
	return tr, nil
}

type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type output struct {
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			Text    string  `json:"text"`
			Offsets offsets `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// parseOutput accepts whisper.cpp's -oj/-ojf document. Offsets there are in
// milliseconds. Tokens are sub-word pieces; a piece starting with a space
// opens a new word. Special tokens like [_BEG_] are skipped.
func parseOutput(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}

	var tr types.Transcript
	texts := make([]string, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		s := types.Segment{
			Start: ms(seg.Offsets.From),
			End:   ms(seg.Offsets.To),
			Text:  strings.TrimSpace(seg.Text),
		}
		var cur *types.Word
		for _, tok := range seg.Tokens {
			if strings.HasPrefix(tok.Text, "[_") || tok.Text == "" {
				continue
			}
			if cur == nil || strings.HasPrefix(tok.Text, " ") {
				s.Words = append(s.Words, types.Word{Start: ms(tok.Offsets.From), End: ms(tok.Offsets.To)})
				cur = &s.Words[len(s.Words)-1]
			}
			cur.Word += tok.Text
			cur.End = ms(tok.Offsets.To)
		}
		for i := range s.Words {
			s.Words[i].Word = strings.TrimSpace(s.Words[i].Word)
		}
		if s.Text != "" {
			texts = append(texts, s.Text)
		}
		tr.Segments = append(tr.Segments, s)
	}
	tr.Text = strings.Join(texts, " ")
	return tr, nil
}

func ms(v int64) float64 { return float64(v) / 1000 }

package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/viralcut/internal/domain/highlights"
	"github.com/forPelevin/viralcut/internal/logging"
	"github.com/forPelevin/viralcut/internal/types"
)

const (
	requestTimeout = 90 * time.Second
	defaultModel   = "z-ai/glm-4.5-air:free"
	// maxPromptRunes keeps very long transcripts inside small context windows.
	maxPromptRunes = 60000
)

// Adapter asks a chat model on OpenRouter to pick viral segments.
type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func New(apiKey, model, baseURL string, log zerolog.Logger) *Adapter {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Adapter{
		key:     apiKey,
		model:   model,
		baseURL: normalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: 5 * time.Minute},
		log:     logging.WithComponent(log, "openrouter"),
	}
}

// Analyze returns at most maxClips candidates. Transport and HTTP failures
// are errors. A reply that cannot be understood falls back to candidates
// picked from the transcript itself.
func (a *Adapter) Analyze(ctx context.Context, tr types.Transcript, maxClips int) ([]types.Candidate, error) {
	if maxClips <= 0 || len(tr.Segments) == 0 {
		return nil, nil
	}

	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": buildPrompt(formatTranscript(tr), maxClips)},
		},
		"response_format": map[string]any{"type": "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return nil, fmt.Errorf("openrouter request: %s", redactSecrets(err.Error(), a.key))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode openrouter response: %w", err)
	}
	a.log.Debug().Dur("took", time.Since(start)).Str("model", a.model).Msg("model replied")

	cands, why := parseChoices(raw.Choices)
	if len(cands) == 0 {
		a.log.Warn().Str("reason", why).Msg("model returned no usable clips, using transcript fallback")
		return highlights.FallbackCandidates(tr, maxClips), nil
	}
	if len(cands) > maxClips {
		cands = cands[:maxClips]
	}
	return cands, nil
}

type chatResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message struct {
		Content any `json:"content"`
	} `json:"message"`
}

// parseChoices returns the candidates in the first choice, or a reason why
// there are none.
func parseChoices(choices []choice) ([]types.Candidate, string) {
	if len(choices) == 0 {
		return nil, "no choices"
	}
	content, err := messageContentToString(choices[0].Message.Content)
	if err != nil {
		return nil, err.Error()
	}
	clean, err := extractJSONObject(content)
	if err != nil {
		return nil, err.Error()
	}
	cands := highlights.DecodeCandidates([]byte(clean))
	if len(cands) == 0 {
		return nil, "no clips in reply"
	}
	return cands, ""
}

// formatTranscript renders one "[12s] text" line per segment.
func formatTranscript(tr types.Transcript) string {
	var b strings.Builder
	for _, s := range tr.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%ds] %s\n", int(math.Floor(s.Start)), text)
	}
	return truncate(b.String(), maxPromptRunes)
}

func buildPrompt(transcript string, maxClips int) string {
	return fmt.Sprintf(`You are a viral content strategist. Analyze the transcript and identify up to %d engaging segments of 15 to 60 seconds.

Rules:
1. Do not bridge long silences.
2. start_text must be the exact first 3 words of the segment and end_text the exact last 3 words.
3. score is an integer from 1 to 10.
4. Output JSON only, no markdown, no code fences.

Format:
{"clips":[{"title":"Short punchy title (max 5 words)","viral_description":"One sentence hook for a social caption.","start_text":"exact first words","end_text":"exact last words","score":9}]}

Transcript:
%s`, maxClips, transcript)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}
	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}

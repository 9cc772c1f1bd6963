package highlights

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/viralcut/internal/types"
)

// DecodeCandidates parses a ranking response of the form
//
//	{"clips":[{"title":..,"viral_description":..,"start_text":..,"end_text":..,"score":9}]}
//
// Anything that does not look like that yields no candidates. Individual
// clips missing a boundary phrase are skipped; a missing or unparsable score
// becomes 0, which later rejects the clip.
func DecodeCandidates(raw []byte) []types.Candidate {
	var doc struct {
		Clips []map[string]json.RawMessage `json:"clips"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}

	out := make([]types.Candidate, 0, len(doc.Clips))
	for _, c := range doc.Clips {
		if c == nil {
			continue
		}
		cand := types.Candidate{
			Title:       firstString(c, "title"),
			StartPhrase: firstString(c, "start_text", "start_phrase"),
			EndPhrase:   firstString(c, "end_text", "end_phrase"),
			Description: firstString(c, "viral_description", "description"),
			Score:       intField(c["score"]),
		}
		if cand.StartPhrase == "" || cand.EndPhrase == "" {
			continue
		}
		if cand.Title == "" {
			cand.Title = "Highlight"
		}
		if cand.Description == "" {
			cand.Description = "Auto-generated clip"
		}
		out = append(out, cand)
	}
	return out
}

func firstString(m map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func intField(v json.RawMessage) int {
	if len(v) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int(math.Round(f))
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return int(math.Round(f))
		}
	}
	return 0
}

package highlights

import (
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/viralcut/internal/types"
)

// Resolution holds the boundaries found for a candidate. A side that was not
// found has its Has flag unset and a zero time.
type Resolution struct {
	Start    time.Duration
	End      time.Duration
	HasStart bool
	HasEnd   bool
}

// OK reports whether both boundaries resolved.
func (r Resolution) OK() bool { return r.HasStart && r.HasEnd }

// Resolve maps fuzzy boundary phrases to exact transcript times.
//
// The start phrase must match a run of consecutive words, token by token,
// where each token only has to be a substring of the word. The first such run
// wins. Case and punctuation are folded away on both sides before comparing,
// so "hello" finds "Hel-lo,". For the end phrase only its last token is
// searched, from the end of the transcript backwards; the last word
// containing it supplies the end time. Words are searched in slice order.
func Resolve(words []types.Word, startPhrase, endPhrase string) Resolution {
	st := tokenize(startPhrase)
	et := tokenize(endPhrase)
	if len(st) == 0 || len(et) == 0 {
		return Resolution{}
	}

	var r Resolution
	for i := 0; i+len(st) <= len(words); i++ {
		if matchAt(words, i, st) {
			r.Start = words[i].StartDur()
			r.HasStart = true
			break
		}
	}

	last := et[len(et)-1]
	for i := len(words) - 1; i >= 0; i-- {
		if strings.Contains(fold(words[i].Word), last) {
			r.End = words[i].EndDur()
			r.HasEnd = true
			break
		}
	}
	return r
}

func matchAt(words []types.Word, i int, tokens []string) bool {
	for j, tok := range tokens {
		if !strings.Contains(fold(words[i+j].Word), tok) {
			return false
		}
	}
	return true
}

func tokenize(phrase string) []string {
	var out []string
	for _, f := range strings.Fields(phrase) {
		if t := fold(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// fold lowercases s and keeps only letters and digits.
func fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

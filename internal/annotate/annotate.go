// Package annotate flags risk indicators in a speech transcript.
package annotate

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

// DefaultVocabulary holds the pause markers emitted by the transcriber.
var DefaultVocabulary = []string{"...", "um", "uh"}

// Result is the outcome of one annotation pass.
type Result struct {
	Highlights      []model.Highlight `json:"highlights"`
	PauseCount      int               `json:"pause_count"`
	RepetitionCount int               `json:"repetition_count"`
	Summary         string            `json:"summary"`
}

// Tokens splits a transcript on whitespace.
func Tokens(transcript string) []string {
	return strings.Fields(transcript)
}

// Annotate flags vocabulary tokens as high-severity pauses and tokens that
// repeat their predecessor as medium-severity repetitions. Comparison is
// case-insensitive. A token matching both keeps the pause category.
func Annotate(transcript string, vocabulary []string) Result {
	vocab := make(map[string]struct{}, len(vocabulary))
	for _, v := range vocabulary {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			vocab[v] = struct{}{}
		}
	}

	res := Result{Highlights: []model.Highlight{}}
	prev := ""
	for i, tok := range Tokens(transcript) {
		lower := strings.ToLower(tok)
		repeated := i > 0 && lower == prev
		prev = lower
		if _, ok := vocab[lower]; ok {
			res.Highlights = append(res.Highlights, model.Highlight{
				TokenIndex: i,
				Token:      tok,
				Category:   model.CategoryPause,
				Severity:   model.SeverityHigh,
			})
			res.PauseCount++
			continue
		}
		if repeated {
			res.Highlights = append(res.Highlights, model.Highlight{
				TokenIndex: i,
				Token:      tok,
				Category:   model.CategoryRepetition,
				Severity:   model.SeverityMedium,
			})
			res.RepetitionCount++
		}
	}
	res.Summary = fmt.Sprintf("Detected %d pauses and %d repetitions", res.PauseCount, res.RepetitionCount)
	return res
}

package report

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/neuroscreen/internal/annotate"
	"github.com/verte-zerg/neuroscreen/internal/model"
)

type styledToken struct {
	s     string
	width int
}

func buildStyledTokens(transcript string, highlights []model.Highlight, th theme) []styledToken {
	bySeverity := make(map[int]model.Severity, len(highlights))
	for _, h := range highlights {
		bySeverity[h.TokenIndex] = h.Severity
	}
	tokens := annotate.Tokens(transcript)
	out := make([]styledToken, 0, len(tokens))
	for i, tok := range tokens {
		rendered := tok
		width := runewidth.StringWidth(tok)
		if sev, ok := bySeverity[i]; ok {
			rendered, width = th.highlight(tok, sev)
		}
		out = append(out, styledToken{s: rendered, width: width})
	}
	return out
}

func renderStyledTokens(tokens []styledToken) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.s
	}
	return strings.Join(parts, " ")
}

// wrapStyledTokens breaks tokens into lines no wider than width. A token
// wider than width gets a line of its own.
func wrapStyledTokens(tokens []styledToken, width int) string {
	if width <= 0 {
		return renderStyledTokens(tokens)
	}
	var out strings.Builder
	line := make([]styledToken, 0, len(tokens))
	lineWidth := 0
	for _, tok := range tokens {
		gap := 0
		if len(line) > 0 {
			gap = 1
		}
		if lineWidth+gap+tok.width > width && len(line) > 0 {
			out.WriteString(renderStyledTokens(line))
			out.WriteRune('\n')
			line = line[:0]
			lineWidth = 0
			gap = 0
		}
		line = append(line, tok)
		lineWidth += gap + tok.width
	}
	out.WriteString(renderStyledTokens(line))
	return out.String()
}

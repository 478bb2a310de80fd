// Package generator builds Stroop stimulus sequences.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

// DefaultPalette is the six-color palette used for labels and ink.
var DefaultPalette = []model.Color{
	{Name: "RED", Hex: "#FF0000"},
	{Name: "GREEN", Hex: "#00FF00"},
	{Name: "BLUE", Hex: "#0000FF"},
	{Name: "YELLOW", Hex: "#FFFF00"},
	{Name: "PURPLE", Hex: "#800080"},
	{Name: "ORANGE", Hex: "#FFA500"},
}

// Generator produces randomized trials.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Trials draws label and ink independently and uniformly from the palette.
// Consecutive trials may repeat either attribute.
func (g *Generator) Trials(palette []model.Color, count int) []model.Trial {
	if count <= 0 || len(palette) == 0 {
		return nil
	}
	result := make([]model.Trial, 0, count)
	for i := 0; i < count; i++ {
		label := palette[g.rnd.Intn(len(palette))]
		ink := palette[g.rnd.Intn(len(palette))]
		result = append(result, model.Trial{
			StimulusLabel: label.Name,
			StimulusInk:   ink.Name,
			CorrectAnswer: ink.Name,
		})
	}
	return result
}

// PaletteFromNames resolves color names against DefaultPalette, case-insensitively.
// An empty list yields DefaultPalette.
func PaletteFromNames(names []string) ([]model.Color, error) {
	if len(names) == 0 {
		out := make([]model.Color, len(DefaultPalette))
		copy(out, DefaultPalette)
		return out, nil
	}
	byName := make(map[string]model.Color, len(DefaultPalette))
	for _, c := range DefaultPalette {
		byName[c.Name] = c
	}
	seen := map[string]struct{}{}
	out := make([]model.Color, 0, len(names))
	for _, name := range names {
		key := strings.ToUpper(strings.TrimSpace(name))
		c, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("unknown palette color %q", name)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// Lookup returns the palette entry with the given name.
func Lookup(palette []model.Color, name string) (model.Color, bool) {
	for _, c := range palette {
		if c.Name == name {
			return c, true
		}
	}
	return model.Color{}, false
}

package risk

import (
	"math"
	"sort"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

// Level thresholds and recommendations.
const (
	HighThreshold     = 40.0
	ModerateThreshold = 20.0

	RecommendHigh     = "Consult neurologist within 14 days"
	RecommendModerate = "Retest in 4 weeks"
	RecommendLow      = "Continue monitoring"
)

type fieldOrder struct {
	scaled     []string
	fractional []string
}

// normalization lists, per modality, the fields tried in order. Scaled
// fields are already on 0-100; fractional fields are multiplied by 100.
var normalization = map[model.Modality]fieldOrder{
	model.ModalityTrial:  {scaled: []string{FieldTotalRisk, FieldCognitiveRisk}, fractional: []string{FieldRiskScore}},
	model.ModalityQuiz:   {scaled: []string{FieldCognitiveRisk, FieldTotalRisk}, fractional: []string{FieldRiskScore}},
	model.ModalitySpeech: {scaled: []string{FieldTotalRisk}, fractional: []string{FieldRiskScore}},
	model.ModalityFacial: {scaled: []string{FieldTotalRisk}, fractional: []string{FieldRiskScore}},
}

// Normalize maps a modality reading onto the common 0-100 scale. A nil
// reading, or one with no usable field, yields an unavailable subscore.
func Normalize(modality model.Modality, reading Reading) model.RiskSubscore {
	sub := model.RiskSubscore{Modality: modality}
	if reading == nil {
		return sub
	}
	order, ok := normalization[modality]
	if !ok {
		return sub
	}
	fields := reading.RiskFields()
	if v, ok := first(fields, order.scaled); ok {
		sub.Score, sub.Available = clampScore(v), true
		return sub
	}
	if v, ok := first(fields, order.fractional); ok {
		sub.Score, sub.Available = clampScore(v*100), true
		return sub
	}
	return sub
}

func first(fields map[string]float64, names []string) (float64, bool) {
	for _, name := range names {
		v, ok := fields[name]
		if ok && !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}

func clampScore(v float64) float64 {
	return model.Range{Min: 0, Max: 100}.Clamp(v)
}

// NormalizeAll returns one subscore per modality in model.Modalities order.
// Modalities missing from readings are unavailable.
func NormalizeAll(readings map[model.Modality]Reading) []model.RiskSubscore {
	out := make([]model.RiskSubscore, 0, len(model.Modalities))
	for _, m := range model.Modalities {
		out = append(out, Normalize(m, readings[m]))
	}
	return out
}

// Aggregate combines subscores with an unweighted mean over the available
// ones. With none available the score is 0 and the level LOW.
func Aggregate(subscores []model.RiskSubscore) model.AggregateRisk {
	var sum float64
	seen := map[model.Modality]struct{}{}
	modalities := []model.Modality{}
	n := 0
	for _, sub := range subscores {
		if !sub.Available {
			continue
		}
		sum += sub.Score
		n++
		if _, dup := seen[sub.Modality]; !dup {
			seen[sub.Modality] = struct{}{}
			modalities = append(modalities, sub.Modality)
		}
	}
	sort.Slice(modalities, func(i, j int) bool { return modalities[i] < modalities[j] })

	score := 0.0
	if n > 0 {
		score = sum / float64(n)
	}
	level, rec := Classify(score)
	return model.AggregateRisk{
		OverallScore:           score,
		Level:                  level,
		Recommendation:         rec,
		ContributingModalities: modalities,
	}
}

// Classify buckets a 0-100 score.
func Classify(score float64) (model.Level, string) {
	switch {
	case score > HighThreshold:
		return model.LevelHigh, RecommendHigh
	case score > ModerateThreshold:
		return model.LevelModerate, RecommendModerate
	default:
		return model.LevelLow, RecommendLow
	}
}

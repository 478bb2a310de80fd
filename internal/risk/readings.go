// Package risk reconciles per-modality readings into one screening verdict.
package risk

import "github.com/verte-zerg/neuroscreen/internal/model"

// Reading is one modality's raw risk output. RiskFields returns only the
// fields that were actually reported.
type Reading interface {
	Modality() model.Modality
	RiskFields() map[string]float64
}

// Field names shared by the modality readings.
const (
	FieldTotalRisk     = "total_risk"
	FieldCognitiveRisk = "cognitive_risk"
	FieldRiskScore     = "risk_score"
)

// TrialReading carries the Stroop modality output.
type TrialReading struct {
	TotalRisk     *float64
	CognitiveRisk *float64
	RiskScore     *float64
}

// Modality implements Reading.
func (TrialReading) Modality() model.Modality { return model.ModalityTrial }

// RiskFields implements Reading.
func (r TrialReading) RiskFields() map[string]float64 {
	return collect(map[string]*float64{
		FieldTotalRisk:     r.TotalRisk,
		FieldCognitiveRisk: r.CognitiveRisk,
		FieldRiskScore:     r.RiskScore,
	})
}

// QuizReading carries the cognitive quiz output.
type QuizReading struct {
	CognitiveRisk *float64
	TotalRisk     *float64
	RiskScore     *float64
}

// Modality implements Reading.
func (QuizReading) Modality() model.Modality { return model.ModalityQuiz }

// RiskFields implements Reading.
func (r QuizReading) RiskFields() map[string]float64 {
	return collect(map[string]*float64{
		FieldTotalRisk:     r.TotalRisk,
		FieldCognitiveRisk: r.CognitiveRisk,
		FieldRiskScore:     r.RiskScore,
	})
}

// SpeechReading carries the spoken-language output.
type SpeechReading struct {
	TotalRisk *float64
	RiskScore *float64
}

// Modality implements Reading.
func (SpeechReading) Modality() model.Modality { return model.ModalitySpeech }

// RiskFields implements Reading.
func (r SpeechReading) RiskFields() map[string]float64 {
	return collect(map[string]*float64{
		FieldTotalRisk: r.TotalRisk,
		FieldRiskScore: r.RiskScore,
	})
}

// FacialReading carries the facial-metric output.
type FacialReading struct {
	TotalRisk *float64
	RiskScore *float64
}

// Modality implements Reading.
func (FacialReading) Modality() model.Modality { return model.ModalityFacial }

// RiskFields implements Reading.
func (r FacialReading) RiskFields() map[string]float64 {
	return collect(map[string]*float64{
		FieldTotalRisk: r.TotalRisk,
		FieldRiskScore: r.RiskScore,
	})
}

func collect(fields map[string]*float64) map[string]float64 {
	out := make(map[string]float64, len(fields))
	for name, v := range fields {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

// Float returns a pointer to v, for building readings.
func Float(v float64) *float64 {
	return &v
}

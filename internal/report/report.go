// Package report assembles and renders the final screening report.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/neuroscreen/internal/annotate"
	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/readings"
	"github.com/verte-zerg/neuroscreen/internal/risk"
)

// Report is the combined outcome of one screening.
type Report struct {
	ID           string               `json:"id"`
	CreatedAt    time.Time            `json:"created_at"`
	FinalRisk    model.AggregateRisk  `json:"final_risk"`
	Subscores    []model.RiskSubscore `json:"subscores"`
	Stroop       *readings.Result     `json:"stroop_result,omitempty"`
	Cognitive    *readings.Result     `json:"cognitive_result,omitempty"`
	Speech       *readings.Result     `json:"speech_result,omitempty"`
	Facial       *readings.Result     `json:"facial_result,omitempty"`
	Transcript   string               `json:"transcript,omitempty"`
	Indicators   annotate.Result      `json:"indicators"`
	ClinicalNote string               `json:"clinical_note"`
	ValidatedBy  string               `json:"validated_by"`
}

// Build combines the available readings into a report. It never fails:
// missing modalities are reported as unavailable.
func Build(b readings.Bundle, vocabulary []string, now time.Time) Report {
	subscores := risk.NormalizeAll(b.Readings())
	transcript := b.Transcript()
	return Report{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		FinalRisk:    risk.Aggregate(subscores),
		Subscores:    subscores,
		Stroop:       b.Stroop,
		Cognitive:    b.Cognitive,
		Speech:       b.Speech,
		Facial:       b.Facial,
		Transcript:   transcript,
		Indicators:   annotate.Annotate(transcript, vocabulary),
		ClinicalNote: b.ClinicalNote(),
		ValidatedBy:  b.ValidatedBy(),
	}
}

// Record returns the headline stored in history.
func (r Report) Record() model.ReportRecord {
	return model.ReportRecord{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		OverallScore: r.FinalRisk.OverallScore,
		Level:        r.FinalRisk.Level,
		Modalities:   append([]model.Modality(nil), r.FinalRisk.ContributingModalities...),
		Pauses:       r.Indicators.PauseCount,
		Repetitions:  r.Indicators.RepetitionCount,
	}
}

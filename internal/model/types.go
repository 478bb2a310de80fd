// Package model defines shared data structures.
package model

import (
	"math"
	"time"
)

// Config defines Stroop test settings.
type Config struct {
	Trials  int      `validate:"gt=0,lte=500"`
	DelayMs int      `validate:"gte=0,lte=10000"`
	Palette []string `validate:"omitempty,dive,required"`
}

// FacialConfig defines facial sampling settings.
type FacialConfig struct {
	IntervalMs int `validate:"gt=0"`
	DurationMs int `validate:"gtefield=IntervalMs"`
	Seed       int64
}

// StatsConfig defines filters and options for history output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Color is a named palette entry used for both stimulus labels and ink.
type Color struct {
	Name string
	Hex  string
}

// SessionStatus is the lifecycle state of a trial session.
type SessionStatus int

const (
	StatusIdle SessionStatus = iota
	StatusActive
	StatusCompleted
)

func (s SessionStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Trial is one stimulus/response unit. Response fields are meaningful only
// when Responded is true.
type Trial struct {
	StimulusLabel  string    `json:"stimulus_label"`
	StimulusInk    string    `json:"stimulus_ink"`
	CorrectAnswer  string    `json:"correct_answer"`
	PresentedAt    time.Time `json:"presented_at"`
	Responded      bool      `json:"responded"`
	RespondedAt    time.Time `json:"responded_at,omitzero"`
	SelectedAnswer string    `json:"selected_answer,omitempty"`
	IsCorrect      bool      `json:"is_correct"`
	ReactionTimeMs int64     `json:"reaction_time_ms"`
}

// IsCongruent reports whether the label names its own ink.
func (t Trial) IsCongruent() bool {
	return t.StimulusLabel == t.StimulusInk
}

// TrialResult holds session-level scores of a completed trial session.
type TrialResult struct {
	Total             int       `json:"total_trials"`
	Correct           int       `json:"correct_answers"`
	Accuracy          float64   `json:"accuracy"`
	AvgReactionTimeMs float64   `json:"avg_reaction_time"`
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
}

// Range bounds a metric's valid values.
type Range struct {
	Min float64
	Max float64
}

// Clamp confines v to the range. NaN clamps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// MetricSample is one tick's worth of named metric values.
type MetricSample struct {
	At     time.Time          `json:"timestamp"`
	Values map[string]float64 `json:"values"`
}

// SummaryStatistics holds per-metric means over one sampling run.
// Means is nil when SampleCount is zero.
type SummaryStatistics struct {
	Means       map[string]float64 `json:"means,omitempty"`
	SampleCount int                `json:"total_samples"`
}

// Empty reports whether no samples were collected.
func (s SummaryStatistics) Empty() bool {
	return s.SampleCount == 0
}

// Modality identifies one behavioral probe.
type Modality string

const (
	ModalityTrial  Modality = "trial"
	ModalityQuiz   Modality = "quiz"
	ModalitySpeech Modality = "speech"
	ModalityFacial Modality = "facial"
)

// Modalities lists every modality in report order.
var Modalities = []Modality{ModalityTrial, ModalityQuiz, ModalitySpeech, ModalityFacial}

// RiskSubscore is a modality's reading on the common 0-100 scale.
type RiskSubscore struct {
	Modality  Modality `json:"modality"`
	Score     float64  `json:"score"`
	Available bool     `json:"available"`
}

// Level is the screening verdict bucket.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
)

// AggregateRisk is the combined verdict over available subscores.
type AggregateRisk struct {
	OverallScore           float64    `json:"score"`
	Level                  Level      `json:"level"`
	Recommendation         string     `json:"recommendation"`
	ContributingModalities []Modality `json:"contributing_modalities"`
}

// Category classifies a transcript highlight.
type Category string

const (
	CategoryPause      Category = "pause"
	CategoryRepetition Category = "repetition"
)

// Severity grades a transcript highlight.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Highlight flags one transcript token.
type Highlight struct {
	TokenIndex int      `json:"token_index"`
	Token      string   `json:"word"`
	Category   Category `json:"type"`
	Severity   Severity `json:"risk"`
}

// Stored aggregates for history reporting.

// SessionAggregate summarizes a stored trial session.
type SessionAggregate struct {
	SessionID         int64
	EndedAt           time.Time
	Total             int
	Correct           int
	ReactionTimeSumMs int64
}

// InkAggregate aggregates per-ink-color stats across sessions.
type InkAggregate struct {
	Ink          string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// FacialRun is a stored facial sampling summary.
type FacialRun struct {
	RunID     int64
	StartedAt time.Time
	EndedAt   time.Time
	Summary   SummaryStatistics
}

// ReportRecord is a stored report headline.
type ReportRecord struct {
	ID           string
	CreatedAt    time.Time
	OverallScore float64
	Level        Level
	Modalities   []Modality
	Pauses       int
	Repetitions  int
}

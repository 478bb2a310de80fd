// Package readings decodes per-modality result bundles.
package readings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/risk"
)

// Fallbacks used when no modality carries clinical metadata.
const (
	DefaultClinicalNote = "Based on validated clinical guidelines"
	DefaultValidatedBy  = "NIA-AA Clinical Guidelines"
)

// Bundle is the set of modality results gathered for one screening. Any
// subset may be absent.
type Bundle struct {
	Stroop    *Result `json:"stroop_data,omitempty" yaml:"stroop_data,omitempty"`
	Cognitive *Result `json:"cognitive_data,omitempty" yaml:"cognitive_data,omitempty"`
	Speech    *Result `json:"speech_data,omitempty" yaml:"speech_data,omitempty"`
	Facial    *Result `json:"facial_data,omitempty" yaml:"facial_data,omitempty"`
}

// Result is one modality's raw output. Which fields are set depends on the
// modality and the service that produced it.
type Result struct {
	TotalRisk     *float64 `json:"total_risk,omitempty" yaml:"total_risk,omitempty"`
	CognitiveRisk *float64 `json:"cognitive_risk,omitempty" yaml:"cognitive_risk,omitempty"`
	RiskScore     *float64 `json:"risk_score,omitempty" yaml:"risk_score,omitempty"`
	RiskLevel     string   `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`

	Transcript string    `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Features   *Features `json:"features,omitempty" yaml:"features,omitempty"`

	InputMetrics map[string]float64 `json:"input_metrics,omitempty" yaml:"input_metrics,omitempty"`

	Accuracy          *float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	AvgReactionTimeMs *float64 `json:"avg_reaction_time,omitempty" yaml:"avg_reaction_time,omitempty"`
	CorrectAnswers    *int     `json:"correct_answers,omitempty" yaml:"correct_answers,omitempty"`
	TotalQuestions    *int     `json:"total_questions,omitempty" yaml:"total_questions,omitempty"`
	TestType          string   `json:"test_type,omitempty" yaml:"test_type,omitempty"`

	ClinicalNote string `json:"clinical_note,omitempty" yaml:"clinical_note,omitempty"`
	ValidatedBy  string `json:"validated_by,omitempty" yaml:"validated_by,omitempty"`
}

// Features holds speech feature rates on a 0-1 scale.
type Features struct {
	PauseRate      *float64 `json:"pause_rate,omitempty" yaml:"pause_rate,omitempty"`
	RepetitionRate *float64 `json:"repetition_rate,omitempty" yaml:"repetition_rate,omitempty"`
}

// Load reads a bundle from a JSON or YAML file.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("read readings %s: %w", path, err)
	}
	asJSON := strings.EqualFold(filepath.Ext(path), ".json")
	b, err := decode(data, asJSON)
	if err != nil {
		return Bundle{}, fmt.Errorf("decode readings %s: %w", path, err)
	}
	return b, nil
}

// Decode parses a bundle, detecting JSON by its leading brace.
func Decode(data []byte) (Bundle, error) {
	trimmed := bytes.TrimSpace(data)
	return decode(data, len(trimmed) > 0 && trimmed[0] == '{')
}

func decode(data []byte, asJSON bool) (Bundle, error) {
	var b Bundle
	if asJSON {
		// Tab-indented JSON is not valid YAML.
		if err := json.Unmarshal(data, &b); err != nil {
			return Bundle{}, err
		}
		return b, nil
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Readings converts the bundle into tagged modality readings. Absent
// modalities are omitted.
func (b Bundle) Readings() map[model.Modality]risk.Reading {
	out := map[model.Modality]risk.Reading{}
	if r := b.Stroop; r != nil {
		out[model.ModalityTrial] = risk.TrialReading{TotalRisk: r.TotalRisk, CognitiveRisk: r.CognitiveRisk, RiskScore: r.RiskScore}
	}
	if r := b.Cognitive; r != nil {
		out[model.ModalityQuiz] = risk.QuizReading{CognitiveRisk: r.CognitiveRisk, TotalRisk: r.TotalRisk, RiskScore: r.RiskScore}
	}
	if r := b.Speech; r != nil {
		out[model.ModalitySpeech] = risk.SpeechReading{TotalRisk: r.TotalRisk, RiskScore: r.RiskScore}
	}
	if r := b.Facial; r != nil {
		out[model.ModalityFacial] = risk.FacialReading{TotalRisk: r.TotalRisk, RiskScore: r.RiskScore}
	}
	return out
}

// Transcript returns the speech transcript, if any.
func (b Bundle) Transcript() string {
	if b.Speech == nil {
		return ""
	}
	return b.Speech.Transcript
}

// ClinicalNote returns the first note found in speech, cognitive and facial
// results, in that order.
func (b Bundle) ClinicalNote() string {
	for _, r := range b.noteOrder() {
		if r != nil && r.ClinicalNote != "" {
			return r.ClinicalNote
		}
	}
	return DefaultClinicalNote
}

// ValidatedBy returns the first validation source, in ClinicalNote order.
func (b Bundle) ValidatedBy() string {
	for _, r := range b.noteOrder() {
		if r != nil && r.ValidatedBy != "" {
			return r.ValidatedBy
		}
	}
	return DefaultValidatedBy
}

func (b Bundle) noteOrder() []*Result {
	return []*Result{b.Speech, b.Cognitive, b.Facial}
}

// WithStroop returns a copy of the bundle carrying a locally scored Stroop
// session. Accuracy is a behavioral signal only; the modality contributes a
// subscore only when an upstream scorer supplied a risk field.
func (b Bundle) WithStroop(res model.TrialResult) Bundle {
	r := &Result{}
	if b.Stroop != nil {
		cp := *b.Stroop
		r = &cp
	}
	acc := res.Accuracy
	avg := res.AvgReactionTimeMs
	correct := res.Correct
	total := res.Total
	r.Accuracy = &acc
	r.AvgReactionTimeMs = &avg
	r.CorrectAnswers = &correct
	r.TotalQuestions = &total
	r.TestType = "stroop"
	b.Stroop = r
	return b
}

// WithFacial returns a copy of the bundle carrying a local facial summary as
// input metrics. No risk field is set, so the modality stays unavailable
// until a scoring service supplies one.
func (b Bundle) WithFacial(summary model.SummaryStatistics) Bundle {
	if summary.Empty() {
		return b
	}
	metrics := make(map[string]float64, len(summary.Means))
	for k, v := range summary.Means {
		metrics[k] = v
	}
	if b.Facial == nil {
		b.Facial = &Result{}
	} else {
		cp := *b.Facial
		b.Facial = &cp
	}
	b.Facial.InputMetrics = metrics
	return b
}

// WithTranscript returns a copy of the bundle whose speech result carries
// transcript. An empty transcript leaves the bundle unchanged.
func (b Bundle) WithTranscript(transcript string) Bundle {
	if strings.TrimSpace(transcript) == "" {
		return b
	}
	if b.Speech == nil {
		b.Speech = &Result{}
	} else {
		cp := *b.Speech
		b.Speech = &cp
	}
	b.Speech.Transcript = transcript
	return b
}

// LoadOrEmpty is Load, except that a missing file yields an empty bundle.
func LoadOrEmpty(path string) (Bundle, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Bundle{}, nil
		}
		return Bundle{}, fmt.Errorf("stat readings %s: %w", path, err)
	}
	return Load(path)
}

// Save writes the bundle atomically, as JSON for a .json path and YAML
// otherwise.
func Save(path string, b Bundle) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(b, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(b)
	}
	if err != nil {
		return fmt.Errorf("encode readings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create readings dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "readings-*")
	if err != nil {
		return fmt.Errorf("create temp readings: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write readings: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close readings: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("write readings: %w", err)
	}
	return nil
}

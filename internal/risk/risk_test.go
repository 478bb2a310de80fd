package risk

import (
	"math"
	"reflect"
	"testing"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

func sub(m model.Modality, score float64) model.RiskSubscore {
	return model.RiskSubscore{Modality: m, Score: score, Available: true}
}

func TestAggregateSingleModality(t *testing.T) {
	got := Aggregate([]model.RiskSubscore{sub(model.ModalityQuiz, 50)})
	if got.OverallScore != 50 || got.Level != model.LevelHigh || got.Recommendation != RecommendHigh {
		t.Fatalf("unexpected aggregate: %+v", got)
	}
	if !reflect.DeepEqual(got.ContributingModalities, []model.Modality{model.ModalityQuiz}) {
		t.Fatalf("unexpected modalities: %v", got.ContributingModalities)
	}
}

func TestAggregateBoundaryIsNotHigh(t *testing.T) {
	got := Aggregate([]model.RiskSubscore{sub(model.ModalityQuiz, 50), sub(model.ModalitySpeech, 30)})
	if got.OverallScore != 40 || got.Level != model.LevelModerate {
		t.Fatalf("expected 40/MODERATE, got %+v", got)
	}
	if !reflect.DeepEqual(got.ContributingModalities, []model.Modality{model.ModalityQuiz, model.ModalitySpeech}) {
		t.Fatalf("unexpected modalities: %v", got.ContributingModalities)
	}
}

func TestAggregateLowBoundary(t *testing.T) {
	got := Aggregate([]model.RiskSubscore{sub(model.ModalitySpeech, 10), sub(model.ModalityFacial, 30)})
	if got.OverallScore != 20 || got.Level != model.LevelLow || got.Recommendation != RecommendLow {
		t.Fatalf("expected 20/LOW, got %+v", got)
	}
	got = Aggregate([]model.RiskSubscore{sub(model.ModalityQuiz, 40)})
	if got.Level != model.LevelModerate || got.Recommendation != RecommendModerate {
		t.Fatalf("expected 40/MODERATE, got %+v", got)
	}
}

func TestAggregateNoneAvailable(t *testing.T) {
	for _, input := range [][]model.RiskSubscore{
		nil,
		{{Modality: model.ModalityFacial, Score: 90}},
	} {
		got := Aggregate(input)
		if got.OverallScore != 0 || got.Level != model.LevelLow || got.Recommendation != RecommendLow {
			t.Fatalf("expected 0/LOW, got %+v", got)
		}
		if len(got.ContributingModalities) != 0 {
			t.Fatalf("expected no modalities, got %v", got.ContributingModalities)
		}
	}
}

func TestAggregateIgnoresUnavailableScores(t *testing.T) {
	got := Aggregate([]model.RiskSubscore{
		sub(model.ModalityTrial, 60),
		{Modality: model.ModalityQuiz, Score: 0},
		sub(model.ModalityFacial, 30),
	})
	if got.OverallScore != 45 || got.Level != model.LevelHigh || got.Recommendation != RecommendHigh {
		t.Fatalf("unexpected aggregate: %+v", got)
	}
}

func TestAggregateIsPure(t *testing.T) {
	input := []model.RiskSubscore{sub(model.ModalitySpeech, 12), sub(model.ModalityTrial, 22)}
	a := Aggregate(input)
	b := Aggregate(input)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregate not idempotent: %+v vs %+v", a, b)
	}
	if a.Level != model.LevelLow {
		t.Fatalf("expected LOW at 17, got %s", a.Level)
	}
}

func TestClassifyThresholds(t *testing.T) {
	cases := map[float64]model.Level{
		0:     model.LevelLow,
		20:    model.LevelLow,
		20.01: model.LevelModerate,
		40:    model.LevelModerate,
		40.01: model.LevelHigh,
		100:   model.LevelHigh,
	}
	for score, want := range cases {
		if got, _ := Classify(score); got != want {
			t.Fatalf("Classify(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestNormalizePriority(t *testing.T) {
	got := Normalize(model.ModalityQuiz, QuizReading{CognitiveRisk: Float(35), TotalRisk: Float(80), RiskScore: Float(0.9)})
	if !got.Available || got.Score != 35 {
		t.Fatalf("quiz must prefer cognitive_risk, got %+v", got)
	}
	got = Normalize(model.ModalityTrial, TrialReading{TotalRisk: Float(12), CognitiveRisk: Float(70)})
	if got.Score != 12 {
		t.Fatalf("trial must prefer total_risk, got %+v", got)
	}
	got = Normalize(model.ModalitySpeech, SpeechReading{RiskScore: Float(0.25)})
	if !got.Available || got.Score != 25 {
		t.Fatalf("fractional field must scale by 100, got %+v", got)
	}
}

func TestNormalizeMissingAndEdgeValues(t *testing.T) {
	if got := Normalize(model.ModalityFacial, nil); got.Available {
		t.Fatalf("nil reading must be unavailable")
	}
	if got := Normalize(model.ModalityFacial, FacialReading{}); got.Available {
		t.Fatalf("empty reading must be unavailable")
	}
	got := Normalize(model.ModalityFacial, FacialReading{TotalRisk: Float(0)})
	if !got.Available || got.Score != 0 {
		t.Fatalf("zero is a present value, got %+v", got)
	}
	got = Normalize(model.ModalitySpeech, SpeechReading{TotalRisk: Float(math.NaN()), RiskScore: Float(0.5)})
	if got.Score != 50 {
		t.Fatalf("NaN must fall through to the next field, got %+v", got)
	}
	got = Normalize(model.ModalitySpeech, SpeechReading{RiskScore: Float(1.7)})
	if got.Score != 100 {
		t.Fatalf("score must clamp to 100, got %+v", got)
	}
}

func TestNormalizeAll(t *testing.T) {
	subs := NormalizeAll(map[model.Modality]Reading{
		model.ModalityQuiz:   QuizReading{CognitiveRisk: Float(50)},
		model.ModalitySpeech: SpeechReading{RiskScore: Float(0.3)},
	})
	if len(subs) != len(model.Modalities) {
		t.Fatalf("expected %d subscores, got %d", len(model.Modalities), len(subs))
	}
	for i, m := range model.Modalities {
		if subs[i].Modality != m {
			t.Fatalf("subscore %d is %s, want %s", i, subs[i].Modality, m)
		}
	}
	agg := Aggregate(subs)
	if agg.OverallScore != 40 || agg.Level != model.LevelModerate {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
}

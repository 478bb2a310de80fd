// Package facial provides the simulated facial-metric source.
package facial

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

// Metric names reported by the source.
const (
	EyeGazeStability   = "eye_gaze_stability"
	BlinkRate          = "blink_rate"
	HeadMovement       = "head_movement"
	FacialAsymmetry    = "facial_asymmetry"
	EyeClosureDuration = "eye_closure_duration"
	PupilDilation      = "pupil_dilation"
)

// Ranges are the documented bounds of each metric.
var Ranges = map[string]model.Range{
	EyeGazeStability:   {Min: 0, Max: 1},
	BlinkRate:          {Min: 5, Max: 30},
	HeadMovement:       {Min: 0, Max: 1},
	FacialAsymmetry:    {Min: 0, Max: 1},
	EyeClosureDuration: {Min: 0, Max: 5},
	PupilDilation:      {Min: 0, Max: 1},
}

// Baseline is the resting value each metric jitters around.
var Baseline = map[string]float64{
	EyeGazeStability:   0.7,
	BlinkRate:          15,
	HeadMovement:       0.3,
	FacialAsymmetry:    0.2,
	EyeClosureDuration: 0.25,
	PupilDilation:      0.8,
}

// Labels are display names for each metric.
var Labels = map[string]string{
	EyeGazeStability:   "Eye gaze stability",
	BlinkRate:          "Blink rate",
	HeadMovement:       "Head movement",
	FacialAsymmetry:    "Facial asymmetry",
	EyeClosureDuration: "Eye closure duration",
	PupilDilation:      "Pupil dilation",
}

const jitter = 0.05

// Names returns metric names in display order.
func Names() []string {
	return []string{EyeGazeStability, BlinkRate, HeadMovement, FacialAsymmetry, EyeClosureDuration, PupilDilation}
}

// Simulator stands in for a camera pipeline: every call returns the baseline
// perturbed by a small random offset. It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator returns a Simulator. A zero seed uses the current time.
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rnd: rand.New(rand.NewSource(seed))}
}

// Sample returns one snapshot of all metrics.
func (s *Simulator) Sample() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(Baseline))
	for name := range Baseline {
		names = append(names, name)
	}
	// Stable draw order keeps seeded runs reproducible.
	sort.Strings(names)
	out := make(map[string]float64, len(names))
	for _, name := range names {
		base := Baseline[name]
		if name == BlinkRate {
			out[name] = base + float64(s.rnd.Intn(3)-1)
			continue
		}
		out[name] = base + (s.rnd.Float64()*2-1)*jitter
	}
	return out
}

package stats

import (
	"sort"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

// WeakestInks returns up to top ink names with the lowest accuracy.
func WeakestInks(aggs []model.InkAggregate, top int) []string {
	candidates := make([]model.InkAggregate, len(aggs))
	copy(candidates, aggs)
	sortWeakestFirst(candidates)
	return inkNames(candidates, top)
}

// SlowestInks returns up to top ink names with the highest mean latency.
func SlowestInks(aggs []model.InkAggregate, top int) []string {
	candidates := make([]model.InkAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.LatencyCount > 0 {
			candidates = append(candidates, agg)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		li, lj := inkLatency(candidates[i]), inkLatency(candidates[j])
		if li == lj {
			return candidates[i].Ink < candidates[j].Ink
		}
		return li > lj
	})
	return inkNames(candidates, top)
}

func sortWeakestFirst(aggs []model.InkAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		ai, aj := inkAccuracy(aggs[i]), inkAccuracy(aggs[j])
		if ai == aj {
			return aggs[i].Ink < aggs[j].Ink
		}
		return ai < aj
	})
}

func inkNames(aggs []model.InkAggregate, top int) []string {
	if top <= 0 || top > len(aggs) {
		top = len(aggs)
	}
	out := make([]string, 0, top)
	for _, agg := range aggs[:top] {
		out = append(out, agg.Ink)
	}
	return out
}

func inkAccuracy(agg model.InkAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}

func inkLatency(agg model.InkAggregate) float64 {
	if agg.LatencyCount == 0 {
		return 0
	}
	return float64(agg.LatencySumMs) / float64(agg.LatencyCount)
}

package trial

import (
	"sort"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

// InkStats aggregates answered trials by ink color, sorted by ink name.
func InkStats(trials []model.Trial) []model.InkAggregate {
	byInk := map[string]*model.InkAggregate{}
	for _, tr := range trials {
		if !tr.Responded {
			continue
		}
		agg, ok := byInk[tr.StimulusInk]
		if !ok {
			agg = &model.InkAggregate{Ink: tr.StimulusInk}
			byInk[tr.StimulusInk] = agg
		}
		if tr.IsCorrect {
			agg.Correct++
			agg.LatencySumMs += tr.ReactionTimeMs
			agg.LatencyCount++
		} else {
			agg.Incorrect++
		}
	}
	out := make([]model.InkAggregate, 0, len(byInk))
	for _, agg := range byInk {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ink < out[j].Ink })
	return out
}

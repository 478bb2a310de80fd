package stats

import (
	"context"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/store"
)

// History holds precomputed data for history rendering.
type History struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	InkAggsAll       []model.InkAggregate
	InkAggsWindow    []model.InkAggregate
	FacialRuns       []model.FacialRun
	Reports          []model.ReportRecord
}

// BuildHistory loads and prepares data for history rendering.
func BuildHistory(ctx context.Context, st *store.Store, cfg model.StatsConfig) (History, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return History{}, err
	}
	sessions = lastN(sessions, cfg.Last)

	allIDs := sessionIDs(sessions)
	windowIDs := sessionIDs(lastN(sessions, cfg.CurveWindow))
	inkAll, err := st.ListInkAggregatesForSessions(ctx, allIDs)
	if err != nil {
		return History{}, err
	}
	inkWindow, err := st.ListInkAggregatesForSessions(ctx, windowIDs)
	if err != nil {
		return History{}, err
	}
	runs, err := st.ListFacialRuns(ctx, cfg)
	if err != nil {
		return History{}, err
	}
	reports, err := st.ListReports(ctx, cfg)
	if err != nil {
		return History{}, err
	}

	return History{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		InkAggsAll:       inkAll,
		InkAggsWindow:    inkWindow,
		FacialRuns:       lastN(runs, cfg.Last),
		Reports:          lastN(reports, cfg.Last),
	}, nil
}

func lastN[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

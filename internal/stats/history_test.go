package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/store"
)

func TestBuildHistory(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "neuroscreen.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		res := model.TrialResult{Total: 2, Correct: 1, StartedAt: start, EndedAt: start.Add(30 * time.Second)}
		inks := []model.InkAggregate{
			{Ink: "RED", Correct: 1, LatencySumMs: 500, LatencyCount: 1},
			{Ink: "BLUE", Incorrect: 1},
		}
		id, err := st.InsertTrialSession(ctx, res, []model.Trial{{ReactionTimeMs: 500}, {ReactionTimeMs: 700}}, inks)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := st.InsertFacialRun(ctx, model.FacialRun{StartedAt: time.Unix(0, 0), EndedAt: time.Unix(30, 0)}); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	h, err := BuildHistory(ctx, st, model.StatsConfig{Last: 2, CurveWindow: 1})
	if err != nil {
		t.Fatalf("build history: %v", err)
	}
	if len(h.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(h.Sessions))
	}
	if h.Sessions[0].SessionID != ids[1] || h.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", h.Sessions)
	}
	if len(h.WindowSessionIDs) != 1 || h.WindowSessionIDs[0] != ids[2] {
		t.Fatalf("unexpected window ids: %v", h.WindowSessionIDs)
	}
	if len(h.InkAggsAll) != 2 || h.InkAggsAll[1].Correct != 2 {
		t.Fatalf("unexpected ink aggregates: %+v", h.InkAggsAll)
	}
	if len(h.InkAggsWindow) != 2 || h.InkAggsWindow[1].Correct != 1 {
		t.Fatalf("unexpected window aggregates: %+v", h.InkAggsWindow)
	}
	if len(h.FacialRuns) != 1 || len(h.Reports) != 0 {
		t.Fatalf("unexpected runs/reports: %d/%d", len(h.FacialRuns), len(h.Reports))
	}
}

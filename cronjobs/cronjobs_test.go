package cronjobs

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"lankasafe-hq/db"
	"lankasafe-hq/districts"
	"lankasafe-hq/live"
	"lankasafe-hq/presence"
)

var now = time.Date(2025, 11, 28, 10, 0, 0, 0, time.UTC)

func startFeed(t *testing.T, m *db.MemoryStore) *live.Feed {
	t.Helper()
	f := live.NewFeed(m, nil, zap.NewNop())
	f.Start(context.Background())
	t.Cleanup(f.Close)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.WaitReady(ctx); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestDigest(t *testing.T) {
	m := db.NewMemoryStore()
	m.Put(db.IncidentsCollection, "c1", map[string]any{"timestamp": int64(1), "severity": int64(5), "latitude": 6.93, "longitude": 79.85})
	m.Put(db.IncidentsCollection, "c2", map[string]any{"timestamp": int64(2), "severity": int64(4), "latitude": 6.93, "longitude": 79.85, "actionStatus": "completed"})
	m.Put(db.IncidentsCollection, "k1", map[string]any{"timestamp": int64(3), "severity": int64(2), "latitude": 7.29, "longitude": 80.63})
	m.Put(db.AidRequestsCollection, "a1", map[string]any{db.CreatedAtField: int64(1), "priority_level": int64(5), "latitude": 7.29, "longitude": 80.63})
	m.Put(db.AidRequestsCollection, "a2", map[string]any{db.CreatedAtField: int64(2), "priority_level": int64(2), "latitude": 7.29, "longitude": 80.63})
	m.Put(db.AidRequestsCollection, "sea", map[string]any{db.CreatedAtField: int64(3), "priority_level": int64(1), "latitude": 1.0, "longitude": 1.0})

	j := &Jobs{Feed: startFeed(t, m), Districts: districts.Default(), Log: zap.NewNop()}
	got := map[string]DistrictDigest{}
	for _, d := range j.Digest() {
		got[d.District] = d
	}
	if len(got) != 3 {
		t.Fatalf("digest = %+v, want Colombo, Kandy and Unknown", got)
	}
	if got["Colombo"].OpenCritical != 1 || got["Colombo"].PendingAid != 0 {
		t.Errorf("Colombo = %+v", got["Colombo"])
	}
	if got["Kandy"].OpenCritical != 0 || got["Kandy"].PendingAid != 2 || got["Kandy"].UrgentPendingAid != 1 {
		t.Errorf("Kandy = %+v", got["Kandy"])
	}
	if got[districts.Unknown].PendingAid != 1 {
		t.Errorf("Unknown = %+v", got[districts.Unknown])
	}
}

func TestSweepReachability(t *testing.T) {
	m := db.NewMemoryStore()
	svc := &presence.Service{Store: m, Log: zap.NewNop()}
	res, err := svc.RequestCheck(context.Background(), presence.CheckRequest{UserID: "u1", ContextType: "incident"}, now)
	if err != nil {
		t.Fatal(err)
	}

	j := &Jobs{Checks: svc, Log: zap.NewNop(), Now: func() time.Time { return now.Add(5 * time.Minute) }}
	j.SweepReachability(context.Background())

	doc, err := m.Get(context.Background(), db.ReachabilityCollection, res.CheckID)
	if err != nil || doc.Data["status"] != presence.CheckExpired {
		t.Fatalf("check = %+v, %v", doc, err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	j := &Jobs{Log: zap.NewNop()}
	if _, err := Start(j, Schedules{Sweep: "not a schedule", Digest: "0 * * * *"}); err == nil {
		t.Fatal("expected schedule error")
	}
	c, err := Start(j, Schedules{Sweep: "* * * * *", Digest: "0 * * * *"})
	if err != nil {
		t.Fatal(err)
	}
	c.Stop()
}

package stats

import (
	"encoding/json"
	"testing"
)

func TestSnapshotReflectsCounters(t *testing.T) {
	var s Stats
	s.TotalConnections.Add(3)
	s.ActiveConnections.Add(2)
	s.CacheHits.Add(5)
	s.RateLimitRejects.Add(1)

	var snap Snapshot
	if err := json.Unmarshal(s.Snapshot(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.TotalConnections != 3 || snap.ActiveConnections != 2 || snap.CacheHits != 5 || snap.RateLimitRejects != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSnapshotZeroValue(t *testing.T) {
	var s Stats
	var snap Snapshot
	if err := json.Unmarshal(s.Snapshot(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap != (Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}

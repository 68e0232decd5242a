package store

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/model"
)

func snapshotAt(ts time.Time, connections int64) model.Snapshot {
	return model.Snapshot{
		Timestamp: ts,
		Database: model.DatabaseMetrics{
			Status:      model.StatusConnected,
			Connections: connections,
		},
	}
}

// TestBufferFIFOEviction verifies the ring never exceeds capacity and the
// oldest entry goes first.
func TestBufferFIFOEviction(t *testing.T) {
	const capacity = 5
	b := NewBuffer(capacity)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < capacity+1; i++ {
		b.Add(snapshotAt(base.Add(time.Duration(i)*time.Second), int64(i)))
	}

	if b.Len() != capacity {
		t.Fatalf("buffer length = %d, want %d", b.Len(), capacity)
	}
	snaps := b.Snapshots()
	if snaps[0].Database.Connections != 1 {
		t.Errorf("oldest entry = %d, want 1 (entry 0 evicted)", snaps[0].Database.Connections)
	}
	if snaps[len(snaps)-1].Database.Connections != capacity {
		t.Errorf("newest entry = %d, want %d", snaps[len(snaps)-1].Database.Connections, capacity)
	}
}

// TestBufferDefaultCapacity verifies nonsense capacities fall back to the
// stock 1000.
func TestBufferDefaultCapacity(t *testing.T) {
	if got := NewBuffer(0).Capacity(); got != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", got, DefaultCapacity)
	}
	if got := NewBuffer(-3).Capacity(); got != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", got, DefaultCapacity)
	}
}

// TestBufferSinceAndLatest covers the read paths used by reports and the API.
func TestBufferSinceAndLatest(t *testing.T) {
	b := NewBuffer(10)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		b.Add(snapshotAt(base.Add(time.Duration(i)*time.Minute), int64(i)))
	}

	recent := b.Since(base.Add(2 * time.Minute))
	if len(recent) != 2 {
		t.Fatalf("Since returned %d snapshots, want 2", len(recent))
	}

	latest, ok := b.Latest()
	if !ok || latest.Database.Connections != 4 {
		t.Errorf("Latest = %+v ok=%v, want connections 4", latest.Database, ok)
	}

	if _, ok := NewBuffer(3).Latest(); ok {
		t.Error("Latest on empty buffer reported ok")
	}
}

// TestFileSinkAppendsJSONLines verifies one parseable JSON line per call in
// a date-stamped file.
func TestFileSinkAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := sink.Append(snapshotAt(base.Add(time.Duration(i)*time.Second), int64(i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	f, err := os.Open(sink.Path())
	if err != nil {
		t.Fatalf("open metrics file: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var snap model.Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &snap); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if snap.Database.Connections != int64(lines) {
			t.Errorf("line %d connections = %d", lines, snap.Database.Connections)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("metrics file has %d lines, want 3", lines)
	}
}

// TestHistoryRoundTrip archives snapshots and reads them back by range.
func TestHistoryRoundTrip(t *testing.T) {
	h, err := OpenHistory(t.TempDir() + "/history.db")
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 4; i++ {
		if err := h.Insert(snapshotAt(base.Add(time.Duration(i)*time.Minute), int64(i))); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := h.Range(base.Add(time.Minute), base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Range returned %d snapshots, want 2", len(got))
	}
	if got[0].Database.Connections != 1 || got[1].Database.Connections != 2 {
		t.Errorf("unexpected rows: %+v", got)
	}

	purged, err := h.PurgeOlderThan(45 * time.Minute)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if purged == 0 {
		t.Error("expected purge to delete old snapshots")
	}
}

// TestStoreSaveFansOut verifies Save writes the buffer, the file, and the
// archive in one call.
func TestStoreSaveFansOut(t *testing.T) {
	dir := t.TempDir()
	h, err := OpenHistory(dir + "/history.db")
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	st := New(NewBuffer(10), NewFileSink(dir), h, logging.NewNop())
	st.Save(snapshotAt(time.Now(), 7))

	if st.Buffer().Len() != 1 {
		t.Errorf("buffer length = %d, want 1", st.Buffer().Len())
	}
	if _, err := os.Stat(NewFileSink(dir).Path()); err != nil {
		t.Errorf("metrics file missing: %v", err)
	}
	archived, err := h.Range(time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	if err != nil || len(archived) != 1 {
		t.Errorf("archive contains %d snapshots (err=%v), want 1", len(archived), err)
	}
}

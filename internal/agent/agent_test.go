package agent

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/levinOo/go-statistics-project/internal/auth"
	"github.com/levinOo/go-statistics-project/internal/config"
	"github.com/levinOo/go-statistics-project/internal/handler"
	"github.com/levinOo/go-statistics-project/internal/repository"
	"github.com/levinOo/go-statistics-project/pkg/client"
	"go.uber.org/zap"
)

func aSpoolEntry(ts time.Time) SpoolEntry {
	return SpoolEntry{
		Series:   "aTimeSeries",
		Distance: client.DistanceMinutes,
		Points: []client.TimeSeriesPoint{
			{Timestamp: ts, Measurements: map[string]int64{"antall": 2}},
		},
	}
}

func TestLoadSpoolMissingFile(t *testing.T) {
	entries, err := LoadSpool(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load of missing file failed: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestSpoolRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.json")
	ts := time.Date(2016, 3, 3, 20, 12, 13, 0, time.UTC)

	want := []SpoolEntry{aSpoolEntry(ts)}

	if err := SaveSpool(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := LoadSpool(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("loaded %d entries, want 1", len(got))
	}
	if got[0].Series != want[0].Series || got[0].Distance != want[0].Distance {
		t.Errorf("entry = %+v, want %+v", got[0], want[0])
	}
	if len(got[0].Points) != 1 || !got[0].Points[0].Timestamp.Equal(ts) {
		t.Errorf("points = %+v, want one point at %v", got[0].Points, ts)
	}
}

func TestLoadSpoolCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := LoadSpool(path); err == nil {
		t.Error("expected error on corrupt spool file")
	}
}

func newAgentTestClient(t *testing.T) (*client.Client, *httptest.Server) {
	t.Helper()

	authenticator := auth.NewStaticAuthenticator(map[string]string{"aUser": "aPassword"})
	router := handler.NewRouter(repository.NewMemStorage(), authenticator, zap.NewNop().Sugar(), config.Config{})
	srv := httptest.NewServer(router)

	c, err := client.New(client.Config{
		BaseURL:  srv.URL,
		Owner:    "aUser",
		Identity: "aUser",
		Secret:   "aPassword",
	})
	if err != nil {
		srv.Close()
		t.Fatalf("failed to create client: %v", err)
	}

	return c, srv
}

func TestProcessSpoolDelivers(t *testing.T) {
	c, srv := newAgentTestClient(t)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "spool.json")
	ts := time.Date(2016, 3, 3, 20, 12, 13, 0, time.UTC)

	if err := SaveSpool(path, []SpoolEntry{aSpoolEntry(ts)}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := ProcessSpool(c, path); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	entries, err := LoadSpool(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("spool holds %v after delivery, want empty", entries)
	}

	def := client.TimeSeriesDefinition{Name: "aTimeSeries", Distance: client.DistanceMinutes}
	last, err := c.Last(def)
	if err != nil {
		t.Fatalf("last failed: %v", err)
	}
	if last == nil || !last.Timestamp.Equal(ts) {
		t.Errorf("last = %+v, want delivered point at %v", last, ts)
	}
}

func TestProcessSpoolDropsAlreadyDelivered(t *testing.T) {
	c, srv := newAgentTestClient(t)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "spool.json")
	ts := time.Date(2016, 3, 3, 20, 12, 13, 0, time.UTC)
	entry := aSpoolEntry(ts)

	def := client.TimeSeriesDefinition{Name: entry.Series, Distance: entry.Distance}
	if err := c.IngestMany(def, entry.Points); err != nil {
		t.Fatalf("seed ingest failed: %v", err)
	}

	if err := SaveSpool(path, []SpoolEntry{entry}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Конфликт означает, что точки уже доставлены: запись снимается с очереди.
	if err := ProcessSpool(c, path); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	entries, err := LoadSpool(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("spool holds %v after conflict, want empty", entries)
	}
}

func TestProcessSpoolEmpty(t *testing.T) {
	c, srv := newAgentTestClient(t)
	defer srv.Close()

	if err := ProcessSpool(c, filepath.Join(t.TempDir(), "spool.json")); err != nil {
		t.Errorf("process of empty spool failed: %v", err)
	}
}

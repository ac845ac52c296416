package store

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"epigrid/internal/sim"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSinkStoresRecordsInOrder(t *testing.T) {
	db := openTemp(t)
	cfg := sim.DefaultConfig()
	cfg.Seed = 77

	sink, err := db.NewSink(cfg)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	want := []sim.Record{
		{Day: 0, Susceptible: 95, Infected: 5},
		{Day: 1, Susceptible: 90, Infected: 9, Recovered: 1, VaccinatedAny: 3, VaccineEffective: 3},
		{Day: 2, Susceptible: 80, Infected: 15, Recovered: 4, Dead: 1, AsymptomaticInfected: 6, LockdownActive: true},
	}
	for _, r := range want {
		sink.Emit(r)
	}
	if err := sink.Err(); err != nil {
		t.Fatalf("sink error: %v", err)
	}

	got, err := db.Records(sink.RunID())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records changed (-want +got):\n%s", diff)
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Seed != 77 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	var stored sim.Config
	if err := json.Unmarshal([]byte(runs[0].Config), &stored); err != nil {
		t.Fatalf("stored config: %v", err)
	}
	if stored != cfg {
		t.Fatalf("expected stored config %+v, got %+v", cfg, stored)
	}
}

func TestSinkLatchesFirstError(t *testing.T) {
	db := openTemp(t)
	sink, err := db.NewSink(sim.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	sink.Emit(sim.Record{Day: 0})
	sink.Emit(sim.Record{Day: 0})
	if sink.Err() == nil {
		t.Fatal("expected a duplicate day to fail")
	}
	first := sink.Err()
	sink.Emit(sim.Record{Day: 1})
	if sink.Err() != first {
		t.Fatal("expected the first error to be kept")
	}
	got, _ := db.Records(sink.RunID())
	if len(got) != 1 {
		t.Fatalf("expected records after the failure to be dropped, got %d", len(got))
	}
}

func TestRunKeepsFullSeedRange(t *testing.T) {
	db := openTemp(t)
	cfg := sim.DefaultConfig()
	cfg.Seed = math.MaxUint64 - 6

	if _, err := db.BeginRun(cfg); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Seed != cfg.Seed {
		t.Fatalf("expected seed %d, got %+v", cfg.Seed, runs)
	}
}

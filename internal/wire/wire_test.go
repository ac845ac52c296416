package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"

	"epigrid/internal/sim"
)

func TestRecordEncodingMatchesSchema(t *testing.T) {
	got := AppendRecord(nil, sim.Record{Day: 1, Infected: 300, LockdownActive: true})
	// field 1 varint 1, field 3 varint 300, field 9 varint 1
	want := []byte{0x08, 0x01, 0x18, 0xac, 0x02, 0x48, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("expected % x, got % x", want, got)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	rec := sim.Record{
		Day: 12, Susceptible: 1500, Infected: 210, Recovered: 250, Dead: 40,
		VaccinatedAny: 300, VaccineEffective: 280, AsymptomaticInfected: 70, LockdownActive: true,
	}
	data, err := MarshalFrame(Frame{Record: &rec})
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	f, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame: %v", err)
	}
	if f.Control != nil || f.Record == nil {
		t.Fatalf("expected a record frame, got %+v", f)
	}
	if diff := cmp.Diff(rec, *f.Record); diff != "" {
		t.Fatalf("record changed (-want +got):\n%s", diff)
	}

	rate := 0.35
	data, err = MarshalFrame(Frame{Control: &sim.ControlSettings{InfectionRate: &rate}})
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	f, err = UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame: %v", err)
	}
	if f.Control == nil || f.Control.InfectionRate == nil || *f.Control.InfectionRate != rate {
		t.Fatalf("expected infection rate %v, got %+v", rate, f.Control)
	}
	if f.Control.DailyVaccinationTargetPercentage != nil {
		t.Fatal("expected absent fields to stay nil")
	}
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := protowire.AppendTag(nil, 42, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = AppendRecord(b, sim.Record{Day: 7})
	r, err := UnmarshalRecord(b)
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}
	if r.Day != 7 {
		t.Fatalf("expected day 7, got %d", r.Day)
	}
}

func TestMalformedInput(t *testing.T) {
	if _, err := UnmarshalFrame(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
	if _, err := MarshalFrame(Frame{}); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
	truncated := AppendControl(nil, Snapshot(sim.ControlSnapshot{InfectionRate: 0.5}))
	if _, err := UnmarshalControl(truncated[:len(truncated)-3]); err == nil {
		t.Fatal("expected an error for a truncated control update")
	}
}

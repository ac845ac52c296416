// Package wire encodes the messages of proto/epigrid.proto with the low-level
// protobuf wire API, so browser clients holding the schema can decode frames
// without generated Go code on this side.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"epigrid/internal/sim"
)

// ErrEmptyFrame is returned for frames carrying neither payload.
var ErrEmptyFrame = errors.New("wire: frame has no payload")

// Field numbers of Frame.
const (
	frameRecord  protowire.Number = 1
	frameControl protowire.Number = 2
)

const recordLockdown protowire.Number = 9

// Frame is the envelope exchanged over the control socket. Exactly one field
// is set.
type Frame struct {
	Record  *sim.Record
	Control *sim.ControlSettings
}

func recordInts(r *sim.Record) []*int {
	return []*int{
		&r.Day, &r.Susceptible, &r.Infected, &r.Recovered, &r.Dead,
		&r.VaccinatedAny, &r.VaccineEffective, &r.AsymptomaticInfected,
	}
}

func controlFields(c *sim.ControlSettings) []**float64 {
	return []**float64{
		&c.InfectionRate,
		&c.DailyVaccinationTargetPercentage,
		&c.LockdownInfectionThresholdPercentage,
		&c.MigrationEventProbability,
	}
}

// AppendRecord appends the DayRecord encoding of r to b.
func AppendRecord(b []byte, r sim.Record) []byte {
	for i, v := range recordInts(&r) {
		if *v == 0 {
			continue
		}
		b = protowire.AppendTag(b, protowire.Number(i+1), protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(*v)))
	}
	if r.LockdownActive {
		b = protowire.AppendTag(b, recordLockdown, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

// UnmarshalRecord decodes a DayRecord.
func UnmarshalRecord(b []byte) (sim.Record, error) {
	var r sim.Record
	ints := recordInts(&r)
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return skip(num, typ, b)
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return n, protowire.ParseError(n)
		}
		switch {
		case num >= 1 && int(num) <= len(ints):
			*ints[num-1] = int(int64(v))
		case num == recordLockdown:
			r.LockdownActive = protowire.DecodeBool(v)
		}
		return n, nil
	})
	if err != nil {
		return sim.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

// AppendControl appends the ControlUpdate encoding of c to b. Nil fields are
// omitted.
func AppendControl(b []byte, c sim.ControlSettings) []byte {
	for i, v := range controlFields(&c) {
		if *v == nil {
			continue
		}
		b = protowire.AppendTag(b, protowire.Number(i+1), protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(**v))
	}
	return b
}

// UnmarshalControl decodes a ControlUpdate.
func UnmarshalControl(b []byte) (sim.ControlSettings, error) {
	var c sim.ControlSettings
	fields := controlFields(&c)
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.Fixed64Type || num < 1 || int(num) > len(fields) {
			return skip(num, typ, b)
		}
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return n, protowire.ParseError(n)
		}
		f := math.Float64frombits(v)
		*fields[num-1] = &f
		return n, nil
	})
	if err != nil {
		return sim.ControlSettings{}, fmt.Errorf("decode control: %w", err)
	}
	return c, nil
}

// Snapshot converts effective control values into a fully populated update.
func Snapshot(s sim.ControlSnapshot) sim.ControlSettings {
	return sim.ControlSettings{
		InfectionRate:                        &s.InfectionRate,
		DailyVaccinationTargetPercentage:     &s.DailyVaccinationTargetPercentage,
		LockdownInfectionThresholdPercentage: &s.LockdownInfectionThresholdPercentage,
		MigrationEventProbability:            &s.MigrationEventProbability,
	}
}

// MarshalFrame encodes f.
func MarshalFrame(f Frame) ([]byte, error) {
	switch {
	case f.Record != nil && f.Control != nil:
		return nil, errors.New("wire: frame has both payloads")
	case f.Record != nil:
		b := protowire.AppendTag(nil, frameRecord, protowire.BytesType)
		return protowire.AppendBytes(b, AppendRecord(nil, *f.Record)), nil
	case f.Control != nil:
		b := protowire.AppendTag(nil, frameControl, protowire.BytesType)
		return protowire.AppendBytes(b, AppendControl(nil, *f.Control)), nil
	}
	return nil, ErrEmptyFrame
}

// UnmarshalFrame decodes a Frame. When a payload field repeats, the last one
// wins.
func UnmarshalFrame(b []byte) (Frame, error) {
	var f Frame
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType || (num != frameRecord && num != frameControl) {
			return skip(num, typ, b)
		}
		payload, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, protowire.ParseError(n)
		}
		if num == frameRecord {
			r, err := UnmarshalRecord(payload)
			if err != nil {
				return n, err
			}
			f.Record, f.Control = &r, nil
			return n, nil
		}
		c, err := UnmarshalControl(payload)
		if err != nil {
			return n, err
		}
		f.Record, f.Control = nil, &c
		return n, nil
	})
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Record == nil && f.Control == nil {
		return Frame{}, ErrEmptyFrame
	}
	return f, nil
}

// walk calls field for every tag in b. field consumes the value that follows
// the tag and returns how many bytes it used.
func walk(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func skip(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	return n, nil
}

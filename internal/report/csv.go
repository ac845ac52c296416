package report

import (
	"encoding/csv"
	"io"

	"epigrid/internal/sim"
)

// CSVSink writes one row per day in sim.RecordHeader column order. The
// header is written before the first record.
type CSVSink struct {
	w      *csv.Writer
	header bool
	err    error
}

// NewCSVSink returns a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// Emit writes r and flushes, so the log is complete up to the last day even
// if the process stops.
func (s *CSVSink) Emit(r sim.Record) {
	if s.err != nil {
		return
	}
	if !s.header {
		if s.err = s.w.Write(sim.RecordHeader); s.err != nil {
			return
		}
		s.header = true
	}
	if s.err = s.w.Write(r.Row()); s.err != nil {
		return
	}
	s.w.Flush()
	s.err = s.w.Error()
}

// Err returns the first write error, if any.
func (s *CSVSink) Err() error { return s.err }

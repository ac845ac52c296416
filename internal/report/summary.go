// Package report turns a run's per-day records into files and statistics:
// a CSV log, a PNG trajectory chart and a short summary.
package report

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"epigrid/internal/sim"
)

// Summary condenses a trajectory.
type Summary struct {
	Days         int     `json:"days"`
	PeakInfected int     `json:"peak_infected"`
	PeakDay      int     `json:"peak_day"`
	MeanInfected float64 `json:"mean_infected"`
	TotalDeaths  int     `json:"total_deaths"`
	LockdownDays int     `json:"lockdown_days"`
	// AttackRate is the share of everyone ever created who is no longer
	// susceptible at the end.
	AttackRate float64 `json:"attack_rate"`
}

// Summarize computes a Summary. The zero Summary is returned for an empty
// trajectory.
func Summarize(records []sim.Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	infected := make([]float64, len(records))
	var s Summary
	for i, r := range records {
		infected[i] = float64(r.Infected)
		if r.LockdownActive {
			s.LockdownDays++
		}
	}
	peak := floats.MaxIdx(infected)
	last := records[len(records)-1]

	s.Days = len(records)
	s.PeakInfected = records[peak].Infected
	s.PeakDay = records[peak].Day
	s.MeanInfected = stat.Mean(infected, nil)
	s.TotalDeaths = last.Dead
	if total := last.Total(); total > 0 {
		s.AttackRate = 1 - float64(last.Susceptible)/float64(total)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"%d days, peak %d infected on day %d, mean %.1f infected, %d deaths, %d days in lockdown, attack rate %.1f%%",
		s.Days, s.PeakInfected, s.PeakDay, s.MeanInfected, s.TotalDeaths, s.LockdownDays, s.AttackRate*100,
	)
}

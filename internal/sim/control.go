package sim

import "math"

// ControlSettings carries live adjustments to a running simulation. Nil
// fields are left unchanged.
type ControlSettings struct {
	InfectionRate                        *float64
	DailyVaccinationTargetPercentage     *float64
	LockdownInfectionThresholdPercentage *float64
	MigrationEventProbability            *float64
}

// ControlSnapshot is the effective value of every live control.
type ControlSnapshot struct {
	InfectionRate                        float64
	DailyVaccinationTargetPercentage     float64
	LockdownInfectionThresholdPercentage float64
	MigrationEventProbability            float64
}

// ApplyControlSettings clamps each provided value to [0,1] and applies it
// from the next simulated day on. NaN values are ignored.
func (s *Simulation) ApplyControlSettings(settings ControlSettings) ControlSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply := func(dst *float64, v *float64) {
		if v != nil && !math.IsNaN(*v) {
			*dst = clamp01(*v)
		}
	}
	apply(&s.cfg.InfectionRate, settings.InfectionRate)
	apply(&s.cfg.DailyVaccinationTargetPercentage, settings.DailyVaccinationTargetPercentage)
	apply(&s.cfg.LockdownInfectionThresholdPercentage, settings.LockdownInfectionThresholdPercentage)
	apply(&s.cfg.MigrationEventProbability, settings.MigrationEventProbability)

	s.logger.Info("control settings applied",
		"infection_rate", s.cfg.InfectionRate,
		"vaccination_target", s.cfg.DailyVaccinationTargetPercentage,
		"lockdown_threshold", s.cfg.LockdownInfectionThresholdPercentage,
		"migration_probability", s.cfg.MigrationEventProbability,
	)
	return s.controlSnapshot()
}

// Controls returns the effective live controls.
func (s *Simulation) Controls() ControlSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controlSnapshot()
}

func (s *Simulation) controlSnapshot() ControlSnapshot {
	return ControlSnapshot{
		InfectionRate:                        s.cfg.InfectionRate,
		DailyVaccinationTargetPercentage:     s.cfg.DailyVaccinationTargetPercentage,
		LockdownInfectionThresholdPercentage: s.cfg.LockdownInfectionThresholdPercentage,
		MigrationEventProbability:            s.cfg.MigrationEventProbability,
	}
}

package sim

import "math"

const (
	riskMaskBoost      = 1.5
	riskMaskWeight     = 0.5
	conformityBoost    = 1.2
	conformityFraction = 0.5
)

// PerceivedRisk is the fraction of others around p that are infected.
// others must not contain p. Dead neighbors count toward the total.
func PerceivedRisk(others []*Person) float64 {
	if len(others) == 0 {
		return 0
	}
	infected := 0
	for _, o := range others {
		if o.State == Infected {
			infected++
		}
	}
	return float64(infected) / float64(len(others))
}

// MaskProbability is the chance that p wears a mask today given its perceived
// risk and the people immediately around it.
func MaskProbability(p *Person, nearby []*Person, lockdown bool, cfg Config) float64 {
	prob := p.Traits.MaskNormal
	if lockdown {
		prob = p.Traits.MaskLockdown
	}
	if p.PerceivedRisk > cfg.MaskingRiskThreshold {
		prob = math.Min(1, prob*riskMaskBoost+p.PerceivedRisk*riskMaskWeight)
	}
	if len(nearby) > 0 {
		masked := 0
		for _, o := range nearby {
			if o.Masked {
				masked++
			}
		}
		if float64(masked) > float64(len(nearby))*conformityFraction {
			prob = math.Min(1, prob*conformityBoost)
		}
	}
	return prob
}

// DailyMobility returns p's effective mobility for today after lockdown
// compliance and voluntary isolation are applied to its permanent type.
func DailyMobility(p *Person, lockdown bool, cfg Config, rng *RNG) Mobility {
	mode := p.Mobility
	if lockdown {
		if rng.Chance(p.Traits.LockdownCompliance) && !(p.Mobility == Essential && p.Age > 14) {
			mode = Isolated
		}
		return mode
	}
	if p.Mobility == Essential && p.PerceivedRisk > cfg.VoluntaryIsolationRiskThreshold &&
		rng.Chance(p.Traits.VoluntaryIsolation) {
		mode = Isolated
	}
	return mode
}

// othersAround returns the people within radius of p, including its own cell,
// without p itself.
func (s *Simulation) othersAround(p *Person, radius int) []*Person {
	pos, _ := s.grid.PosOf(p)
	all := s.grid.Neighbors(pos, radius, true)
	out := make([]*Person, 0, len(all))
	for _, o := range all {
		if o != p {
			out = append(out, o)
		}
	}
	return out
}

// perceiveAndMask refreshes p's perceived risk and masking decision.
func (s *Simulation) perceiveAndMask(p *Person) {
	p.PerceivedRisk = PerceivedRisk(s.othersAround(p, s.cfg.RiskPerceptionRadius))
	nearby := s.othersAround(p, 1)
	p.Masked = s.rng.Chance(MaskProbability(p, nearby, s.lockdown.active, s.cfg))
}

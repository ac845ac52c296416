package sim

// MortalityRate is the chance that p dies when its infection resolves.
//
// The vaccine constants multiply the base rate directly, so a smaller
// constant means stronger protection.
func MortalityRate(p *Person, cfg Config) float64 {
	var base float64
	switch {
	case p.Age < 19:
		base = 0.00003
	case p.Age < 29:
		base = 0.00014
	case p.Age < 39:
		base = 0.00039
	case p.Age < 49:
		base = 0.00096
	case p.Age < 59:
		base = 0.00219
	case p.Age < 69:
		base = 0.00470
	case p.Age < 79:
		base = 0.01060
	default:
		base = 0.03253
	}
	base *= cfg.SeverityMultiplier
	if p.Vaccinated {
		if p.VaccineWaned {
			base *= cfg.VaccineMortalityReductionWaned
		} else {
			base *= cfg.VaccineMortalityReduction
		}
	}
	return base
}

// TransmissionProbability is the chance that infector passes the disease to
// susceptible during one contact. The result is always within [0, 1].
func TransmissionProbability(infector, susceptible *Person, cfg Config) float64 {
	modifier := 1.0
	switch {
	case infector.Masked && susceptible.Masked:
		modifier *= cfg.MaskEffectBoth
	case infector.Masked || susceptible.Masked:
		modifier *= cfg.MaskEffectOne
	}
	if infector.Asymptomatic {
		modifier *= cfg.AsymptomaticInfectiousnessModifier
	}
	if infector.Vaccinated {
		reduction := cfg.VaccineTransmissionReductionInfector
		if infector.VaccineWaned {
			reduction = cfg.VaccineTransmissionReductionInfectorWaned
		}
		modifier *= 1 - vaccineProtection(reduction, cfg.VaccineEscapeTransFactor)
	}
	if susceptible.Vaccinated {
		reduction := cfg.VaccineSusceptibilityReductionSusceptible
		if susceptible.VaccineWaned {
			reduction = cfg.VaccineSusceptibilityReductionSusceptibleWaned
		}
		modifier *= 1 - vaccineProtection(reduction, cfg.VaccineEscapeSusFactor)
	}
	return clamp01(cfg.InfectionRate * modifier)
}

func vaccineProtection(reduction, escape float64) float64 {
	return (1 - reduction) * (1 - escape)
}

// advanceDisease runs the daily immunity and infection timers for p and
// reports whether p died today.
func advanceDisease(p *Person, cfg Config, rng *RNG) (died bool) {
	if p.State == Recovered {
		p.DaysSinceRecovery++
		if p.DaysSinceRecovery > cfg.NaturalImmunityDuration {
			p.State = Susceptible
			p.DaysSinceRecovery = 0
		}
	}
	if p.Vaccinated && !p.VaccineWaned {
		p.DaysSinceVaccination++
		if p.DaysSinceVaccination > cfg.VaccineImmunityDuration {
			p.VaccineWaned = true
		}
	}
	if p.State != Infected {
		return false
	}
	p.DaysInfected++
	if p.DaysInfected < recoveryDays {
		return false
	}
	if rng.Chance(MortalityRate(p, cfg)) {
		p.State = Dead
		return true
	}
	p.State = Recovered
	p.DaysInfected = 0
	p.DaysSinceRecovery = 0
	return false
}

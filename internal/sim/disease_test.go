package sim

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func TestMortalityRateByAge(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		age  int
		want float64
	}{
		{5, 0.00003},
		{25, 0.00014},
		{35, 0.00039},
		{45, 0.00096},
		{55, 0.00219},
		{65, 0.00470},
		{75, 0.01060},
		{85, 0.03253},
	}
	for _, c := range cases {
		if got := MortalityRate(&Person{Age: c.age}, cfg); !approx(got, c.want) {
			t.Fatalf("age %d: expected %v, got %v", c.age, c.want, got)
		}
	}
}

func TestMortalityRateVaccineMultipliesDirectly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeverityMultiplier = 2

	p := &Person{Age: 85, Vaccinated: true}
	if got, want := MortalityRate(p, cfg), 0.03253*2*0.1; !approx(got, want) {
		t.Fatalf("expected %v for fresh vaccine, got %v", want, got)
	}
	p.VaccineWaned = true
	if got, want := MortalityRate(p, cfg), 0.03253*2*0.4; !approx(got, want) {
		t.Fatalf("expected %v for waned vaccine, got %v", want, got)
	}
}

func TestTransmissionProbabilityModifiers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InfectionRate = 0.5

	cases := []struct {
		name        string
		infector    Person
		susceptible Person
		want        float64
	}{
		{"nobody masked", Person{}, Person{}, 0.5},
		{"both masked", Person{Masked: true}, Person{Masked: true}, 0.5 * 0.2},
		{"one masked", Person{}, Person{Masked: true}, 0.5 * 0.5},
		{"asymptomatic infector", Person{Asymptomatic: true}, Person{}, 0.5 * 0.5},
		// protection (1-0.4)*(1-0) = 0.6 leaves 0.4
		{"vaccinated infector", Person{Vaccinated: true}, Person{}, 0.5 * 0.4},
		// protection (1-0.7) = 0.3 leaves 0.7
		{"waned infector", Person{Vaccinated: true, VaccineWaned: true}, Person{}, 0.5 * 0.7},
		// protection (1-0.3) = 0.7 leaves 0.3
		{"vaccinated susceptible", Person{}, Person{Vaccinated: true}, 0.5 * 0.3},
		{"waned susceptible", Person{}, Person{Vaccinated: true, VaccineWaned: true}, 0.5 * 0.6},
		{
			"everything",
			Person{Masked: true, Asymptomatic: true, Vaccinated: true},
			Person{Masked: true, Vaccinated: true},
			0.5 * 0.2 * 0.5 * 0.4 * 0.3,
		},
	}
	for _, c := range cases {
		if got := TransmissionProbability(&c.infector, &c.susceptible, cfg); !approx(got, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestTransmissionProbabilityEscapeRestoresTransmission(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InfectionRate = 0.5
	cfg.VaccineEscapeSusFactor = 1
	cfg.VaccineEscapeTransFactor = 1

	got := TransmissionProbability(&Person{Vaccinated: true}, &Person{Vaccinated: true}, cfg)
	if !approx(got, 0.5) {
		t.Fatalf("full escape should cancel vaccine protection, got %v", got)
	}
}

func TestTransmissionProbabilityBounded(t *testing.T) {
	levels := []float64{0, 0.5, 1}
	people := []Person{
		{},
		{Masked: true},
		{Asymptomatic: true},
		{Vaccinated: true},
		{Vaccinated: true, VaccineWaned: true, Masked: true, Asymptomatic: true},
	}
	for _, rate := range levels {
		for _, mask := range levels {
			for _, vacc := range levels {
				for _, escape := range levels {
					cfg := DefaultConfig()
					cfg.InfectionRate = rate
					cfg.MaskEffectBoth, cfg.MaskEffectOne = mask, mask
					cfg.AsymptomaticInfectiousnessModifier = mask
					cfg.VaccineTransmissionReductionInfector = vacc
					cfg.VaccineTransmissionReductionInfectorWaned = vacc
					cfg.VaccineSusceptibilityReductionSusceptible = vacc
					cfg.VaccineSusceptibilityReductionSusceptibleWaned = vacc
					cfg.VaccineEscapeSusFactor, cfg.VaccineEscapeTransFactor = escape, escape
					for i := range people {
						for j := range people {
							p := TransmissionProbability(&people[i], &people[j], cfg)
							if p < 0 || p > 1 || math.IsNaN(p) {
								t.Fatalf("probability %v out of range for %+v", p, cfg)
							}
						}
					}
				}
			}
		}
	}
}

func TestInfectionResolvesToRecovery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeverityMultiplier = 0
	rng := NewRNG(1)

	p := &Person{Age: 85, State: Infected, DaysInfected: recoveryDays - 1, DaysSinceRecovery: 7}
	if died := advanceDisease(p, cfg, rng); died {
		t.Fatal("expected no death with zero severity")
	}
	if p.State != Recovered || p.DaysInfected != 0 || p.DaysSinceRecovery != 0 {
		t.Fatalf("expected fresh recovery, got %+v", p)
	}
}

func TestInfectionProgressesBeforeResolution(t *testing.T) {
	cfg := DefaultConfig()
	p := &Person{Age: 30, State: Infected, DaysInfected: 3}
	advanceDisease(p, cfg, NewRNG(1))
	if p.State != Infected || p.DaysInfected != 4 {
		t.Fatalf("expected infection day 4, got %+v", p)
	}
}

func TestNaturalImmunityWanes(t *testing.T) {
	cfg := DefaultConfig()
	p := &Person{State: Recovered, DaysSinceRecovery: cfg.NaturalImmunityDuration - 1}
	advanceDisease(p, cfg, NewRNG(1))
	if p.State != Recovered {
		t.Fatalf("expected immunity to hold on its last day, got %v", p.State)
	}
	advanceDisease(p, cfg, NewRNG(1))
	if p.State != Susceptible || p.DaysSinceRecovery != 0 {
		t.Fatalf("expected immunity to wane, got %+v", p)
	}
}

func TestVaccineWanesButStaysVaccinated(t *testing.T) {
	cfg := DefaultConfig()
	p := &Person{Vaccinated: true, DaysSinceVaccination: cfg.VaccineImmunityDuration}
	advanceDisease(p, cfg, NewRNG(1))
	if !p.VaccineWaned || !p.Vaccinated {
		t.Fatalf("expected waned but vaccinated, got %+v", p)
	}
	advanceDisease(p, cfg, NewRNG(1))
	if p.DaysSinceVaccination != cfg.VaccineImmunityDuration+1 {
		t.Fatalf("expected vaccination counter to stop after waning, got %d", p.DaysSinceVaccination)
	}
}

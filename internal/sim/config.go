package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every construction-time parameter of a run.
type Config struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	MaxDays int     `json:"max_days"`
	Seed    uint64  `json:"seed"`
	Density float64 `json:"density"`

	InfectionRate                      float64 `json:"infection_rate"`
	MaskingRate                        float64 `json:"masking_rate"`
	SeverityMultiplier                 float64 `json:"severity_multiplier"`
	AsymptomaticRate                   float64 `json:"asymptomatic_rate"`
	AsymptomaticInfectiousnessModifier float64 `json:"asymptomatic_infectiousness_modifier"`
	MaskEffectBoth                     float64 `json:"mask_effect_both"`
	MaskEffectOne                      float64 `json:"mask_effect_one"`

	NaturalImmunityDuration int `json:"natural_immunity_duration"`
	VaccineImmunityDuration int `json:"vaccine_immunity_duration"`

	DailyVaccinationTargetPercentage               float64 `json:"daily_vaccination_target_percentage"`
	VaccineEscapeSusFactor                         float64 `json:"vaccine_escape_sus_factor"`
	VaccineEscapeTransFactor                       float64 `json:"vaccine_escape_trans_factor"`
	VaccineTransmissionReductionInfector           float64 `json:"vaccine_transmission_reduction_infector"`
	VaccineSusceptibilityReductionSusceptible      float64 `json:"vaccine_susceptibility_reduction_susceptible"`
	VaccineMortalityReduction                      float64 `json:"vaccine_mortality_reduction"`
	VaccineTransmissionReductionInfectorWaned      float64 `json:"vaccine_transmission_reduction_infector_waned"`
	VaccineSusceptibilityReductionSusceptibleWaned float64 `json:"vaccine_susceptibility_reduction_susceptible_waned"`
	VaccineMortalityReductionWaned                 float64 `json:"vaccine_mortality_reduction_waned"`
	RespectVaccineWillingness                      bool    `json:"respect_vaccine_willingness"`

	MigrationEventProbability float64 `json:"migration_event_probability"`
	NumMigrantsPerEvent       int     `json:"num_migrants_per_event"`

	EssentialWorkerRate                  float64 `json:"essential_worker_rate"`
	LockdownInfectionThresholdPercentage float64 `json:"lockdown_infection_threshold_percentage"`

	AvgMaskPropensityNormal         float64 `json:"avg_mask_propensity_normal"`
	AvgMaskPropensityLockdown       float64 `json:"avg_mask_propensity_lockdown"`
	AvgLockdownCompliance           float64 `json:"avg_lockdown_compliance"`
	AvgPropVoluntaryIsolation       float64 `json:"avg_prop_voluntary_isolation"`
	AvgVaccineWillingness           float64 `json:"avg_vaccine_willingness"`
	MaskingRiskThreshold            float64 `json:"masking_risk_threshold"`
	VoluntaryIsolationRiskThreshold float64 `json:"voluntary_isolation_risk_threshold"`
	RiskPerceptionRadius            int     `json:"risk_perception_radius"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:   50,
		Height:  50,
		MaxDays: 150,
		Seed:    1337,
		Density: 0.8,

		InfectionRate:                      0.05,
		MaskingRate:                        0.1,
		SeverityMultiplier:                 1.0,
		AsymptomaticRate:                   0.35,
		AsymptomaticInfectiousnessModifier: 0.5,
		MaskEffectBoth:                     0.2,
		MaskEffectOne:                      0.5,

		NaturalImmunityDuration: 180,
		VaccineImmunityDuration: 150,

		DailyVaccinationTargetPercentage:               0.01,
		VaccineTransmissionReductionInfector:           0.4,
		VaccineSusceptibilityReductionSusceptible:      0.3,
		VaccineMortalityReduction:                      0.1,
		VaccineTransmissionReductionInfectorWaned:      0.7,
		VaccineSusceptibilityReductionSusceptibleWaned: 0.6,
		VaccineMortalityReductionWaned:                 0.4,

		MigrationEventProbability: 0.05,
		NumMigrantsPerEvent:       1,

		EssentialWorkerRate:                  0.3,
		LockdownInfectionThresholdPercentage: 0.1,

		AvgMaskPropensityNormal:         0.3,
		AvgMaskPropensityLockdown:       0.8,
		AvgLockdownCompliance:           0.9,
		AvgPropVoluntaryIsolation:       0.25,
		AvgVaccineWillingness:           0.7,
		MaskingRiskThreshold:            0.1,
		VoluntaryIsolationRiskThreshold: 0.5,
		RiskPerceptionRadius:            1,
	}
}

// TargetPopulation is the number of people seeded at initialization.
func (c Config) TargetPopulation() int {
	return int(float64(c.Width*c.Height) * c.Density)
}

// Validate reports the first parameter that would leave the run in a
// degenerate state.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: grid must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.MaxDays <= 0 {
		return fmt.Errorf("%w: max_days must be positive, got %d", ErrInvalidConfig, c.MaxDays)
	}
	for _, f := range c.unitFields() {
		if !(f.v >= 0 && f.v <= 1) {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidConfig, f.key, f.v)
		}
	}
	if c.TargetPopulation() <= 0 {
		return fmt.Errorf("%w: density %v yields no population on a %dx%d grid", ErrInvalidConfig, c.Density, c.Width, c.Height)
	}
	if c.NaturalImmunityDuration < 0 || c.VaccineImmunityDuration < 0 {
		return fmt.Errorf("%w: immunity durations must not be negative", ErrInvalidConfig)
	}
	if c.NumMigrantsPerEvent < 0 {
		return fmt.Errorf("%w: num_migrants_per_event must not be negative", ErrInvalidConfig)
	}
	if c.RiskPerceptionRadius < 0 {
		return fmt.Errorf("%w: risk_perception_radius must not be negative", ErrInvalidConfig)
	}
	if !(c.SeverityMultiplier >= 0) || math.IsInf(c.SeverityMultiplier, 1) {
		return fmt.Errorf("%w: severity_multiplier must be finite and not negative, got %v", ErrInvalidConfig, c.SeverityMultiplier)
	}
	return nil
}

type unitField struct {
	key string
	v   float64
}

func (c Config) unitFields() []unitField {
	return []unitField{
		{"density", c.Density},
		{"infection_rate", c.InfectionRate},
		{"masking_rate", c.MaskingRate},
		{"asymptomatic_rate", c.AsymptomaticRate},
		{"asymptomatic_infectiousness_modifier", c.AsymptomaticInfectiousnessModifier},
		{"mask_effect_both", c.MaskEffectBoth},
		{"mask_effect_one", c.MaskEffectOne},
		{"daily_vaccination_target_percentage", c.DailyVaccinationTargetPercentage},
		{"vaccine_escape_sus_factor", c.VaccineEscapeSusFactor},
		{"vaccine_escape_trans_factor", c.VaccineEscapeTransFactor},
		{"vaccine_transmission_reduction_infector", c.VaccineTransmissionReductionInfector},
		{"vaccine_susceptibility_reduction_susceptible", c.VaccineSusceptibilityReductionSusceptible},
		{"vaccine_mortality_reduction", c.VaccineMortalityReduction},
		{"vaccine_transmission_reduction_infector_waned", c.VaccineTransmissionReductionInfectorWaned},
		{"vaccine_susceptibility_reduction_susceptible_waned", c.VaccineSusceptibilityReductionSusceptibleWaned},
		{"vaccine_mortality_reduction_waned", c.VaccineMortalityReductionWaned},
		{"migration_event_probability", c.MigrationEventProbability},
		{"essential_worker_rate", c.EssentialWorkerRate},
		{"lockdown_infection_threshold_percentage", c.LockdownInfectionThresholdPercentage},
		{"avg_mask_propensity_normal", c.AvgMaskPropensityNormal},
		{"avg_mask_propensity_lockdown", c.AvgMaskPropensityLockdown},
		{"avg_lockdown_compliance", c.AvgLockdownCompliance},
		{"avg_prop_voluntary_isolation", c.AvgPropVoluntaryIsolation},
		{"avg_vaccine_willingness", c.AvgVaccineWillingness},
		{"masking_risk_threshold", c.MaskingRiskThreshold},
		{"voluntary_isolation_risk_threshold", c.VoluntaryIsolationRiskThreshold},
	}
}

func (c *Config) intFields() map[string]*int {
	return map[string]*int{
		"width":                     &c.Width,
		"height":                    &c.Height,
		"max_days":                  &c.MaxDays,
		"natural_immunity_duration": &c.NaturalImmunityDuration,
		"vaccine_immunity_duration": &c.VaccineImmunityDuration,
		"num_migrants_per_event":    &c.NumMigrantsPerEvent,
		"risk_perception_radius":    &c.RiskPerceptionRadius,
	}
}

func (c *Config) floatFields() map[string]*float64 {
	return map[string]*float64{
		"density":                                            &c.Density,
		"infection_rate":                                     &c.InfectionRate,
		"masking_rate":                                       &c.MaskingRate,
		"severity_multiplier":                                &c.SeverityMultiplier,
		"asymptomatic_rate":                                  &c.AsymptomaticRate,
		"asymptomatic_infectiousness_modifier":               &c.AsymptomaticInfectiousnessModifier,
		"mask_effect_both":                                   &c.MaskEffectBoth,
		"mask_effect_one":                                    &c.MaskEffectOne,
		"daily_vaccination_target_percentage":                &c.DailyVaccinationTargetPercentage,
		"vaccine_escape_sus_factor":                          &c.VaccineEscapeSusFactor,
		"vaccine_escape_trans_factor":                        &c.VaccineEscapeTransFactor,
		"vaccine_transmission_reduction_infector":            &c.VaccineTransmissionReductionInfector,
		"vaccine_susceptibility_reduction_susceptible":       &c.VaccineSusceptibilityReductionSusceptible,
		"vaccine_mortality_reduction":                        &c.VaccineMortalityReduction,
		"vaccine_transmission_reduction_infector_waned":      &c.VaccineTransmissionReductionInfectorWaned,
		"vaccine_susceptibility_reduction_susceptible_waned": &c.VaccineSusceptibilityReductionSusceptibleWaned,
		"vaccine_mortality_reduction_waned":                  &c.VaccineMortalityReductionWaned,
		"migration_event_probability":                        &c.MigrationEventProbability,
		"essential_worker_rate":                              &c.EssentialWorkerRate,
		"lockdown_infection_threshold_percentage":            &c.LockdownInfectionThresholdPercentage,
		"avg_mask_propensity_normal":                         &c.AvgMaskPropensityNormal,
		"avg_mask_propensity_lockdown":                       &c.AvgMaskPropensityLockdown,
		"avg_lockdown_compliance":                            &c.AvgLockdownCompliance,
		"avg_prop_voluntary_isolation":                       &c.AvgPropVoluntaryIsolation,
		"avg_vaccine_willingness":                            &c.AvgVaccineWillingness,
		"masking_risk_threshold":                             &c.MaskingRiskThreshold,
		"voluntary_isolation_risk_threshold":                 &c.VoluntaryIsolationRiskThreshold,
	}
}

// Keys lists every parameter name accepted by Set, sorted.
func (c Config) Keys() []string {
	keys := []string{"seed", "respect_vaccine_willingness"}
	for k := range c.intFields() {
		keys = append(keys, k)
	}
	for k := range c.floatFields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value into the parameter named key. It does not validate ranges;
// call Validate once all overrides are applied.
func (c *Config) Set(key, value string) error {
	switch key {
	case "seed":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: seed: %w", ErrInvalidConfig, err)
		}
		c.Seed = v
		return nil
	case "respect_vaccine_willingness":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
		}
		c.RespectVaccineWillingness = v
		return nil
	}
	if p, ok := c.intFields()[key]; ok {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
		}
		*p = v
		return nil
	}
	if p, ok := c.floatFields()[key]; ok {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
		}
		*p = v
		return nil
	}
	return fmt.Errorf("%w: unknown parameter %q", ErrInvalidConfig, key)
}

// FromMap applies string overrides on top of DefaultConfig and validates the
// result.
func FromMap(overrides map[string]string) (Config, error) {
	c := DefaultConfig()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.Set(k, overrides[k]); err != nil {
			return c, err
		}
	}
	return c, c.Validate()
}

// Overrides collects repeated key=value flags for FromMap.
type Overrides map[string]string

func (o Overrides) String() string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + o[k]
	}
	return strings.Join(parts, ",")
}

// Set records one key=value pair.
func (o Overrides) Set(kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return fmt.Errorf("%w: expected key=value, got %q", ErrInvalidConfig, kv)
	}
	o[strings.TrimSpace(key)] = strings.TrimSpace(value)
	return nil
}

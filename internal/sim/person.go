package sim

import "epigrid/internal/grid"

// DiseaseState is a person's position in the infection lifecycle.
type DiseaseState uint8

const (
	Susceptible DiseaseState = iota
	Infected
	Recovered
	Dead
)

func (s DiseaseState) String() string {
	switch s {
	case Susceptible:
		return "Susceptible"
	case Infected:
		return "Infected"
	case Recovered:
		return "Recovered"
	case Dead:
		return "Dead"
	}
	return "Unknown"
}

// Mobility decides whether a person commutes or stays home.
type Mobility uint8

const (
	Isolated Mobility = iota
	Essential
)

func (m Mobility) String() string {
	switch m {
	case Isolated:
		return "isolated"
	case Essential:
		return "essential"
	}
	return "unknown"
}

// Location tracks where a person is in the home/work commute.
type Location uint8

const (
	AtHome Location = iota
	AtWork
	GoingToWork
	GoingToHome
)

func (l Location) String() string {
	switch l {
	case AtHome:
		return "at_home"
	case AtWork:
		return "at_work"
	case GoingToWork:
		return "going_to_work"
	case GoingToHome:
		return "going_to_home"
	}
	return "unknown"
}

const recoveryDays = 14

var (
	ageCohorts = []int{5, 15, 25, 35, 45, 55, 65, 75, 85}
	ageWeights = []float64{.117, .131, .136, .135, .124, .128, .118, .073, .039}
)

// Trait standard deviations around the configured population means.
const (
	sigmaMaskNormal         = 0.2
	sigmaMaskLockdown       = 0.15
	sigmaVoluntaryIsolation = 0.2
	sigmaLockdownCompliance = 0.15
	sigmaVaccineWillingness = 0.25
)

// Traits are per-person behavioral propensities, fixed at creation.
type Traits struct {
	MaskNormal         float64 `json:"mask_normal"`
	MaskLockdown       float64 `json:"mask_lockdown"`
	VoluntaryIsolation float64 `json:"voluntary_isolation"`
	LockdownCompliance float64 `json:"lockdown_compliance"`
	VaccineWillingness float64 `json:"vaccine_willingness"`
}

// Person is a simulated individual.
type Person struct {
	ID       int      `json:"id"`
	Age      int      `json:"age"`
	Mobility Mobility `json:"mobility"`
	Traits   Traits   `json:"traits"`

	State             DiseaseState `json:"state"`
	DaysInfected      int          `json:"days_infected"`
	DaysSinceRecovery int          `json:"days_since_recovery"`
	Asymptomatic      bool         `json:"asymptomatic"`

	Vaccinated           bool `json:"vaccinated"`
	VaccineWaned         bool `json:"vaccine_waned"`
	DaysSinceVaccination int  `json:"days_since_vaccination"`

	Masked        bool    `json:"masked"`
	PerceivedRisk float64 `json:"perceived_risk"`

	Home     grid.Pos  `json:"home"`
	Work     *grid.Pos `json:"work,omitempty"`
	Location Location  `json:"location"`
}

// newPerson draws demographics and traits. The caller assigns home and work.
func newPerson(id int, cfg Config, rng *RNG) *Person {
	p := &Person{ID: id, Age: ageCohorts[rng.Pick(ageWeights)]}
	if p.Age < 65 && rng.Chance(cfg.EssentialWorkerRate) {
		p.Mobility = Essential
	}
	p.Traits = Traits{
		MaskNormal:         rng.ClippedNormal(cfg.AvgMaskPropensityNormal, sigmaMaskNormal),
		MaskLockdown:       rng.ClippedNormal(cfg.AvgMaskPropensityLockdown, sigmaMaskLockdown),
		VoluntaryIsolation: rng.ClippedNormal(cfg.AvgPropVoluntaryIsolation, sigmaVoluntaryIsolation),
		LockdownCompliance: rng.ClippedNormal(cfg.AvgLockdownCompliance, sigmaLockdownCompliance),
		VaccineWillingness: rng.ClippedNormal(cfg.AvgVaccineWillingness, sigmaVaccineWillingness),
	}
	return p
}

// assignWork gives essential workers a uniformly chosen workplace.
func (p *Person) assignWork(workplaces []grid.Pos, rng *RNG) {
	p.Work = nil
	if p.Mobility != Essential || len(workplaces) == 0 {
		return
	}
	w := workplaces[rng.IntN(len(workplaces))]
	p.Work = &w
}

// infect moves p into the Infected state, drawing its asymptomatic flag.
func (p *Person) infect(cfg Config, rng *RNG) {
	p.State = Infected
	p.Asymptomatic = rng.Chance(cfg.AsymptomaticRate)
	p.DaysInfected = 0
}

// Commuter reports whether p follows the home/work commute when free to move.
func (p *Person) Commuter() bool {
	return p.Mobility == Essential && p.Age > 14 && p.Work != nil
}

package sim

import "strconv"

// Record is the aggregate state of the population at the end of a day.
type Record struct {
	Day                  int  `json:"day" db:"day"`
	Susceptible          int  `json:"susceptible" db:"susceptible"`
	Infected             int  `json:"infected" db:"infected"`
	Recovered            int  `json:"recovered" db:"recovered"`
	Dead                 int  `json:"dead" db:"dead"`
	VaccinatedAny        int  `json:"vaccinated_any" db:"vaccinated_any"`
	VaccineEffective     int  `json:"vaccine_effective" db:"vaccine_effective"`
	AsymptomaticInfected int  `json:"asymptomatic_infected" db:"asymptomatic_infected"`
	LockdownActive       bool `json:"lockdown_active" db:"lockdown_active"`
}

// Total is the number of people counted by the record.
func (r Record) Total() int {
	return r.Susceptible + r.Infected + r.Recovered + r.Dead
}

// Living is the number of people not dead.
func (r Record) Living() int {
	return r.Susceptible + r.Infected + r.Recovered
}

// RecordHeader is the column order downstream log consumers expect.
var RecordHeader = []string{
	"Day", "Susceptible", "Infected", "Recovered", "Dead",
	"Vaccinated (Any)", "Vaccine Effective", "Asymptomatic", "LockdownActive",
}

// Row renders r in RecordHeader order.
func (r Record) Row() []string {
	lockdown := "0"
	if r.LockdownActive {
		lockdown = "1"
	}
	return []string{
		strconv.Itoa(r.Day),
		strconv.Itoa(r.Susceptible),
		strconv.Itoa(r.Infected),
		strconv.Itoa(r.Recovered),
		strconv.Itoa(r.Dead),
		strconv.Itoa(r.VaccinatedAny),
		strconv.Itoa(r.VaccineEffective),
		strconv.Itoa(r.AsymptomaticInfected),
		lockdown,
	}
}

// MetricsSink consumes one record per simulated day. Emit is called
// synchronously between days and must not fail; sinks doing I/O keep their
// own error state.
type MetricsSink interface {
	Emit(Record)
}

// SinkFunc adapts a function to MetricsSink.
type SinkFunc func(Record)

// Emit calls f(r).
func (f SinkFunc) Emit(r Record) { f(r) }

// MultiSink fans records out to several sinks in order.
type MultiSink []MetricsSink

// Emit forwards r to every sink.
func (m MultiSink) Emit(r Record) {
	for _, s := range m {
		s.Emit(r)
	}
}

// count tallies the current population.
func count(people []*Person, day int, lockdown bool) Record {
	r := Record{Day: day, LockdownActive: lockdown}
	for _, p := range people {
		switch p.State {
		case Susceptible:
			r.Susceptible++
		case Infected:
			r.Infected++
			if p.Asymptomatic {
				r.AsymptomaticInfected++
			}
		case Recovered:
			r.Recovered++
		case Dead:
			r.Dead++
		}
		if p.Vaccinated {
			r.VaccinatedAny++
			if !p.VaccineWaned {
				r.VaccineEffective++
			}
		}
	}
	return r
}

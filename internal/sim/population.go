package sim

import (
	"fmt"
	"slices"

	"epigrid/internal/grid"
)

const (
	workplaceShare         = 0.01
	minHouseholdSize       = 2
	maxHouseholdSize       = 6
	initialInfectionChance = 0.02
)

func (s *Simulation) randomPos() grid.Pos {
	x := s.rng.IntN(s.cfg.Width)
	y := s.rng.IntN(s.cfg.Height)
	return grid.Pos{X: x, Y: y}
}

// placeWorkplaces picks about one percent of the cells, at least one, as
// distinct workplaces.
func (s *Simulation) placeWorkplaces() {
	cells := s.cfg.Width * s.cfg.Height
	want := max(1, int(float64(cells)*workplaceShare))
	want = min(want, cells)
	for attempts := 0; len(s.workplaces) < want && attempts < cells*2; attempts++ {
		p := s.randomPos()
		if !slices.Contains(s.workplaces, p) {
			s.workplaces = append(s.workplaces, p)
		}
	}
	if len(s.workplaces) == 0 {
		s.workplaces = append(s.workplaces, s.randomPos())
	}
}

// populate claims shuffled cells as homes and fills each with a household
// until the density-derived population is reached.
func (s *Simulation) populate() error {
	target := s.cfg.TargetPopulation()
	cells := make([]grid.Pos, 0, s.cfg.Width*s.cfg.Height)
	for x := 0; x < s.cfg.Width; x++ {
		for y := 0; y < s.cfg.Height; y++ {
			cells = append(cells, grid.Pos{X: x, Y: y})
		}
	}
	s.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	for _, home := range cells {
		if len(s.people) >= target {
			break
		}
		s.homes = append(s.homes, home)
		size := minHouseholdSize + s.rng.IntN(maxHouseholdSize-minHouseholdSize+1)
		size = min(size, target-len(s.people))
		for range size {
			p := s.spawn(home)
			if s.rng.Chance(initialInfectionChance) {
				p.infect(s.cfg, s.rng)
			}
			p.Masked = s.rng.Chance(s.cfg.MaskingRate)
		}
	}
	if len(s.people) == 0 {
		return fmt.Errorf("%w: no people could be placed", ErrInvalidConfig)
	}
	return nil
}

// spawn creates a person living at home and puts it on the grid there.
func (s *Simulation) spawn(home grid.Pos) *Person {
	p := newPerson(s.nextID, s.cfg, s.rng)
	s.nextID++
	p.Home = home
	p.Location = AtHome
	p.assignWork(s.workplaces, s.rng)
	s.grid.Place(p, home)
	s.people = append(s.people, p)
	return p
}

// introduceMigrants adds infected, unmasked, unvaccinated newcomers at
// random cells, which become their homes.
func (s *Simulation) introduceMigrants() {
	for range s.cfg.NumMigrantsPerEvent {
		home := s.randomPos()
		p := s.spawn(home)
		p.infect(s.cfg, s.rng)
		p.Masked = false
		p.Vaccinated = false
	}
	if s.cfg.NumMigrantsPerEvent > 0 {
		s.logger.Info("migrants arrived", "day", s.day, "count", s.cfg.NumMigrantsPerEvent)
	}
}

// vaccinate runs the daily campaign: a shuffled pool of susceptible,
// unvaccinated people is vaccinated up to the day's target.
func (s *Simulation) vaccinate() int {
	living := 0
	for _, p := range s.people {
		if p.State != Dead {
			living++
		}
	}
	target := int(float64(living) * s.cfg.DailyVaccinationTargetPercentage)
	if target <= 0 {
		return 0
	}
	var pool []*Person
	for _, p := range s.people {
		if p.State != Susceptible || p.Vaccinated {
			continue
		}
		if s.cfg.RespectVaccineWillingness && !s.rng.Chance(p.Traits.VaccineWillingness) {
			continue
		}
		pool = append(pool, p)
	}
	if len(pool) == 0 {
		return 0
	}
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	n := min(target, len(pool))
	for _, p := range pool[:n] {
		p.Vaccinated = true
		p.VaccineWaned = false
		p.DaysSinceVaccination = 0
	}
	s.logger.Debug("vaccination campaign", "day", s.day, "target", target, "vaccinated", n)
	return n
}

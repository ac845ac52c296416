package sim

import (
	"testing"

	"epigrid/internal/grid"
)

func smallConfig() Config {
	c := DefaultConfig()
	c.Width = 20
	c.Height = 20
	c.MaxDays = 60
	return c
}

func mustNew(t *testing.T, cfg Config) *Simulation {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// bareSim builds a simulation with an empty grid so tests can place people by
// hand.
func bareSim(t *testing.T, cfg Config) *Simulation {
	t.Helper()
	s, err := newSimulation(cfg, nil)
	if err != nil {
		t.Fatalf("newSimulation: %v", err)
	}
	return s
}

func addPerson(s *Simulation, p *Person, at grid.Pos) *Person {
	p.ID = s.nextID
	s.nextID++
	s.people = append(s.people, p)
	s.grid.Place(p, at)
	return p
}

func posPtr(x, y int) *grid.Pos {
	return &grid.Pos{X: x, Y: y}
}

package sim

import (
	"fmt"

	"epigrid/internal/grid"
)

// State is a complete, serializable copy of a simulation, including the
// position of its random stream. Restoring a State and stepping it yields the
// same trajectory the captured simulation would have produced.
type State struct {
	Config           Config     `json:"config"`
	Day              int        `json:"day"`
	Running          bool       `json:"running"`
	LockdownActive   bool       `json:"lockdown_active"`
	LockdownEndDay   int        `json:"lockdown_end_day"`
	CumulativeDeaths int        `json:"cumulative_deaths"`
	RNG              []byte     `json:"rng"`
	Workplaces       []grid.Pos `json:"workplaces"`
	Homes            []grid.Pos `json:"homes"`
	People           []Person   `json:"people"`
	Cells            []Cell     `json:"cells"`
}

// Cell lists the people in one grid cell in their occupancy order.
type Cell struct {
	Pos grid.Pos `json:"pos"`
	IDs []int    `json:"ids"`
}

// Capture copies the full simulation state.
func (s *Simulation) Capture() (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rng, err := s.rng.MarshalBinary()
	if err != nil {
		return State{}, fmt.Errorf("capture rng: %w", err)
	}
	st := State{
		Config:           s.cfg,
		Day:              s.day,
		Running:          s.running,
		LockdownActive:   s.lockdown.active,
		LockdownEndDay:   s.lockdown.endDay,
		CumulativeDeaths: s.cumulativeDeaths,
		RNG:              rng,
		Workplaces:       append([]grid.Pos(nil), s.workplaces...),
		Homes:            append([]grid.Pos(nil), s.homes...),
		People:           make([]Person, len(s.people)),
	}
	for i, p := range s.people {
		st.People[i] = *p
		if p.Work != nil {
			w := *p.Work
			st.People[i].Work = &w
		}
	}
	s.grid.Cells(func(pos grid.Pos, occ []*Person) {
		c := Cell{Pos: pos, IDs: make([]int, len(occ))}
		for i, p := range occ {
			c.IDs[i] = p.ID
		}
		st.Cells = append(st.Cells, c)
	})
	return st, nil
}

// Restore rebuilds a simulation from a captured State.
func Restore(st State, opts ...Option) (*Simulation, error) {
	s, err := newSimulation(st.Config, opts)
	if err != nil {
		return nil, err
	}
	if err := s.rng.UnmarshalBinary(st.RNG); err != nil {
		return nil, fmt.Errorf("restore rng: %w", err)
	}
	s.day = st.Day
	s.running = st.Running
	s.lockdown = lockdown{active: st.LockdownActive, endDay: st.LockdownEndDay}
	s.cumulativeDeaths = st.CumulativeDeaths
	s.workplaces = append([]grid.Pos(nil), st.Workplaces...)
	s.homes = append([]grid.Pos(nil), st.Homes...)

	s.people = make([]*Person, len(st.People))
	for i := range st.People {
		p := st.People[i]
		if p.ID != i {
			return nil, fmt.Errorf("restore: person at index %d has id %d", i, p.ID)
		}
		if p.State > Dead || p.Mobility > Essential || p.Location > GoingToHome {
			return nil, fmt.Errorf("restore: person %d has state %d, mobility %d, location %d",
				i, p.State, p.Mobility, p.Location)
		}
		if p.Work != nil {
			w := *p.Work
			p.Work = &w
		}
		s.people[i] = &p
	}
	s.nextID = len(s.people)

	placed := 0
	for _, c := range st.Cells {
		for _, id := range c.IDs {
			if id < 0 || id >= len(s.people) {
				return nil, fmt.Errorf("restore: cell %v references unknown person %d", c.Pos, id)
			}
			s.grid.Place(s.people[id], c.Pos)
			placed++
		}
	}
	if placed != len(s.people) || s.grid.Len() != len(s.people) {
		return nil, fmt.Errorf("restore: %d of %d people placed on the grid", s.grid.Len(), len(s.people))
	}
	return s, nil
}

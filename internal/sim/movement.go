package sim

import "epigrid/internal/grid"

const commuteChance = 0.75

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// StepToward returns the cell one Chebyshev step from `from` in the direction
// of `to`. Each axis moves by at most one cell.
func StepToward(from, to grid.Pos) grid.Pos {
	return grid.Pos{X: from.X + sign(to.X-from.X), Y: from.Y + sign(to.Y-from.Y)}
}

// moveToward advances p one step toward target and settles its location
// status on arrival.
func (s *Simulation) moveToward(p *Person, target grid.Pos) {
	pos, _ := s.grid.PosOf(p)
	if pos != target {
		s.grid.Move(p, StepToward(pos, target))
		pos, _ = s.grid.PosOf(p)
	}
	s.settle(p, pos)
}

func (s *Simulation) settle(p *Person, pos grid.Pos) {
	switch {
	case pos == p.Home:
		p.Location = AtHome
	case p.Work != nil && pos == *p.Work:
		p.Location = AtWork
	}
}

// move executes one day of movement for p under the given effective mobility.
func (s *Simulation) move(p *Person, mode Mobility) {
	pos, _ := s.grid.PosOf(p)
	if mode != Essential || !p.Commuter() {
		if pos == p.Home {
			p.Location = AtHome
			return
		}
		p.Location = GoingToHome
		s.moveToward(p, p.Home)
		return
	}

	work := *p.Work
	var target *grid.Pos
	switch {
	case p.Location == GoingToWork && pos != work:
		target = &work
	case p.Location == GoingToHome && pos != p.Home:
		target = &p.Home
	case s.rng.Chance(commuteChance):
		if p.Location == AtHome && pos != work {
			target = &work
			p.Location = GoingToWork
		} else if p.Location == AtWork && pos != p.Home {
			target = &p.Home
			p.Location = GoingToHome
		}
	}
	if target == nil {
		s.settle(p, pos)
		return
	}
	s.moveToward(p, *target)
}

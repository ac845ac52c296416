package sim

import (
	"testing"

	"epigrid/internal/grid"
)

func TestStepToward(t *testing.T) {
	cases := []struct {
		from, to, want grid.Pos
	}{
		{grid.Pos{X: 0, Y: 0}, grid.Pos{X: 5, Y: 5}, grid.Pos{X: 1, Y: 1}},
		{grid.Pos{X: 5, Y: 5}, grid.Pos{X: 0, Y: 9}, grid.Pos{X: 4, Y: 6}},
		{grid.Pos{X: 3, Y: 3}, grid.Pos{X: 3, Y: 0}, grid.Pos{X: 3, Y: 2}},
		{grid.Pos{X: 3, Y: 3}, grid.Pos{X: 3, Y: 3}, grid.Pos{X: 3, Y: 3}},
	}
	for _, c := range cases {
		if got := StepToward(c.from, c.to); got != c.want {
			t.Fatalf("StepToward(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsolatedPersonWalksHome(t *testing.T) {
	s := bareSim(t, smallConfig())
	p := addPerson(s, &Person{Age: 70, Mobility: Isolated, Home: grid.Pos{X: 0, Y: 0}}, grid.Pos{X: 3, Y: 1})

	for day := 1; day <= 3; day++ {
		s.move(p, Isolated)
		pos, _ := s.grid.PosOf(p)
		if day < 3 && p.Location != GoingToHome {
			t.Fatalf("day %d: expected going_to_home at %v, got %v", day, pos, p.Location)
		}
	}
	pos, _ := s.grid.PosOf(p)
	if pos != p.Home || p.Location != AtHome {
		t.Fatalf("expected to be home after three steps, got %v %v", pos, p.Location)
	}
	s.move(p, Isolated)
	if pos, _ := s.grid.PosOf(p); pos != p.Home || p.Location != AtHome {
		t.Fatalf("expected to hold at home, got %v %v", pos, p.Location)
	}
}

func TestEssentialWorkerUnderIsolationReturnsHome(t *testing.T) {
	s := bareSim(t, smallConfig())
	p := addPerson(s, &Person{
		Age:      30,
		Mobility: Essential,
		Home:     grid.Pos{X: 2, Y: 2},
		Work:     posPtr(4, 2),
		Location: AtWork,
	}, grid.Pos{X: 4, Y: 2})

	s.move(p, Isolated)
	s.move(p, Isolated)
	if pos, _ := s.grid.PosOf(p); pos != p.Home || p.Location != AtHome {
		t.Fatalf("expected isolated worker back home, got %v %v", pos, p.Location)
	}
}

func TestCommuteInProgressContinues(t *testing.T) {
	s := bareSim(t, smallConfig())
	p := addPerson(s, &Person{
		Age:      30,
		Mobility: Essential,
		Home:     grid.Pos{X: 0, Y: 0},
		Work:     posPtr(3, 0),
		Location: GoingToWork,
	}, grid.Pos{X: 1, Y: 0})

	s.move(p, Essential)
	if pos, _ := s.grid.PosOf(p); pos != (grid.Pos{X: 2, Y: 0}) || p.Location != GoingToWork {
		t.Fatalf("expected commute to continue, got %v %v", pos, p.Location)
	}
	s.move(p, Essential)
	if pos, _ := s.grid.PosOf(p); pos != *p.Work || p.Location != AtWork {
		t.Fatalf("expected arrival at work, got %v %v", pos, p.Location)
	}
}

func TestCommuteRoundTrip(t *testing.T) {
	s := bareSim(t, smallConfig())
	p := addPerson(s, &Person{
		Age:      30,
		Mobility: Essential,
		Home:     grid.Pos{X: 1, Y: 1},
		Work:     posPtr(4, 6),
	}, grid.Pos{X: 1, Y: 1})

	reachedWork, backHome := false, false
	prev, _ := s.grid.PosOf(p)
	for day := 0; day < 200 && !backHome; day++ {
		s.move(p, Essential)
		pos, _ := s.grid.PosOf(p)
		if dx, dy := pos.X-prev.X, pos.Y-prev.Y; dx < -1 || dx > 1 || dy < -1 || dy > 1 {
			t.Fatalf("day %d: moved more than one cell per axis from %v to %v", day, prev, pos)
		}
		prev = pos
		if pos == *p.Work {
			if p.Location != AtWork {
				t.Fatalf("expected at_work on arrival, got %v", p.Location)
			}
			reachedWork = true
		}
		if reachedWork && pos == p.Home && p.Location == AtHome {
			backHome = true
		}
	}
	if !reachedWork || !backHome {
		t.Fatalf("expected a full commute, reachedWork=%v backHome=%v", reachedWork, backHome)
	}
}

func TestUnderageEssentialDoesNotCommute(t *testing.T) {
	s := bareSim(t, smallConfig())
	p := addPerson(s, &Person{
		Age:      5,
		Mobility: Essential,
		Home:     grid.Pos{X: 1, Y: 1},
		Work:     posPtr(4, 6),
	}, grid.Pos{X: 1, Y: 1})

	for range 20 {
		s.move(p, Essential)
	}
	if pos, _ := s.grid.PosOf(p); pos != p.Home || p.Location != AtHome {
		t.Fatalf("expected child to stay home, got %v %v", pos, p.Location)
	}
}

package sim

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"epigrid/internal/grid"
)

// extinctionGraceDays is how long a run continues with zero infections
// before it stops on its own.
const extinctionGraceDays = 10

// Simulation is the population controller: it owns the grid, the people and
// the random stream, and advances them one day at a time.
type Simulation struct {
	mu sync.RWMutex

	cfg    Config
	rng    *RNG
	grid   *grid.Grid[*Person]
	people []*Person

	workplaces []grid.Pos
	homes      []grid.Pos

	day              int
	lockdown         lockdown
	cumulativeDeaths int
	nextID           int
	running          bool

	sink   MetricsSink
	logger *log.Logger
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithLogger routes engine events to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSink registers the consumer of per-day records.
func WithSink(sink MetricsSink) Option {
	return func(s *Simulation) { s.sink = sink }
}

func newSimulation(cfg Config, opts []Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := grid.New[*Person](cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s := &Simulation{
		cfg:      cfg,
		rng:      NewRNG(cfg.Seed),
		grid:     g,
		lockdown: lockdown{endDay: -1},
		running:  true,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// New validates cfg and seeds workplaces and households.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	s, err := newSimulation(cfg, opts)
	if err != nil {
		return nil, err
	}
	s.placeWorkplaces()
	if err := s.populate(); err != nil {
		return nil, err
	}
	s.logger.Info("simulation initialized",
		"seed", cfg.Seed,
		"grid", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"people", len(s.people),
		"households", len(s.homes),
		"workplaces", len(s.workplaces),
	)
	return s, nil
}

// Step advances the simulation by one day, emits the day's record to the sink
// and returns it. Calling Step after the run has terminated is a no-op that
// returns the current counts.
func (s *Simulation) Step() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return count(s.people, s.day, s.lockdown.active)
	}

	s.updateLockdown()
	if s.rng.Chance(s.cfg.MigrationEventProbability) {
		s.introduceMigrants()
	}
	s.vaccinate()

	order := make([]*Person, len(s.people))
	copy(order, s.people)
	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, p := range order {
		s.activate(p)
	}

	rec := count(s.people, s.day, s.lockdown.active)
	if s.sink != nil {
		s.sink.Emit(rec)
	}

	s.day++
	switch {
	case rec.Infected == 0 && s.day > extinctionGraceDays:
		s.running = false
		s.logger.Info("outbreak extinct", "day", s.day, "deaths", s.cumulativeDeaths)
	case s.day >= s.cfg.MaxDays:
		s.running = false
		s.logger.Info("reached day limit", "day", s.day, "deaths", s.cumulativeDeaths)
	}
	return rec
}

func (s *Simulation) updateLockdown() {
	rec := count(s.people, s.day, s.lockdown.active)
	switch s.lockdown.evaluate(s.day, rec.Infected, rec.Living(), s.cfg.LockdownInfectionThresholdPercentage) {
	case lockdownStarted:
		s.logger.Info("lockdown initiated",
			"day", s.day,
			"ends", s.lockdown.endDay,
			"infected", fmt.Sprintf("%.2f%%", 100*float64(rec.Infected)/float64(rec.Living())),
		)
	case lockdownEnded:
		s.logger.Info("lockdown ended", "day", s.day)
	}
}

// activate runs one person's full turn.
func (s *Simulation) activate(p *Person) {
	if p.State == Dead {
		return
	}
	s.perceiveAndMask(p)
	if advanceDisease(p, s.cfg, s.rng) {
		s.cumulativeDeaths++
		s.logger.Debug("death", "day", s.day, "id", p.ID, "age", p.Age)
		return
	}
	s.move(p, DailyMobility(p, s.lockdown.active, s.cfg, s.rng))
	if p.State == Infected {
		s.spread(p)
	}
}

// spread exposes every susceptible person in the adjacent cells to p.
func (s *Simulation) spread(p *Person) {
	pos, _ := s.grid.PosOf(p)
	for _, n := range s.grid.Neighbors(pos, 1, false) {
		if n.State != Susceptible {
			continue
		}
		if s.rng.Chance(TransmissionProbability(p, n, s.cfg)) {
			n.infect(s.cfg, s.rng)
		}
	}
}

// RunToCompletion steps until the run terminates or ctx is cancelled and
// returns every record produced.
func (s *Simulation) RunToCompletion(ctx context.Context) ([]Record, error) {
	var out []Record
	for s.Running() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, s.Step())
	}
	return out, nil
}

// Run steps once per interval until the run terminates or ctx is done,
// forwarding each record to report.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, report func(Record)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for s.Running() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec := s.Step()
			if report != nil {
				report(rec)
			}
		}
	}
}

// Running reports whether the run has not yet terminated.
func (s *Simulation) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Day returns the index of the next day to be simulated.
func (s *Simulation) Day() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.day
}

// LockdownActive reports whether a lockdown is in force.
func (s *Simulation) LockdownActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lockdown.active
}

// CumulativeDeaths returns how many people have died since the start.
func (s *Simulation) CumulativeDeaths() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cumulativeDeaths
}

// Counts tallies the population as it stands now.
func (s *Simulation) Counts() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.people, s.day, s.lockdown.active)
}

// Config returns the configuration currently in effect.
func (s *Simulation) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// People returns copies of every person ever created, in creation order.
func (s *Simulation) People() []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Person, len(s.people))
	for i, p := range s.people {
		out[i] = *p
		if p.Work != nil {
			w := *p.Work
			out[i].Work = &w
		}
	}
	return out
}

// PositionOf returns the cell occupied by the person with the given id.
func (s *Simulation) PositionOf(id int) (grid.Pos, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.people) {
		return grid.Pos{}, false
	}
	return s.grid.PosOf(s.people[id])
}

// Workplaces returns the workplace cells.
func (s *Simulation) Workplaces() []grid.Pos {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]grid.Pos(nil), s.workplaces...)
}

// Homes returns the household cells.
func (s *Simulation) Homes() []grid.Pos {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]grid.Pos(nil), s.homes...)
}

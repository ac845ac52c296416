package sim

const lockdownDurationDays = 14

// lockdown is the population-wide lockdown state machine.
type lockdown struct {
	active bool
	endDay int
}

type lockdownChange uint8

const (
	lockdownUnchanged lockdownChange = iota
	lockdownStarted
	lockdownEnded
)

// evaluate runs the day's transitions. Activation is checked before expiry,
// so a lockdown cannot re-trigger on the day it ends.
func (l *lockdown) evaluate(day, infected, living int, threshold float64) lockdownChange {
	change := lockdownUnchanged
	if !l.active && living > 0 && float64(infected)/float64(living) >= threshold {
		l.active = true
		l.endDay = day + lockdownDurationDays
		change = lockdownStarted
	}
	if l.active && day >= l.endDay {
		l.active = false
		l.endDay = -1
		change = lockdownEnded
	}
	return change
}

package transition

import (
	"time"

	"projwarp/internal/logging"
	"projwarp/internal/projection"
)

// Default durations.
const (
	VectorDuration = 500 * time.Millisecond
	RasterDuration = 1200 * time.Millisecond
)

// Clock supplies the time transitions are measured against.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Transition is one timed handoff from Prev to Next.
type Transition struct {
	Prev     Side
	Next     Side
	Strategy Strategy
	Start    time.Time
	Duration time.Duration
}

// Progress returns the linear progress at now in [0, 1].
func (tr *Transition) Progress(now time.Time) float64 {
	if tr.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(tr.Start)) / float64(tr.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Eased returns the eased progress at now.
func (tr *Transition) Eased(now time.Time) float64 {
	return EaseInOutCubic(tr.Progress(now))
}

// Projector returns the intermediate projector at eased progress t. It is
// nil for crossfades, which blend rendered output instead.
func (tr *Transition) Projector(t float64) projection.Projector {
	switch tr.Strategy {
	case InterpolateRaw:
		return RawProjector(tr.Prev.Configured, tr.Next.Configured, t)
	case InterpolateTransform:
		return TransformProjector{Prev: tr.Prev.Proj, Next: tr.Next.Proj, T: t}
	}
	return nil
}

// Snapshot freezes the transition at eased progress t so a new transition
// can start from what is on screen. A crossfade snapshots to its dominant side.
func (tr *Transition) Snapshot(t float64) Side {
	switch tr.Strategy {
	case Crossfade:
		if t < 0.5 {
			return tr.Prev
		}
		return tr.Next
	case InterpolateRaw:
		return NewSide(RawProjector(tr.Prev.Configured, tr.Next.Configured, t))
	}
	return Side{
		Proj:   tr.Projector(t),
		Params: InterpolateParams(tr.Prev.Params, tr.Next.Params, t),
	}
}

// State is the machine's coarse state.
type State int

const (
	Idle State = iota
	Transitioning
)

func (s State) String() string {
	if s == Transitioning {
		return "transitioning"
	}
	return "idle"
}

// Machine holds at most one active transition.
type Machine struct {
	active *Transition
}

// State reports whether a transition is active.
func (m *Machine) State() State {
	if m.active != nil {
		return Transitioning
	}
	return Idle
}

// Active returns the running transition or nil.
func (m *Machine) Active() *Transition { return m.active }

// Begin starts a transition from prev to next, replacing any active one.
func (m *Machine) Begin(prev, next Side, start time.Time, d time.Duration) *Transition {
	tr := &Transition{
		Prev:     prev,
		Next:     next,
		Strategy: Select(prev, next),
		Start:    start,
		Duration: d,
	}
	if m.active != nil {
		logging.Logger().Debug("transition: retarget", "from", prev.ID(), "to", next.ID())
	}
	m.active = tr
	logging.Logger().Debug("transition: begin", "from", prev.ID(), "to", next.ID(),
		"strategy", tr.Strategy.String(), "duration", d)
	return tr
}

// Advance returns the active transition and its eased progress at now. When
// the transition has finished it is cleared and done is true; callers then
// render the exact target.
func (m *Machine) Advance(now time.Time) (tr *Transition, t float64, done bool) {
	tr = m.active
	if tr == nil {
		return nil, 1, true
	}
	if tr.Progress(now) >= 1 {
		m.active = nil
		logging.Logger().Debug("transition: complete", "to", tr.Next.ID())
		return tr, 1, true
	}
	return tr, tr.Eased(now), false
}

// Cancel drops the active transition.
func (m *Machine) Cancel() {
	m.active = nil
}

// Package roaming implements the playback state machine: Idle, Active and
// Paused, plus the independent editing flag.
package roaming

import (
	"errors"
	"fmt"
	"time"

	"github.com/philipparndt/splatroam/internal/metrics"
	"github.com/philipparndt/splatroam/internal/motion"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/rs/zerolog"
)

// State of the machine
type State int

const (
	Idle State = iota
	Active
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrTooFewPoints is shown to the author when roaming a short path
	ErrTooFewPoints      = errors.New("a path needs at least 2 points to roam")
	ErrInvalidTransition = errors.New("invalid roaming transition")
)

// Machine is the single source of roaming state. The frame loop reads it
// through Tick.
type Machine struct {
	motion   *motion.Controller
	controls scene.Controls
	alpha    float64
	log      zerolog.Logger
	metrics  *metrics.Instruments

	state     State
	editing   bool
	observers []func(from, to State)
}

// New creates an idle machine
func New(ctrl *motion.Controller, controls scene.Controls, curveAlpha float64, log zerolog.Logger, m *metrics.Instruments) *Machine {
	return &Machine{
		motion:   ctrl,
		controls: controls,
		alpha:    curveAlpha,
		log:      log.With().Str("component", "roaming").Logger(),
		metrics:  m,
	}
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Roaming reports whether playback is active or paused
func (m *Machine) Roaming() bool {
	return m.state != Idle
}

// Editing reports whether new points may be placed
func (m *Machine) Editing() bool {
	return m.editing
}

// SetEditing toggles point placement
func (m *Machine) SetEditing(editing bool) {
	m.editing = editing
}

// Progress returns the roaming progress
func (m *Machine) Progress() float64 {
	return m.motion.Progress()
}

// OnChange registers a state change observer
func (m *Machine) OnChange(fn func(from, to State)) {
	m.observers = append(m.observers, fn)
}

// Start begins roaming along the curve through points. With fewer than
// 2 points it returns ErrTooFewPoints and nothing changes.
func (m *Machine) Start(points []geometry.Vector3) error {
	if m.state != Idle {
		return fmt.Errorf("start while %s: %w", m.state, ErrInvalidTransition)
	}
	curve, ok := geometry.NewCatmullRom(points, m.alpha)
	if !ok {
		return ErrTooFewPoints
	}

	m.motion.Begin(curve)
	m.controls.SetEnabled(false)
	m.set(Active)
	m.motion.FlyToCurrent(nil)
	m.log.Info().Int("points", len(points)).Float64("length", curve.Length()).Msg("Roaming started")
	return nil
}

// Pause stops advancing while keeping the roaming state
func (m *Machine) Pause() error {
	if m.state != Active {
		return fmt.Errorf("pause while %s: %w", m.state, ErrInvalidTransition)
	}
	m.set(Paused)
	return nil
}

// Resume flies back onto the curve and continues playback
func (m *Machine) Resume() error {
	if m.state != Paused {
		return fmt.Errorf("resume while %s: %w", m.state, ErrInvalidTransition)
	}
	m.set(Active)
	m.motion.FlyToCurrent(nil)
	return nil
}

// Exit stops roaming, hands the camera back to the controls and flies to
// the pose captured at start.
func (m *Machine) Exit() error {
	if m.state == Idle {
		return fmt.Errorf("exit while %s: %w", m.state, ErrInvalidTransition)
	}
	m.motion.Cancel()
	m.controls.SetEnabled(true)
	m.set(Idle)
	m.motion.Restore(func() {
		m.log.Info().Msg("Roaming exited")
	})
	return nil
}

// Tick advances transitions and, while active and not in transit, playback
func (m *Machine) Tick(dt time.Duration) {
	m.motion.Update(dt)
	if m.state == Active && !m.motion.Flying() {
		m.motion.Advance()
	}
}

func (m *Machine) set(to State) {
	from := m.state
	m.state = to
	m.metrics.Transition(from.String(), to.String())
	for _, fn := range m.observers {
		fn(from, to)
	}
}

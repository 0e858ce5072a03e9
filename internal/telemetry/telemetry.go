// Package telemetry reads the camera pose back into UI-observable state once
// per frame, coalescing bursts into a single pending update.
package telemetry

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/philipparndt/splatroam/internal/roaming"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/scene"
)

// Readout is one telemetry sample
type Readout struct {
	Position geometry.Vector3
	// Rotation holds XYZ Euler angles in degrees
	Rotation geometry.Vector3
	Target   geometry.Vector3
	State    roaming.State
	Progress float64
}

func (r Readout) String() string {
	return fmt.Sprintf("pos %s rot %s target %s %s %.1f%%",
		r.Position, r.Rotation, r.Target, r.State, r.Progress*100)
}

// Source provides the roaming state
type Source interface {
	State() roaming.State
	Progress() float64
}

// Scheduler runs a job later on the goroutine that owns the UI
type Scheduler func(func())

// Immediate runs jobs synchronously
func Immediate(job func()) {
	job()
}

// Sync publishes readouts to subscribers
type Sync struct {
	camera   scene.Camera
	source   Source
	schedule Scheduler

	pending     atomic.Bool
	latest      atomic.Pointer[Readout]
	subscribers []func(Readout)
}

// New creates a telemetry sync. A nil scheduler runs jobs immediately.
func New(camera scene.Camera, source Source, schedule Scheduler) *Sync {
	if schedule == nil {
		schedule = Immediate
	}
	return &Sync{camera: camera, source: source, schedule: schedule}
}

// Subscribe registers a readout consumer. Subscribers run inside scheduled jobs.
func (s *Sync) Subscribe(fn func(Readout)) {
	s.subscribers = append(s.subscribers, fn)
}

// Tick schedules a readout unless one is already pending
func (s *Sync) Tick() {
	if !s.pending.CompareAndSwap(false, true) {
		return
	}
	s.schedule(func() {
		s.pending.Store(false)
		r := s.Read()
		s.latest.Store(&r)
		for _, fn := range s.subscribers {
			fn(r)
		}
	})
}

// Latest returns the last published readout
func (s *Sync) Latest() (Readout, bool) {
	r := s.latest.Load()
	if r == nil {
		return Readout{}, false
	}
	return *r, true
}

// Read samples the camera and roaming state now
func (s *Sync) Read() Readout {
	euler := geometry.EulerXYZ(s.camera.Rotation())
	return Readout{
		Position: s.camera.Position(),
		Rotation: euler.Mul(180 / math.Pi),
		Target:   s.camera.Target(),
		State:    s.source.State(),
		Progress: s.source.Progress(),
	}
}

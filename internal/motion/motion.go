// Package motion moves the camera: eased fly-to transitions and poses
// relative to a roaming curve.
package motion

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/rs/zerolog"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Config holds the playback parameters
type Config struct {
	// Step is the progress added per frame tick
	Step float64
	// LookAhead is the progress offset of the point the camera faces
	LookAhead float64
	// Height and Distance place the camera above and behind the walker
	Height   float64
	Distance float64
	// FlyDuration is the length of smooth transitions
	FlyDuration time.Duration
	Easing      ease.TweenFunc
}

// DefaultConfig returns the default playback parameters
func DefaultConfig() Config {
	return Config{
		Step:        0.0005,
		LookAhead:   0.01,
		Height:      0.6,
		Distance:    1.5,
		FlyDuration: time.Second,
		Easing:      ease.OutCubic,
	}
}

// Pose is a camera position, orientation and look-at target
type Pose struct {
	Position geometry.Vector3
	Rotation mgl64.Quat
	Target   geometry.Vector3
}

type flight struct {
	tween      *gween.Tween
	fromPos    geometry.Vector3
	toPos      geometry.Vector3
	fromTarget geometry.Vector3
	toTarget   geometry.Vector3
	done       func()
}

// Controller owns the roaming progress and the pre-roam snapshot. It is
// driven by the frame loop through Update and Advance.
type Controller struct {
	camera scene.Camera
	cfg    Config
	log    zerolog.Logger

	flight   *flight
	curve    *geometry.CatmullRom
	progress float64
	snapshot *Pose
}

// New creates a controller for a camera
func New(camera scene.Camera, cfg Config, log zerolog.Logger) *Controller {
	if cfg.Easing == nil {
		cfg.Easing = ease.OutCubic
	}
	return &Controller{
		camera: camera,
		cfg:    cfg,
		log:    log.With().Str("component", "motion").Logger(),
	}
}

// Config returns the playback parameters
func (c *Controller) Config() Config {
	return c.cfg
}

// Pose reads the current camera pose
func (c *Controller) Pose() Pose {
	return Pose{
		Position: c.camera.Position(),
		Rotation: c.camera.Rotation(),
		Target:   c.camera.Target(),
	}
}

// FlyTo interpolates the camera from its current position and target to the
// given ones. A flight in progress is replaced and its callback never runs.
// done runs once on arrival.
func (c *Controller) FlyTo(position, target geometry.Vector3, duration time.Duration, done func()) {
	c.flight = nil
	if duration <= 0 {
		c.place(position, target)
		if done != nil {
			done()
		}
		return
	}
	c.flight = &flight{
		tween:      gween.New(0, 1, float32(duration.Seconds()), c.cfg.Easing),
		fromPos:    c.camera.Position(),
		toPos:      position,
		fromTarget: c.camera.Target(),
		toTarget:   target,
		done:       done,
	}
}

// Cancel stops the flight in progress without running its callback
func (c *Controller) Cancel() {
	c.flight = nil
}

// Flying reports whether a transition is in progress
func (c *Controller) Flying() bool {
	return c.flight != nil
}

// Update advances the flight in progress by dt
func (c *Controller) Update(dt time.Duration) {
	f := c.flight
	if f == nil {
		return
	}
	k, finished := f.tween.Update(float32(dt.Seconds()))
	if finished {
		c.flight = nil
		c.place(f.toPos, f.toTarget)
		if f.done != nil {
			f.done()
		}
		return
	}
	t := float64(k)
	c.place(f.fromPos.Lerp(f.toPos, t), f.fromTarget.Lerp(f.toTarget, t))
}

// PoseAt computes the camera pose at progress t along the curve. The camera
// trails a walker at the sampled point, above and behind it relative to the
// direction of travel, and looks at the walker.
func (c *Controller) PoseAt(curve *geometry.CatmullRom, t float64) Pose {
	walker := curve.PointAt(t)
	ahead := curve.PointAt(math.Mod(t+c.cfg.LookAhead, 1))
	if ahead.ApproxEqual(walker, 1e-9) {
		// coincident samples
		ahead = walker.Add(curve.TangentAt(t))
	}
	facing := geometry.LookRotation(walker, ahead)
	offset := geometry.Rotate(facing, geometry.NewVector3(0, c.cfg.Height, c.cfg.Distance))
	position := walker.Add(offset)
	return Pose{
		Position: position,
		Rotation: geometry.LookRotation(position, walker),
		Target:   walker,
	}
}

// Begin snapshots the camera and starts playback of a curve at progress 0
func (c *Controller) Begin(curve *geometry.CatmullRom) {
	// a held snapshot means the return flight never arrived; keep the older pose
	if c.snapshot == nil {
		pose := c.Pose()
		c.snapshot = &pose
	}
	c.curve = curve
	c.progress = 0
	c.log.Debug().Float64("length", curve.Length()).Msg("Roaming curve ready")
}

// Progress returns the roaming progress in [0, 1)
func (c *Controller) Progress() float64 {
	return c.progress
}

// Snapshot returns the pre-roam camera pose, if one is held
func (c *Controller) Snapshot() (Pose, bool) {
	if c.snapshot == nil {
		return Pose{}, false
	}
	return *c.snapshot, true
}

// FlyToCurrent smoothly moves the camera to the pose at the current progress
func (c *Controller) FlyToCurrent(done func()) {
	if c.curve == nil {
		return
	}
	pose := c.PoseAt(c.curve, c.progress)
	c.FlyTo(pose.Position, pose.Target, c.cfg.FlyDuration, done)
}

// Advance moves playback forward one step and assigns the pose directly
func (c *Controller) Advance() {
	if c.curve == nil {
		return
	}
	c.progress = wrap(c.progress + c.cfg.Step)
	pose := c.PoseAt(c.curve, c.progress)
	c.camera.SetPosition(pose.Position)
	c.camera.SetRotation(pose.Rotation)
	c.camera.SetTarget(pose.Target)
}

// Restore cancels any flight and flies back to the snapshot. On arrival the
// exact snapshot pose is assigned and the snapshot is dropped.
func (c *Controller) Restore(done func()) {
	c.Cancel()
	c.curve = nil
	if c.snapshot == nil {
		if done != nil {
			done()
		}
		return
	}
	snap := *c.snapshot
	c.FlyTo(snap.Position, snap.Target, c.cfg.FlyDuration, func() {
		c.camera.SetPosition(snap.Position)
		c.camera.SetRotation(snap.Rotation)
		c.camera.SetTarget(snap.Target)
		c.snapshot = nil
		c.log.Debug().Msg("Camera restored")
		if done != nil {
			done()
		}
	})
}

func (c *Controller) place(position, target geometry.Vector3) {
	c.camera.SetPosition(position)
	c.camera.SetTarget(target)
	if !position.ApproxEqual(target, 1e-9) {
		c.camera.SetRotation(geometry.LookRotation(position, target))
	}
}

// wrap maps progress into [0, 1)
func wrap(p float64) float64 {
	p = math.Mod(p, 1)
	if p < 0 {
		p++
	}
	if p >= 1 {
		p = 0
	}
	return p
}

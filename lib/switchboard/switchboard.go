// Package switchboard selects which of a fixed roster of overlay zones is
// active and places the active zone's model on the tracked target.
//
// A Switchboard is not safe for concurrent use. The host delivers tracking
// and UI events from a single goroutine.
package switchboard

import (
	"fmt"
	"log/slog"
	"time"

	"cogentcore.org/core/math32"
)

const DefaultModelScale = 10

type Options struct {
	DefaultIndex int

	// TargetName is the only tracking target the switchboard reacts to.
	TargetName string

	// ModelScale multiplies the tracked scale on every axis. Zero means
	// DefaultModelScale.
	ModelScale float32

	// ModelCorrection is applied after the tracked rotation. The zero value
	// means no correction.
	ModelCorrection math32.Quat

	// PauseVideoOnLoss pauses the active video when the target is lost and
	// resumes it on the next detection.
	PauseVideoOnLoss bool

	Logger *slog.Logger
}

// State is a copy of the switchboard's bookkeeping for diagnostics.
type State struct {
	ActiveIndex   int
	TargetVisible bool
	LastPose      Pose
	HasPose       bool
}

type Switchboard struct {
	zones []Zone
	opts  Options
	log   *slog.Logger

	activeIndex   int
	targetVisible bool
	lastPose      Pose
	hasPose       bool
	videoPaused   bool
}

// New validates the roster and activates the default zone. Zones must be
// indexed 0..N-1 in order.
func New(zones []Zone, opts Options) (*Switchboard, error) {
	if len(zones) == 0 {
		return nil, &ConfigurationError{Reason: "no zones"}
	}
	for i := range zones {
		z := &zones[i]
		if z.Index != i {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("zone at position %d has index %d", i, z.Index)}
		}
		if !(z.AspectRatio > 0) {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("%s: aspect ratio %v is not positive", z, z.AspectRatio)}
		}
		if z.Model == nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("%s: missing model", z)}
		}
		if z.Video == nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("%s: missing video", z)}
		}
	}
	if opts.DefaultIndex < 0 || opts.DefaultIndex >= len(zones) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("default zone %d out of range [0,%d)", opts.DefaultIndex, len(zones))}
	}
	if opts.ModelScale == 0 {
		opts.ModelScale = DefaultModelScale
	}
	if opts.ModelCorrection == (math32.Quat{}) {
		opts.ModelCorrection = math32.NewQuat(0, 0, 0, 1)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Switchboard{
		zones:       append([]Zone(nil), zones...),
		opts:        opts,
		log:         opts.Logger,
		activeIndex: opts.DefaultIndex,
	}
	for i := range s.zones {
		s.zones[i].Model.SetVisible(false)
	}
	s.start(&s.zones[s.activeIndex])
	return s, nil
}

func (s *Switchboard) Len() int { return len(s.zones) }

func (s *Switchboard) ActiveIndex() int { return s.activeIndex }

func (s *Switchboard) TargetVisible() bool { return s.targetVisible }

// LastPose returns the most recent detected pose. ok is false until the
// first detection.
func (s *Switchboard) LastPose() (pose Pose, ok bool) { return s.lastPose, s.hasPose }

func (s *Switchboard) Zone(i int) (Zone, bool) {
	if i < 0 || i >= len(s.zones) {
		return Zone{}, false
	}
	return s.zones[i], true
}

func (s *Switchboard) State() State {
	return State{
		ActiveIndex:   s.activeIndex,
		TargetVisible: s.targetVisible,
		LastPose:      s.lastPose,
		HasPose:       s.hasPose,
	}
}

// ActivateZone makes zone i active. The previous zone's model is hidden and
// its video rewound. The new zone's animation and video always restart from
// the beginning, including when i is already active. If a target is visible
// the new model is shown at the last pose.
func (s *Switchboard) ActivateZone(i int) error {
	if i < 0 || i >= len(s.zones) {
		return &OutOfRangeError{Index: i, Len: len(s.zones)}
	}
	s.activate(i)
	return nil
}

// Advance activates the zone after the active one, wrapping to zone 0.
func (s *Switchboard) Advance() {
	s.activate((s.activeIndex + 1) % len(s.zones))
}

func (s *Switchboard) activate(i int) {
	prev := &s.zones[s.activeIndex]
	next := &s.zones[i]
	if i != s.activeIndex {
		prev.Model.SetVisible(false)
	}
	prev.Video.PauseAndResetToStart()
	s.activeIndex = i
	s.start(next)

	if s.targetVisible {
		s.place(next)
	}

	s.log.Info("zone activated",
		slog.Int("zone", i),
		slog.String("name", next.String()),
		slog.Int("previous", prev.Index),
		slog.Bool("target_visible", s.targetVisible))
}

// OnTargetDetected handles both found and updated tracking signals.
func (s *Switchboard) OnTargetDetected(name string, pose Pose) {
	if name != s.opts.TargetName {
		s.log.Debug("ignoring target", slog.String("target", name))
		return
	}
	wasVisible := s.targetVisible
	s.lastPose = pose
	s.hasPose = true
	s.targetVisible = true

	z := &s.zones[s.activeIndex]
	s.place(z)
	if s.opts.PauseVideoOnLoss && s.videoPaused {
		z.Video.Play()
		s.videoPaused = false
	}
	if !wasVisible {
		s.log.Info("target found", slog.String("target", name), slog.Int("zone", s.activeIndex))
	}
}

func (s *Switchboard) OnTargetLost(name string) {
	if name != s.opts.TargetName {
		s.log.Debug("ignoring target", slog.String("target", name))
		return
	}
	s.targetVisible = false

	z := &s.zones[s.activeIndex]
	z.Model.SetVisible(false)
	if s.opts.PauseVideoOnLoss && !s.videoPaused {
		z.Video.Pause()
		s.videoPaused = true
	}
	s.log.Info("target lost", slog.String("target", name), slog.Int("zone", s.activeIndex))
}

// Tick advances the active zone's animation by dt.
func (s *Switchboard) Tick(dt time.Duration) {
	if u, ok := s.zones[s.activeIndex].Animation.(Updater); ok {
		u.Update(dt)
	}
}

func (s *Switchboard) start(z *Zone) {
	if z.Animation != nil {
		z.Animation.ResetToStart()
	}
	z.Video.Play()
	s.videoPaused = false
}

func (s *Switchboard) place(z *Zone) {
	rot := s.lastPose.Rotation
	rot.SetMul(s.opts.ModelCorrection)
	scale := s.lastPose.Scale * s.opts.ModelScale
	z.Model.SetPose(s.lastPose.Position, rot, math32.Vec3(scale, scale, scale))
	z.Model.SetVisible(true)
}

// Package scene keeps the host-side state of every zone's model, animation
// mixer and browser video, and renders it as a snapshot for the viewer page.
package scene

import (
	"sync"
	"time"

	"cogentcore.org/core/math32"
)

type Scene struct {
	mu    sync.RWMutex
	zones []*Zone
}

type Zone struct {
	Index       int
	Name        string
	ModelURL    string
	VideoURL    string
	AspectRatio float64

	Node  *Node
	Mixer *Mixer
	Video *Video
}

func New() *Scene {
	return &Scene{}
}

// Add registers a zone. mixer may be nil for zones without animation; video
// may be nil when video is played elsewhere.
func (s *Scene) Add(z *Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z.Index = len(s.zones)
	if z.Node == nil {
		z.Node = &Node{}
	}
	z.Node.guard = guard{&s.mu}
	if z.Mixer != nil {
		z.Mixer.guard = guard{&s.mu}
	}
	if z.Video != nil {
		z.Video.guard = guard{&s.mu}
	}
	s.zones = append(s.zones, z)
}

func (s *Scene) Zones() []*Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Zone(nil), s.zones...)
}

type Node struct {
	guard

	visible  bool
	position math32.Vector3
	rotation math32.Quat
	scale    math32.Vector3
}

func (n *Node) SetVisible(visible bool) {
	n.lock()
	defer n.unlock()
	n.visible = visible
}

func (n *Node) SetPose(position math32.Vector3, rotation math32.Quat, scale math32.Vector3) {
	n.lock()
	defer n.unlock()
	n.position = position
	n.rotation = rotation
	n.scale = scale
}

func (n *Node) Visible() bool {
	n.rlock()
	defer n.runlock()
	return n.visible
}

// Mixer plays a clip once and holds its last frame. Generation increments on
// every restart so the page can restart its clip even when the clock reads
// the same.
type Mixer struct {
	guard

	Duration   time.Duration
	elapsed    time.Duration
	generation uint64
}

func NewMixer(d time.Duration) *Mixer {
	return &Mixer{Duration: d}
}

func (m *Mixer) ResetToStart() {
	m.lock()
	defer m.unlock()
	m.elapsed = 0
	m.generation++
}

func (m *Mixer) Update(dt time.Duration) {
	m.lock()
	defer m.unlock()
	m.elapsed = min(m.elapsed+dt, m.Duration)
}

func (m *Mixer) Time() time.Duration {
	m.rlock()
	defer m.runlock()
	return m.elapsed
}

func (m *Mixer) Generation() uint64 {
	m.rlock()
	defer m.runlock()
	return m.generation
}

func (m *Mixer) Finished() bool {
	return m.Time() >= m.Duration
}

type PlayState string

const (
	Stopped PlayState = "stopped"
	Playing PlayState = "playing"
	Paused  PlayState = "paused"
)

// Video is a video element in the viewer page. Generation increments on
// every rewind so the page knows to seek its element back to zero.
type Video struct {
	guard

	state      PlayState
	generation uint64
}

func (v *Video) Play() {
	v.lock()
	defer v.unlock()
	v.state = Playing
}

func (v *Video) Pause() {
	v.lock()
	defer v.unlock()
	if v.state == Playing {
		v.state = Paused
	}
}

func (v *Video) PauseAndResetToStart() {
	v.lock()
	defer v.unlock()
	v.state = Stopped
	v.generation++
}

func (v *Video) State() (PlayState, uint64) {
	v.rlock()
	defer v.runlock()
	if v.state == "" {
		return Stopped, v.generation
	}
	return v.state, v.generation
}

// guard shares the owning Scene's lock. Handles built outside a Scene are
// unguarded.
type guard struct {
	mu *sync.RWMutex
}

func (g guard) lock() {
	if g.mu != nil {
		g.mu.Lock()
	}
}

func (g guard) unlock() {
	if g.mu != nil {
		g.mu.Unlock()
	}
}

func (g guard) rlock() {
	if g.mu != nil {
		g.mu.RLock()
	}
}

func (g guard) runlock() {
	if g.mu != nil {
		g.mu.RUnlock()
	}
}

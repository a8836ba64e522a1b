package switchboard

import (
	"strconv"
	"time"

	"cogentcore.org/core/math32"
)

// Model is a loaded 3D asset owned by the rendering engine.
type Model interface {
	SetVisible(visible bool)
	SetPose(position math32.Vector3, rotation math32.Quat, scale math32.Vector3)
}

// Animation is a playable clip bound to a Model.
type Animation interface {
	ResetToStart()
}

// Updater is implemented by animations that the host advances every frame.
type Updater interface {
	Update(dt time.Duration)
}

// Video is a decodable video asset owned by the host.
type Video interface {
	Play()
	Pause()
	PauseAndResetToStart()
}

type Zone struct {
	Index       int
	Model       Model
	Animation   Animation
	Video       Video
	AspectRatio float64
	DisplayName string
}

func (z *Zone) String() string {
	if z.DisplayName != "" {
		return z.DisplayName
	}
	return "zone " + strconv.Itoa(z.Index)
}

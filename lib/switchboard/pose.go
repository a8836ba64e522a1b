package switchboard

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// Pose places content relative to a detected target.
type Pose struct {
	Position math32.Vector3
	Rotation math32.Quat
	Scale    float32
}

func (p Pose) String() string {
	return fmt.Sprintf("pos(%.3f,%.3f,%.3f) rot(%.3f,%.3f,%.3f,%.3f) scale %.3f",
		p.Position.X, p.Position.Y, p.Position.Z,
		p.Rotation.X, p.Rotation.Y, p.Rotation.Z, p.Rotation.W,
		p.Scale)
}

// QuarterTurnX is the correction that stands a model authored Y-up on a
// target lying flat in the tracker's frame.
func QuarterTurnX() math32.Quat {
	return math32.NewQuatAxisAngle(math32.Vec3(1, 0, 0), math32.Pi/2)
}

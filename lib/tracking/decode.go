// Package tracking carries tracker and UI signals to the switchboard as OSC
// messages over SLIP-framed TCP.
package tracking

import (
	"fmt"

	"cogentcore.org/core/math32"

	"arzone/lib/osc"
	"arzone/lib/switchboard"
)

const (
	AddrFound   = "/reality/imagefound"
	AddrUpdated = "/reality/imageupdated"
	AddrLost    = "/reality/imagelost"
	AddrAdvance = "/ui/advance"
	AddrSelect  = "/ui/select"
)

// Decode turns one OSC message into a switchboard event. Found and updated
// carry name, position xyz, rotation xyzw and scale.
func Decode(addr string, args []any) (switchboard.Event, error) {
	switch addr {
	case AddrFound, AddrUpdated:
		name, pose, err := decodePose(addr, args)
		if err != nil {
			return nil, err
		}
		if addr == AddrFound {
			return switchboard.TargetFound{Name: name, Pose: pose}, nil
		}
		return switchboard.TargetUpdated{Name: name, Pose: pose}, nil
	case AddrLost:
		if len(args) < 1 {
			return nil, fmt.Errorf("tracking: %s: missing target name", addr)
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("tracking: %s: target name is %T", addr, args[0])
		}
		return switchboard.TargetLost{Name: name}, nil
	case AddrAdvance:
		return switchboard.Advance{}, nil
	case AddrSelect:
		if len(args) < 1 {
			return nil, fmt.Errorf("tracking: %s: missing zone index", addr)
		}
		i, ok := osc.Int(args[0])
		if !ok {
			return nil, fmt.Errorf("tracking: %s: zone index is %T", addr, args[0])
		}
		return switchboard.Select{Index: i}, nil
	}
	return nil, fmt.Errorf("tracking: unknown address %q", addr)
}

func decodePose(addr string, args []any) (string, switchboard.Pose, error) {
	if len(args) != 9 {
		return "", switchboard.Pose{}, fmt.Errorf("tracking: %s: got %d args, want 9", addr, len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return "", switchboard.Pose{}, fmt.Errorf("tracking: %s: target name is %T", addr, args[0])
	}
	var v [8]float32
	for i := range v {
		f, ok := osc.Float(args[i+1])
		if !ok {
			return "", switchboard.Pose{}, fmt.Errorf("tracking: %s: arg %d is %T", addr, i+1, args[i+1])
		}
		v[i] = float32(f)
	}
	return name, switchboard.Pose{
		Position: math32.Vec3(v[0], v[1], v[2]),
		Rotation: math32.NewQuat(v[3], v[4], v[5], v[6]),
		Scale:    v[7],
	}, nil
}

// Encode is the inverse of Decode.
func Encode(ev switchboard.Event) (addr string, args []any) {
	switch e := ev.(type) {
	case switchboard.TargetFound:
		return AddrFound, poseArgs(e.Name, e.Pose)
	case switchboard.TargetUpdated:
		return AddrUpdated, poseArgs(e.Name, e.Pose)
	case switchboard.TargetLost:
		return AddrLost, []any{e.Name}
	case switchboard.Advance:
		return AddrAdvance, nil
	case switchboard.Select:
		return AddrSelect, []any{int32(e.Index)}
	}
	panic(fmt.Sprintf("tracking: cannot encode %T", ev))
}

func poseArgs(name string, p switchboard.Pose) []any {
	return []any{
		name,
		p.Position.X, p.Position.Y, p.Position.Z,
		p.Rotation.X, p.Rotation.Y, p.Rotation.Z, p.Rotation.W,
		p.Scale,
	}
}

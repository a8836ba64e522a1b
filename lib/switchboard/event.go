package switchboard

import "fmt"

// Event is one input to the switchboard. The set is closed: TargetFound,
// TargetUpdated, TargetLost, Advance and Select.
type Event interface {
	fmt.Stringer
	event()
}

type TargetFound struct {
	Name string
	Pose Pose
}

type TargetUpdated struct {
	Name string
	Pose Pose
}

type TargetLost struct {
	Name string
}

type Advance struct{}

type Select struct {
	Index int
}

func (TargetFound) event()   {}
func (TargetUpdated) event() {}
func (TargetLost) event()    {}
func (Advance) event()       {}
func (Select) event()        {}

func (e TargetFound) String() string   { return fmt.Sprintf("found %q %s", e.Name, e.Pose) }
func (e TargetUpdated) String() string { return fmt.Sprintf("updated %q %s", e.Name, e.Pose) }
func (e TargetLost) String() string    { return fmt.Sprintf("lost %q", e.Name) }
func (Advance) String() string         { return "advance" }
func (e Select) String() string        { return fmt.Sprintf("select %d", e.Index) }

// Handle dispatches ev to the matching operation. Only Select can fail.
func (s *Switchboard) Handle(ev Event) error {
	switch e := ev.(type) {
	case TargetFound:
		s.OnTargetDetected(e.Name, e.Pose)
	case TargetUpdated:
		s.OnTargetDetected(e.Name, e.Pose)
	case TargetLost:
		s.OnTargetLost(e.Name)
	case Advance:
		s.Advance()
	case Select:
		return s.ActivateZone(e.Index)
	default:
		return fmt.Errorf("switchboard: unhandled event %T", ev)
	}
	return nil
}

// Package plan holds the semantic mission/fence/rally plan model: typed
// items, validation, normalisation, equivalence, and the wire-boundary
// translation between semantic plans and mission-protocol item lists.
package plan

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"gcslink/pkg/mav"
)

// Kind selects the mission-protocol namespace a plan belongs to.
type Kind uint8

const (
	KindMission Kind = Kind(mav.MissionTypeMission)
	KindFence   Kind = Kind(mav.MissionTypeFence)
	KindRally   Kind = Kind(mav.MissionTypeRally)
)

func (k Kind) String() string {
	switch k {
	case KindMission:
		return "mission"
	case KindFence:
		return "fence"
	case KindRally:
		return "rally"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalYAML stores the kind as its lowercase name.
func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML accepts the lowercase kind names.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "mission":
		*k = KindMission
	case "fence":
		*k = KindFence
	case "rally":
		*k = KindRally
	default:
		return fmt.Errorf("plan: unknown kind %q", s)
	}
	return nil
}

// Frame is a coordinate frame. The value is the raw MAV_FRAME byte, so
// dialect frames outside the named set are carried through untouched.
type Frame uint8

const (
	FrameLocalNed             Frame = Frame(mav.FrameLocalNed)
	FrameMission              Frame = Frame(mav.FrameMission)
	FrameGlobalInt            Frame = Frame(mav.FrameGlobalInt)
	FrameGlobalRelativeAltInt Frame = Frame(mav.FrameGlobalRelativeAltInt)
	FrameGlobalTerrainAltInt  Frame = Frame(mav.FrameGlobalTerrainAltInt)
)

// Canonical maps the float-coordinate frame aliases onto their _INT forms.
func (f Frame) Canonical() Frame {
	switch uint8(f) {
	case mav.FrameGlobal:
		return FrameGlobalInt
	case mav.FrameGlobalRelativeAlt:
		return FrameGlobalRelativeAltInt
	case mav.FrameGlobalTerrainAlt:
		return FrameGlobalTerrainAltInt
	default:
		return f
	}
}

// IsGlobal reports whether X/Y carry latitude/longitude in 1e7 degrees.
func (f Frame) IsGlobal() bool {
	switch f.Canonical() {
	case FrameGlobalInt, FrameGlobalRelativeAltInt, FrameGlobalTerrainAltInt:
		return true
	default:
		return false
	}
}

func (f Frame) String() string {
	switch f {
	case FrameLocalNed:
		return "local_ned"
	case FrameMission:
		return "mission"
	case FrameGlobalInt:
		return "global_int"
	case FrameGlobalRelativeAltInt:
		return "global_relative_alt_int"
	case FrameGlobalTerrainAltInt:
		return "global_terrain_alt_int"
	default:
		return fmt.Sprintf("other(%d)", uint8(f))
	}
}

// MarshalYAML stores the frame under its canonical name, or the raw byte
// for frames outside the named set.
func (f Frame) MarshalYAML() (interface{}, error) {
	switch f {
	case FrameLocalNed, FrameMission, FrameGlobalInt, FrameGlobalRelativeAltInt, FrameGlobalTerrainAltInt:
		return f.String(), nil
	default:
		return int(f), nil
	}
}

// UnmarshalYAML accepts frame names or raw byte values.
func (f *Frame) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err == nil {
		if n < 0 || n > 255 {
			return fmt.Errorf("plan: frame value %d out of range", n)
		}
		*f = Frame(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "local_ned":
		*f = FrameLocalNed
	case "mission":
		*f = FrameMission
	case "global", "global_int":
		*f = FrameGlobalInt
	case "global_relative_alt", "global_relative_alt_int":
		*f = FrameGlobalRelativeAltInt
	case "global_terrain_alt", "global_terrain_alt_int":
		*f = FrameGlobalTerrainAltInt
	default:
		return fmt.Errorf("plan: unknown frame %q", s)
	}
	return nil
}

// Item is one ordered waypoint, fence vertex, or rally point. X and Y hold
// latitude/longitude in degrees × 1e7 for global frames, raw values
// otherwise; Z is altitude in metres.
type Item struct {
	Seq          uint16  `yaml:"seq"`
	Command      uint16  `yaml:"command"`
	Frame        Frame   `yaml:"frame"`
	Current      bool    `yaml:"current,omitempty"`
	Autocontinue bool    `yaml:"autocontinue"`
	Param1       float32 `yaml:"param1"`
	Param2       float32 `yaml:"param2"`
	Param3       float32 `yaml:"param3"`
	Param4       float32 `yaml:"param4"`
	X            int32   `yaml:"x"`
	Y            int32   `yaml:"y"`
	Z            float32 `yaml:"z"`
}

// HomePosition is the reference position used for relative-altitude frames
// and return-to-launch.
type HomePosition struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
	Alt float32 `yaml:"alt"`
}

// ToItem encodes the home position as a wire mission item at seq.
func (h HomePosition) ToItem(seq uint16) Item {
	return Item{
		Seq:          seq,
		Command:      mav.CmdNavWaypoint,
		Frame:        FrameGlobalInt,
		Autocontinue: true,
		X:            int32(h.Lat * 1e7),
		Y:            int32(h.Lon * 1e7),
		Z:            h.Alt,
	}
}

// HomeFromItem decodes a wire seq-0 item back into a home position.
func HomeFromItem(item Item) HomePosition {
	return HomePosition{
		Lat: float64(item.X) / 1e7,
		Lon: float64(item.Y) / 1e7,
		Alt: item.Z,
	}
}

// Plan is an ordered set of items of one kind. Home is only meaningful for
// KindMission; fence and rally plans never carry one.
type Plan struct {
	Kind  Kind          `yaml:"kind"`
	Home  *HomePosition `yaml:"home,omitempty"`
	Items []Item        `yaml:"items"`
}

// Severity ranks a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one validation finding. Seq is -1 for plan-level issues.
type Issue struct {
	Code     string
	Message  string
	Seq      int
	Severity Severity
}

func (i Issue) String() string {
	if i.Seq >= 0 {
		return fmt.Sprintf("%s [%s] seq %d: %s", i.Severity, i.Code, i.Seq, i.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Severity, i.Code, i.Message)
}

// Package modes maps autopilot custom-mode numbers to human-readable
// names and back. The tables are static per (autopilot × vehicle class)
// and compose into the session; they are not part of the protocol logic.
package modes

import (
	"fmt"
	"strings"

	"gcslink/pkg/state"
)

// FlightMode pairs a custom-mode number with its display name.
type FlightMode struct {
	CustomMode uint32
	Name       string
}

type vehicleClass int

const (
	classCopter vehicleClass = iota
	classPlane
	classRover
	classUnknown
)

func classOf(t state.VehicleType) vehicleClass {
	switch t {
	case state.VehicleQuadrotor, state.VehicleHexarotor, state.VehicleOctorotor,
		state.VehicleTricopter, state.VehicleCoaxial, state.VehicleHelicopter:
		return classCopter
	case state.VehicleFixedWing:
		return classPlane
	case state.VehicleGroundRover:
		return classRover
	default:
		return classUnknown
	}
}

var copterModes = []FlightMode{
	{0, "STABILIZE"},
	{1, "ACRO"},
	{2, "ALT_HOLD"},
	{3, "AUTO"},
	{4, "GUIDED"},
	{5, "LOITER"},
	{6, "RTL"},
	{7, "CIRCLE"},
	{9, "LAND"},
	{11, "DRIFT"},
	{13, "SPORT"},
	{15, "AUTOTUNE"},
	{16, "POSHOLD"},
	{17, "BRAKE"},
	{18, "THROW"},
	{21, "SMART_RTL"},
}

var planeModes = []FlightMode{
	{0, "MANUAL"},
	{1, "CIRCLE"},
	{2, "STABILIZE"},
	{3, "TRAINING"},
	{4, "ACRO"},
	{5, "FLY_BY_WIRE_A"},
	{6, "FLY_BY_WIRE_B"},
	{7, "CRUISE"},
	{8, "AUTOTUNE"},
	{10, "AUTO"},
	{11, "RTL"},
	{12, "LOITER"},
	{15, "GUIDED"},
	{17, "QSTABILIZE"},
	{18, "QHOVER"},
	{19, "QLOITER"},
	{20, "QLAND"},
	{21, "QRTL"},
}

var roverModes = []FlightMode{
	{0, "MANUAL"},
	{1, "ACRO"},
	{3, "STEERING"},
	{4, "HOLD"},
	{5, "LOITER"},
	{6, "FOLLOW"},
	{7, "SIMPLE"},
	{10, "AUTO"},
	{11, "RTL"},
	{12, "SMART_RTL"},
	{15, "GUIDED"},
}

func table(autopilot state.Autopilot, vtype state.VehicleType) []FlightMode {
	if autopilot != state.AutopilotArduPilot {
		return nil
	}
	switch classOf(vtype) {
	case classPlane:
		return planeModes
	case classRover:
		return roverModes
	default:
		// Copter tables double as the fallback for unknown airframes.
		return copterModes
	}
}

// Name resolves a custom-mode number to a display name.
func Name(autopilot state.Autopilot, vtype state.VehicleType, customMode uint32) string {
	if autopilot != state.AutopilotArduPilot {
		return fmt.Sprintf("MODE(%d)", customMode)
	}
	for _, m := range table(autopilot, vtype) {
		if m.CustomMode == customMode {
			return m.Name
		}
	}
	return fmt.Sprintf("UNKNOWN(%d)", customMode)
}

// Number resolves a mode name (case-insensitive) to its custom-mode
// number. Returns false when the vehicle has no such mode.
func Number(autopilot state.Autopilot, vtype state.VehicleType, name string) (uint32, bool) {
	upper := strings.ToUpper(name)
	for _, m := range table(autopilot, vtype) {
		if m.Name == upper {
			return m.CustomMode, true
		}
	}
	return 0, false
}

// Available lists the modes selectable on the given vehicle.
func Available(autopilot state.Autopilot, vtype state.VehicleType) []FlightMode {
	return append([]FlightMode(nil), table(autopilot, vtype)...)
}

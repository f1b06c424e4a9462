package state

import (
	"fmt"

	"gcslink/pkg/mav"
)

// LinkStatus tags the connection lifecycle.
type LinkStatus int

const (
	LinkConnecting LinkStatus = iota
	LinkConnected
	LinkDisconnected
	LinkError
)

func (s LinkStatus) String() string {
	switch s {
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	case LinkError:
		return "error"
	default:
		return fmt.Sprintf("link(%d)", int(s))
	}
}

// LinkState is the published link status. Reason is set for LinkError.
type LinkState struct {
	Status LinkStatus
	Reason string
}

func (s LinkState) String() string {
	if s.Status == LinkError {
		return fmt.Sprintf("error(%s)", s.Reason)
	}
	return s.Status.String()
}

// SystemStatus mirrors MAV_STATE.
type SystemStatus int

const (
	StatusUnknown SystemStatus = iota
	StatusBoot
	StatusCalibrating
	StatusStandby
	StatusActive
	StatusCritical
	StatusEmergency
	StatusPoweroff
)

// SystemStatusFromMav maps a MAV_STATE byte.
func SystemStatusFromMav(v uint8) SystemStatus {
	switch v {
	case mav.StateBoot:
		return StatusBoot
	case mav.StateCalibrating:
		return StatusCalibrating
	case mav.StateStandby:
		return StatusStandby
	case mav.StateActive:
		return StatusActive
	case mav.StateCritical:
		return StatusCritical
	case mav.StateEmergency:
		return StatusEmergency
	case mav.StatePoweroff:
		return StatusPoweroff
	default:
		return StatusUnknown
	}
}

func (s SystemStatus) String() string {
	switch s {
	case StatusBoot:
		return "boot"
	case StatusCalibrating:
		return "calibrating"
	case StatusStandby:
		return "standby"
	case StatusActive:
		return "active"
	case StatusCritical:
		return "critical"
	case StatusEmergency:
		return "emergency"
	case StatusPoweroff:
		return "poweroff"
	default:
		return "unknown"
	}
}

// VehicleType classifies the airframe from HEARTBEAT.
type VehicleType int

const (
	VehicleUnknown VehicleType = iota
	VehicleGeneric
	VehicleFixedWing
	VehicleQuadrotor
	VehicleHexarotor
	VehicleOctorotor
	VehicleTricopter
	VehicleHelicopter
	VehicleCoaxial
	VehicleGroundRover
)

// VehicleTypeFromMav maps a MAV_TYPE byte.
func VehicleTypeFromMav(v uint8) VehicleType {
	switch v {
	case mav.TypeGeneric:
		return VehicleGeneric
	case mav.TypeFixedWing:
		return VehicleFixedWing
	case mav.TypeQuadrotor:
		return VehicleQuadrotor
	case mav.TypeHexarotor:
		return VehicleHexarotor
	case mav.TypeOctorotor:
		return VehicleOctorotor
	case mav.TypeTricopter:
		return VehicleTricopter
	case mav.TypeHelicopter:
		return VehicleHelicopter
	case mav.TypeCoaxial:
		return VehicleCoaxial
	case mav.TypeGroundRover:
		return VehicleGroundRover
	default:
		return VehicleUnknown
	}
}

func (t VehicleType) String() string {
	switch t {
	case VehicleGeneric:
		return "generic"
	case VehicleFixedWing:
		return "fixed_wing"
	case VehicleQuadrotor:
		return "quadrotor"
	case VehicleHexarotor:
		return "hexarotor"
	case VehicleOctorotor:
		return "octorotor"
	case VehicleTricopter:
		return "tricopter"
	case VehicleHelicopter:
		return "helicopter"
	case VehicleCoaxial:
		return "coaxial"
	case VehicleGroundRover:
		return "ground_rover"
	default:
		return "unknown"
	}
}

// Autopilot identifies the flight stack from HEARTBEAT.
type Autopilot int

const (
	AutopilotUnknown Autopilot = iota
	AutopilotGeneric
	AutopilotArduPilot
	AutopilotPx4
)

// AutopilotFromMav maps a MAV_AUTOPILOT byte.
func AutopilotFromMav(v uint8) Autopilot {
	switch v {
	case mav.AutopilotGeneric:
		return AutopilotGeneric
	case mav.AutopilotArduPilotMega:
		return AutopilotArduPilot
	case mav.AutopilotPx4:
		return AutopilotPx4
	default:
		return AutopilotUnknown
	}
}

func (a Autopilot) String() string {
	switch a {
	case AutopilotGeneric:
		return "generic"
	case AutopilotArduPilot:
		return "ardupilot"
	case AutopilotPx4:
		return "px4"
	default:
		return "unknown"
	}
}

// GpsFixType mirrors GPS_FIX_TYPE.
type GpsFixType int

const (
	GpsNoFix GpsFixType = iota
	GpsFix2D
	GpsFix3D
	GpsDgps
	GpsRtkFloat
	GpsRtkFixed
)

// GpsFixFromRaw maps the GPS_RAW_INT fix_type byte.
func GpsFixFromRaw(v uint8) GpsFixType {
	switch v {
	case 2:
		return GpsFix2D
	case 3:
		return GpsFix3D
	case 4:
		return GpsDgps
	case 5:
		return GpsRtkFloat
	case 6:
		return GpsRtkFixed
	default:
		return GpsNoFix
	}
}

func (t GpsFixType) String() string {
	switch t {
	case GpsFix2D:
		return "2d"
	case GpsFix3D:
		return "3d"
	case GpsDgps:
		return "dgps"
	case GpsRtkFloat:
		return "rtk_float"
	case GpsRtkFixed:
		return "rtk_fixed"
	default:
		return "no_fix"
	}
}

// VehicleState is derived from HEARTBEAT.
type VehicleState struct {
	Armed        bool
	CustomMode   uint32
	ModeName     string
	SystemStatus SystemStatus
	VehicleType  VehicleType
	Autopilot    Autopilot
	// Seen is false until the first heartbeat arrives.
	Seen bool
}

// Attitude in degrees.
type Attitude struct {
	RollDeg  float64
	PitchDeg float64
	YawDeg   float64
}

// Battery holds the latest power figures.
type Battery struct {
	VoltageV     float64
	CurrentA     float64
	RemainingPct int
}

// Gps holds the latest fix quality figures.
type Gps struct {
	FixType    GpsFixType
	Satellites int
	Hdop       float64
}

// NavDeltas holds navigation controller offsets to the active waypoint.
type NavDeltas struct {
	WpDistanceM   float64
	TargetBearing float64
	XtrackErrorM  float64
}

// Telemetry aggregates the latest derived scalars. Every field is
// optional until its first source message is observed.
type Telemetry struct {
	LatDeg         *float64
	LonDeg         *float64
	AltitudeMslM   *float64
	RelativeAltM   *float64
	AirspeedMps    *float64
	GroundspeedMps *float64
	ClimbRateMps   *float64
	HeadingDeg     *float64
	ThrottlePct    *int
	Attitude       *Attitude
	Battery        *Battery
	Gps            *Gps
	Nav            *NavDeltas
	RcChannels     []uint16
	ServoOutputs   []uint16
	TerrainHeight  *float64
}

// MissionState tracks the autopilot-reported mission execution position.
type MissionState struct {
	CurrentSeq uint16
	TotalItems uint16
}

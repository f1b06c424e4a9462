package mav

// MAV_CMD command codes used by the runtime.
const (
	CmdNavWaypoint         uint16 = 16
	CmdNavTakeoff          uint16 = 22
	CmdDoSetMode           uint16 = 176
	CmdDoSetMissionCurrent uint16 = 224
	CmdComponentArmDisarm  uint16 = 400
	CmdRequestMessage      uint16 = 512
)

// MAV_RESULT command-acknowledgement codes.
const (
	ResultAccepted            uint8 = 0
	ResultTemporarilyRejected uint8 = 1
	ResultDenied              uint8 = 2
	ResultUnsupported         uint8 = 3
	ResultFailed              uint8 = 4
	ResultInProgress          uint8 = 5
)

// ResultName returns the MAV_RESULT label for logs and errors.
func ResultName(r uint8) string {
	switch r {
	case ResultAccepted:
		return "ACCEPTED"
	case ResultTemporarilyRejected:
		return "TEMPORARILY_REJECTED"
	case ResultDenied:
		return "DENIED"
	case ResultUnsupported:
		return "UNSUPPORTED"
	case ResultFailed:
		return "FAILED"
	case ResultInProgress:
		return "IN_PROGRESS"
	default:
		return "UNKNOWN"
	}
}

// MAV_MISSION_RESULT codes carried by MISSION_ACK.
const (
	MissionAccepted           uint8 = 0
	MissionError              uint8 = 1
	MissionUnsupportedFrame   uint8 = 2
	MissionUnsupported        uint8 = 3
	MissionNoSpace            uint8 = 4
	MissionInvalid            uint8 = 5
	MissionInvalidSequence    uint8 = 13
	MissionDenied             uint8 = 14
	MissionOperationCancelled uint8 = 15
)

// MissionResultName returns the MAV_MISSION_RESULT label.
func MissionResultName(r uint8) string {
	switch r {
	case MissionAccepted:
		return "ACCEPTED"
	case MissionError:
		return "ERROR"
	case MissionUnsupportedFrame:
		return "UNSUPPORTED_FRAME"
	case MissionUnsupported:
		return "UNSUPPORTED"
	case MissionNoSpace:
		return "NO_SPACE"
	case MissionInvalid:
		return "INVALID"
	case MissionInvalidSequence:
		return "INVALID_SEQUENCE"
	case MissionDenied:
		return "DENIED"
	case MissionOperationCancelled:
		return "OPERATION_CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// MAV_MISSION_TYPE namespaces for the mission protocol.
const (
	MissionTypeMission uint8 = 0
	MissionTypeFence   uint8 = 1
	MissionTypeRally   uint8 = 2
)

// MAV_FRAME coordinate frames.
const (
	FrameGlobal               uint8 = 0
	FrameLocalNed             uint8 = 1
	FrameMission              uint8 = 2
	FrameGlobalRelativeAlt    uint8 = 3
	FrameGlobalInt            uint8 = 5
	FrameGlobalRelativeAltInt uint8 = 6
	FrameGlobalTerrainAlt     uint8 = 10
	FrameGlobalTerrainAltInt  uint8 = 11
)

// MAV_STATE system status values.
const (
	StateUninit      uint8 = 0
	StateBoot        uint8 = 1
	StateCalibrating uint8 = 2
	StateStandby     uint8 = 3
	StateActive      uint8 = 4
	StateCritical    uint8 = 5
	StateEmergency   uint8 = 6
	StatePoweroff    uint8 = 7
)

// MAV_TYPE vehicle types.
const (
	TypeGeneric     uint8 = 0
	TypeFixedWing   uint8 = 1
	TypeQuadrotor   uint8 = 2
	TypeCoaxial     uint8 = 3
	TypeHelicopter  uint8 = 4
	TypeGCS         uint8 = 6
	TypeGroundRover uint8 = 10
	TypeHexarotor   uint8 = 13
	TypeOctorotor   uint8 = 14
	TypeTricopter   uint8 = 15
)

// MAV_AUTOPILOT identifiers.
const (
	AutopilotGeneric       uint8 = 0
	AutopilotArduPilotMega uint8 = 3
	AutopilotInvalid       uint8 = 8
	AutopilotPx4           uint8 = 12
)

// MAV_MODE_FLAG base-mode bits.
const (
	ModeFlagCustomModeEnabled uint8 = 0x01
	ModeFlagSafetyArmed       uint8 = 0x80
)

// HOME_POSITION message ID as a REQUEST_MESSAGE param1 value.
const RequestableHomePosition float32 = 242

// Position-target type mask selecting position-only setpoints
// (velocity, acceleration and yaw fields ignored).
const TypeMaskPositionOnly uint16 = 0x0FF8

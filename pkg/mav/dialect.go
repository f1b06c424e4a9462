package mav

// Message IDs for the common/ArduPilot dialect subset spoken by the runtime.
const (
	MsgIDHeartbeat                  = 0
	MsgIDSysStatus                  = 1
	MsgIDSetMode                    = 11
	MsgIDGpsRawInt                  = 24
	MsgIDAttitude                   = 30
	MsgIDGlobalPositionInt          = 33
	MsgIDServoOutputRaw             = 36
	MsgIDMissionItem                = 39
	MsgIDMissionRequest             = 40
	MsgIDMissionSetCurrent          = 41
	MsgIDMissionCurrent             = 42
	MsgIDMissionRequestList         = 43
	MsgIDMissionCount               = 44
	MsgIDMissionClearAll            = 45
	MsgIDMissionItemReached         = 46
	MsgIDMissionAck                 = 47
	MsgIDMissionRequestInt          = 51
	MsgIDNavControllerOutput        = 62
	MsgIDRcChannels                 = 65
	MsgIDMissionItemInt             = 73
	MsgIDVfrHud                     = 74
	MsgIDCommandLong                = 76
	MsgIDCommandAck                 = 77
	MsgIDSetPositionTargetGlobalInt = 86
	MsgIDTerrainReport              = 136
	MsgIDBatteryStatus              = 147
	MsgIDHomePosition               = 242
	MsgIDStatusText                 = 253
)

type msgInfo struct {
	crcExtra byte
	// maxLen is the full (untruncated) payload length including extensions.
	maxLen int
}

// dialect carries the per-message CRC seed byte from the generated dialect
// tables. A message absent here cannot be CRC-verified.
var dialect = map[uint32]msgInfo{
	MsgIDHeartbeat:                  {50, 9},
	MsgIDSysStatus:                  {124, 43},
	MsgIDSetMode:                    {89, 6},
	MsgIDGpsRawInt:                  {24, 52},
	MsgIDAttitude:                   {39, 28},
	MsgIDGlobalPositionInt:          {104, 28},
	MsgIDServoOutputRaw:             {222, 37},
	MsgIDMissionItem:                {254, 38},
	MsgIDMissionRequest:             {230, 5},
	MsgIDMissionSetCurrent:          {28, 4},
	MsgIDMissionCurrent:             {28, 18},
	MsgIDMissionRequestList:         {132, 3},
	MsgIDMissionCount:               {221, 9},
	MsgIDMissionClearAll:            {232, 3},
	MsgIDMissionItemReached:         {11, 2},
	MsgIDMissionAck:                 {153, 8},
	MsgIDMissionRequestInt:          {196, 5},
	MsgIDNavControllerOutput:        {183, 26},
	MsgIDRcChannels:                 {118, 42},
	MsgIDMissionItemInt:             {38, 38},
	MsgIDVfrHud:                     {20, 20},
	MsgIDCommandLong:                {152, 33},
	MsgIDCommandAck:                 {143, 10},
	MsgIDSetPositionTargetGlobalInt: {5, 53},
	MsgIDTerrainReport:              {1, 22},
	MsgIDBatteryStatus:              {154, 54},
	MsgIDHomePosition:               {104, 60},
	MsgIDStatusText:                 {83, 54},
}

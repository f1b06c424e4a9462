package mav

import (
	"encoding/binary"
	"math"
)

// Message is a typed dialect message. marshal produces the full
// (untruncated) wire payload; the encoder trims trailing zeros.
type Message interface {
	MsgID() uint32
	marshal() []byte
}

// payloadReader walks a (possibly truncated) v2 payload. Reads past the
// end yield zero, which matches the v2 truncation rule.
type payloadReader struct {
	b   []byte
	off int
}

func (r *payloadReader) u8() uint8 {
	if r.off >= len(r.b) {
		r.off++
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *payloadReader) i8() int8 { return int8(r.u8()) }

func (r *payloadReader) u16() uint16 {
	v := uint16(r.u8())
	return v | uint16(r.u8())<<8
}

func (r *payloadReader) i16() int16 { return int16(r.u16()) }

func (r *payloadReader) u32() uint32 {
	v := uint32(r.u16())
	return v | uint32(r.u16())<<16
}

func (r *payloadReader) i32() int32 { return int32(r.u32()) }

func (r *payloadReader) u64() uint64 {
	v := uint64(r.u32())
	return v | uint64(r.u32())<<32
}

func (r *payloadReader) f32() float32 { return math.Float32frombits(r.u32()) }

func (r *payloadReader) bytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = r.u8()
	}
	return out
}

// payloadWriter builds a full-length payload.
type payloadWriter struct {
	b []byte
}

func (w *payloadWriter) u8(v uint8)   { w.b = append(w.b, v) }
func (w *payloadWriter) i8(v int8)    { w.u8(uint8(v)) }
func (w *payloadWriter) u16(v uint16) { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *payloadWriter) i16(v int16)  { w.u16(uint16(v)) }
func (w *payloadWriter) u32(v uint32) { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *payloadWriter) i32(v int32)  { w.u32(uint32(v)) }
func (w *payloadWriter) u64(v uint64) { w.b = binary.LittleEndian.AppendUint64(w.b, v) }
func (w *payloadWriter) f32(v float32) {
	w.u32(math.Float32bits(v))
}

// Unknown carries a frame whose message ID is outside the dialect.
type Unknown struct {
	ID      uint32
	Payload []byte
}

func (m *Unknown) MsgID() uint32   { return m.ID }
func (m *Unknown) marshal() []byte { return m.Payload }

// Heartbeat (0).
type Heartbeat struct {
	CustomMode     uint32
	Type           uint8
	Autopilot      uint8
	BaseMode       uint8
	SystemStatus   uint8
	MavlinkVersion uint8
}

func (m *Heartbeat) MsgID() uint32 { return MsgIDHeartbeat }

func (m *Heartbeat) marshal() []byte {
	var w payloadWriter
	w.u32(m.CustomMode)
	w.u8(m.Type)
	w.u8(m.Autopilot)
	w.u8(m.BaseMode)
	w.u8(m.SystemStatus)
	w.u8(m.MavlinkVersion)
	return w.b
}

func decodeHeartbeat(p []byte) *Heartbeat {
	r := payloadReader{b: p}
	return &Heartbeat{
		CustomMode:     r.u32(),
		Type:           r.u8(),
		Autopilot:      r.u8(),
		BaseMode:       r.u8(),
		SystemStatus:   r.u8(),
		MavlinkVersion: r.u8(),
	}
}

// SysStatus (1). The errors_count fields and v2 extensions are not retained.
type SysStatus struct {
	SensorsPresent   uint32
	SensorsEnabled   uint32
	SensorsHealth    uint32
	Load             uint16
	VoltageBatteryMv uint16
	CurrentBatteryCa int16
	DropRateComm     uint16
	ErrorsComm       uint16
	BatteryRemaining int8
}

func (m *SysStatus) MsgID() uint32 { return MsgIDSysStatus }

func (m *SysStatus) marshal() []byte {
	var w payloadWriter
	w.u32(m.SensorsPresent)
	w.u32(m.SensorsEnabled)
	w.u32(m.SensorsHealth)
	w.u16(m.Load)
	w.u16(m.VoltageBatteryMv)
	w.i16(m.CurrentBatteryCa)
	w.u16(m.DropRateComm)
	w.u16(m.ErrorsComm)
	w.u16(0) // errors_count1
	w.u16(0) // errors_count2
	w.u16(0) // errors_count3
	w.u16(0) // errors_count4
	w.i8(m.BatteryRemaining)
	return w.b
}

func decodeSysStatus(p []byte) *SysStatus {
	r := payloadReader{b: p}
	m := &SysStatus{
		SensorsPresent:   r.u32(),
		SensorsEnabled:   r.u32(),
		SensorsHealth:    r.u32(),
		Load:             r.u16(),
		VoltageBatteryMv: r.u16(),
		CurrentBatteryCa: r.i16(),
		DropRateComm:     r.u16(),
		ErrorsComm:       r.u16(),
	}
	r.u16() // errors_count1..4
	r.u16()
	r.u16()
	r.u16()
	m.BatteryRemaining = r.i8()
	return m
}

// SetMode (11).
type SetMode struct {
	CustomMode   uint32
	TargetSystem uint8
	BaseMode     uint8
}

func (m *SetMode) MsgID() uint32 { return MsgIDSetMode }

func (m *SetMode) marshal() []byte {
	var w payloadWriter
	w.u32(m.CustomMode)
	w.u8(m.TargetSystem)
	w.u8(m.BaseMode)
	return w.b
}

func decodeSetMode(p []byte) *SetMode {
	r := payloadReader{b: p}
	return &SetMode{CustomMode: r.u32(), TargetSystem: r.u8(), BaseMode: r.u8()}
}

// GpsRawInt (24).
type GpsRawInt struct {
	TimeUsec          uint64
	Lat               int32
	Lon               int32
	Alt               int32
	Eph               uint16
	Epv               uint16
	Vel               uint16
	Cog               uint16
	FixType           uint8
	SatellitesVisible uint8
}

func (m *GpsRawInt) MsgID() uint32 { return MsgIDGpsRawInt }

func (m *GpsRawInt) marshal() []byte {
	var w payloadWriter
	w.u64(m.TimeUsec)
	w.i32(m.Lat)
	w.i32(m.Lon)
	w.i32(m.Alt)
	w.u16(m.Eph)
	w.u16(m.Epv)
	w.u16(m.Vel)
	w.u16(m.Cog)
	w.u8(m.FixType)
	w.u8(m.SatellitesVisible)
	return w.b
}

func decodeGpsRawInt(p []byte) *GpsRawInt {
	r := payloadReader{b: p}
	return &GpsRawInt{
		TimeUsec:          r.u64(),
		Lat:               r.i32(),
		Lon:               r.i32(),
		Alt:               r.i32(),
		Eph:               r.u16(),
		Epv:               r.u16(),
		Vel:               r.u16(),
		Cog:               r.u16(),
		FixType:           r.u8(),
		SatellitesVisible: r.u8(),
	}
}

// Attitude (30). Angles in radians, rates in rad/s.
type Attitude struct {
	TimeBootMs uint32
	Roll       float32
	Pitch      float32
	Yaw        float32
	Rollspeed  float32
	Pitchspeed float32
	Yawspeed   float32
}

func (m *Attitude) MsgID() uint32 { return MsgIDAttitude }

func (m *Attitude) marshal() []byte {
	var w payloadWriter
	w.u32(m.TimeBootMs)
	w.f32(m.Roll)
	w.f32(m.Pitch)
	w.f32(m.Yaw)
	w.f32(m.Rollspeed)
	w.f32(m.Pitchspeed)
	w.f32(m.Yawspeed)
	return w.b
}

func decodeAttitude(p []byte) *Attitude {
	r := payloadReader{b: p}
	return &Attitude{
		TimeBootMs: r.u32(),
		Roll:       r.f32(),
		Pitch:      r.f32(),
		Yaw:        r.f32(),
		Rollspeed:  r.f32(),
		Pitchspeed: r.f32(),
		Yawspeed:   r.f32(),
	}
}

// GlobalPositionInt (33).
type GlobalPositionInt struct {
	TimeBootMs  uint32
	Lat         int32
	Lon         int32
	Alt         int32
	RelativeAlt int32
	Vx          int16
	Vy          int16
	Vz          int16
	Hdg         uint16
}

func (m *GlobalPositionInt) MsgID() uint32 { return MsgIDGlobalPositionInt }

func (m *GlobalPositionInt) marshal() []byte {
	var w payloadWriter
	w.u32(m.TimeBootMs)
	w.i32(m.Lat)
	w.i32(m.Lon)
	w.i32(m.Alt)
	w.i32(m.RelativeAlt)
	w.i16(m.Vx)
	w.i16(m.Vy)
	w.i16(m.Vz)
	w.u16(m.Hdg)
	return w.b
}

func decodeGlobalPositionInt(p []byte) *GlobalPositionInt {
	r := payloadReader{b: p}
	return &GlobalPositionInt{
		TimeBootMs:  r.u32(),
		Lat:         r.i32(),
		Lon:         r.i32(),
		Alt:         r.i32(),
		RelativeAlt: r.i32(),
		Vx:          r.i16(),
		Vy:          r.i16(),
		Vz:          r.i16(),
		Hdg:         r.u16(),
	}
}

// ServoOutputRaw (36). First bank of eight outputs.
type ServoOutputRaw struct {
	TimeUsec uint32
	Raw      [8]uint16
	Port     uint8
}

func (m *ServoOutputRaw) MsgID() uint32 { return MsgIDServoOutputRaw }

func (m *ServoOutputRaw) marshal() []byte {
	var w payloadWriter
	w.u32(m.TimeUsec)
	for _, v := range m.Raw {
		w.u16(v)
	}
	w.u8(m.Port)
	return w.b
}

func decodeServoOutputRaw(p []byte) *ServoOutputRaw {
	r := payloadReader{b: p}
	m := &ServoOutputRaw{TimeUsec: r.u32()}
	for i := range m.Raw {
		m.Raw[i] = r.u16()
	}
	m.Port = r.u8()
	return m
}

// MissionItem (39). Legacy float-coordinate form; the runtime never emits
// it but accepts it during download.
type MissionItem struct {
	Param1       float32
	Param2       float32
	Param3       float32
	Param4       float32
	X            float32
	Y            float32
	Z            float32
	Seq          uint16
	Command      uint16
	TargetSystem uint8
	TargetComp   uint8
	Frame        uint8
	Current      uint8
	Autocontinue uint8
	MissionType  uint8
}

func (m *MissionItem) MsgID() uint32 { return MsgIDMissionItem }

func (m *MissionItem) marshal() []byte {
	var w payloadWriter
	w.f32(m.Param1)
	w.f32(m.Param2)
	w.f32(m.Param3)
	w.f32(m.Param4)
	w.f32(m.X)
	w.f32(m.Y)
	w.f32(m.Z)
	w.u16(m.Seq)
	w.u16(m.Command)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.Frame)
	w.u8(m.Current)
	w.u8(m.Autocontinue)
	w.u8(m.MissionType)
	return w.b
}

func decodeMissionItem(p []byte) *MissionItem {
	r := payloadReader{b: p}
	return &MissionItem{
		Param1:       r.f32(),
		Param2:       r.f32(),
		Param3:       r.f32(),
		Param4:       r.f32(),
		X:            r.f32(),
		Y:            r.f32(),
		Z:            r.f32(),
		Seq:          r.u16(),
		Command:      r.u16(),
		TargetSystem: r.u8(),
		TargetComp:   r.u8(),
		Frame:        r.u8(),
		Current:      r.u8(),
		Autocontinue: r.u8(),
		MissionType:  r.u8(),
	}
}

// MissionRequest (40). Legacy request form.
type MissionRequest struct {
	Seq          uint16
	TargetSystem uint8
	TargetComp   uint8
	MissionType  uint8
}

func (m *MissionRequest) MsgID() uint32 { return MsgIDMissionRequest }

func (m *MissionRequest) marshal() []byte {
	var w payloadWriter
	w.u16(m.Seq)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.MissionType)
	return w.b
}

func decodeMissionRequest(p []byte) *MissionRequest {
	r := payloadReader{b: p}
	return &MissionRequest{Seq: r.u16(), TargetSystem: r.u8(), TargetComp: r.u8(), MissionType: r.u8()}
}

// MissionSetCurrent (41).
type MissionSetCurrent struct {
	Seq          uint16
	TargetSystem uint8
	TargetComp   uint8
}

func (m *MissionSetCurrent) MsgID() uint32 { return MsgIDMissionSetCurrent }

func (m *MissionSetCurrent) marshal() []byte {
	var w payloadWriter
	w.u16(m.Seq)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	return w.b
}

func decodeMissionSetCurrent(p []byte) *MissionSetCurrent {
	r := payloadReader{b: p}
	return &MissionSetCurrent{Seq: r.u16(), TargetSystem: r.u8(), TargetComp: r.u8()}
}

// MissionCurrent (42). Total comes from a v2 extension field.
type MissionCurrent struct {
	Seq   uint16
	Total uint16
}

func (m *MissionCurrent) MsgID() uint32 { return MsgIDMissionCurrent }

func (m *MissionCurrent) marshal() []byte {
	var w payloadWriter
	w.u16(m.Seq)
	w.u16(m.Total)
	return w.b
}

func decodeMissionCurrent(p []byte) *MissionCurrent {
	r := payloadReader{b: p}
	return &MissionCurrent{Seq: r.u16(), Total: r.u16()}
}

// MissionRequestList (43).
type MissionRequestList struct {
	TargetSystem uint8
	TargetComp   uint8
	MissionType  uint8
}

func (m *MissionRequestList) MsgID() uint32 { return MsgIDMissionRequestList }

func (m *MissionRequestList) marshal() []byte {
	var w payloadWriter
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.MissionType)
	return w.b
}

func decodeMissionRequestList(p []byte) *MissionRequestList {
	r := payloadReader{b: p}
	return &MissionRequestList{TargetSystem: r.u8(), TargetComp: r.u8(), MissionType: r.u8()}
}

// MissionCount (44).
type MissionCount struct {
	Count        uint16
	TargetSystem uint8
	TargetComp   uint8
	MissionType  uint8
}

func (m *MissionCount) MsgID() uint32 { return MsgIDMissionCount }

func (m *MissionCount) marshal() []byte {
	var w payloadWriter
	w.u16(m.Count)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.MissionType)
	w.u32(0) // opaque_id
	return w.b
}

func decodeMissionCount(p []byte) *MissionCount {
	r := payloadReader{b: p}
	return &MissionCount{Count: r.u16(), TargetSystem: r.u8(), TargetComp: r.u8(), MissionType: r.u8()}
}

// MissionClearAll (45).
type MissionClearAll struct {
	TargetSystem uint8
	TargetComp   uint8
	MissionType  uint8
}

func (m *MissionClearAll) MsgID() uint32 { return MsgIDMissionClearAll }

func (m *MissionClearAll) marshal() []byte {
	var w payloadWriter
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.MissionType)
	return w.b
}

func decodeMissionClearAll(p []byte) *MissionClearAll {
	r := payloadReader{b: p}
	return &MissionClearAll{TargetSystem: r.u8(), TargetComp: r.u8(), MissionType: r.u8()}
}

// MissionItemReached (46).
type MissionItemReached struct {
	Seq uint16
}

func (m *MissionItemReached) MsgID() uint32 { return MsgIDMissionItemReached }

func (m *MissionItemReached) marshal() []byte {
	var w payloadWriter
	w.u16(m.Seq)
	return w.b
}

func decodeMissionItemReached(p []byte) *MissionItemReached {
	r := payloadReader{b: p}
	return &MissionItemReached{Seq: r.u16()}
}

// MissionAck (47).
type MissionAck struct {
	TargetSystem uint8
	TargetComp   uint8
	Result       uint8
	MissionType  uint8
}

func (m *MissionAck) MsgID() uint32 { return MsgIDMissionAck }

func (m *MissionAck) marshal() []byte {
	var w payloadWriter
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.Result)
	w.u8(m.MissionType)
	w.u32(0) // opaque_id
	return w.b
}

func decodeMissionAck(p []byte) *MissionAck {
	r := payloadReader{b: p}
	return &MissionAck{TargetSystem: r.u8(), TargetComp: r.u8(), Result: r.u8(), MissionType: r.u8()}
}

// MissionRequestInt (51).
type MissionRequestInt struct {
	Seq          uint16
	TargetSystem uint8
	TargetComp   uint8
	MissionType  uint8
}

func (m *MissionRequestInt) MsgID() uint32 { return MsgIDMissionRequestInt }

func (m *MissionRequestInt) marshal() []byte {
	var w payloadWriter
	w.u16(m.Seq)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.MissionType)
	return w.b
}

func decodeMissionRequestInt(p []byte) *MissionRequestInt {
	r := payloadReader{b: p}
	return &MissionRequestInt{Seq: r.u16(), TargetSystem: r.u8(), TargetComp: r.u8(), MissionType: r.u8()}
}

// NavControllerOutput (62).
type NavControllerOutput struct {
	NavRoll       float32
	NavPitch      float32
	AltError      float32
	AspdError     float32
	XtrackError   float32
	NavBearing    int16
	TargetBearing int16
	WpDist        uint16
}

func (m *NavControllerOutput) MsgID() uint32 { return MsgIDNavControllerOutput }

func (m *NavControllerOutput) marshal() []byte {
	var w payloadWriter
	w.f32(m.NavRoll)
	w.f32(m.NavPitch)
	w.f32(m.AltError)
	w.f32(m.AspdError)
	w.f32(m.XtrackError)
	w.i16(m.NavBearing)
	w.i16(m.TargetBearing)
	w.u16(m.WpDist)
	return w.b
}

func decodeNavControllerOutput(p []byte) *NavControllerOutput {
	r := payloadReader{b: p}
	return &NavControllerOutput{
		NavRoll:       r.f32(),
		NavPitch:      r.f32(),
		AltError:      r.f32(),
		AspdError:     r.f32(),
		XtrackError:   r.f32(),
		NavBearing:    r.i16(),
		TargetBearing: r.i16(),
		WpDist:        r.u16(),
	}
}

// RcChannels (65).
type RcChannels struct {
	TimeBootMs uint32
	Raw        [18]uint16
	Chancount  uint8
	Rssi       uint8
}

func (m *RcChannels) MsgID() uint32 { return MsgIDRcChannels }

func (m *RcChannels) marshal() []byte {
	var w payloadWriter
	w.u32(m.TimeBootMs)
	for _, v := range m.Raw {
		w.u16(v)
	}
	w.u8(m.Chancount)
	w.u8(m.Rssi)
	return w.b
}

func decodeRcChannels(p []byte) *RcChannels {
	r := payloadReader{b: p}
	m := &RcChannels{TimeBootMs: r.u32()}
	for i := range m.Raw {
		m.Raw[i] = r.u16()
	}
	m.Chancount = r.u8()
	m.Rssi = r.u8()
	return m
}

// MissionItemInt (73). The canonical item form the runtime emits.
type MissionItemInt struct {
	Param1       float32
	Param2       float32
	Param3       float32
	Param4       float32
	X            int32
	Y            int32
	Z            float32
	Seq          uint16
	Command      uint16
	TargetSystem uint8
	TargetComp   uint8
	Frame        uint8
	Current      uint8
	Autocontinue uint8
	MissionType  uint8
}

func (m *MissionItemInt) MsgID() uint32 { return MsgIDMissionItemInt }

func (m *MissionItemInt) marshal() []byte {
	var w payloadWriter
	w.f32(m.Param1)
	w.f32(m.Param2)
	w.f32(m.Param3)
	w.f32(m.Param4)
	w.i32(m.X)
	w.i32(m.Y)
	w.f32(m.Z)
	w.u16(m.Seq)
	w.u16(m.Command)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.Frame)
	w.u8(m.Current)
	w.u8(m.Autocontinue)
	w.u8(m.MissionType)
	return w.b
}

func decodeMissionItemInt(p []byte) *MissionItemInt {
	r := payloadReader{b: p}
	return &MissionItemInt{
		Param1:       r.f32(),
		Param2:       r.f32(),
		Param3:       r.f32(),
		Param4:       r.f32(),
		X:            r.i32(),
		Y:            r.i32(),
		Z:            r.f32(),
		Seq:          r.u16(),
		Command:      r.u16(),
		TargetSystem: r.u8(),
		TargetComp:   r.u8(),
		Frame:        r.u8(),
		Current:      r.u8(),
		Autocontinue: r.u8(),
		MissionType:  r.u8(),
	}
}

// VfrHud (74).
type VfrHud struct {
	Airspeed    float32
	Groundspeed float32
	Alt         float32
	Climb       float32
	Heading     int16
	Throttle    uint16
}

func (m *VfrHud) MsgID() uint32 { return MsgIDVfrHud }

func (m *VfrHud) marshal() []byte {
	var w payloadWriter
	w.f32(m.Airspeed)
	w.f32(m.Groundspeed)
	w.f32(m.Alt)
	w.f32(m.Climb)
	w.i16(m.Heading)
	w.u16(m.Throttle)
	return w.b
}

func decodeVfrHud(p []byte) *VfrHud {
	r := payloadReader{b: p}
	return &VfrHud{
		Airspeed:    r.f32(),
		Groundspeed: r.f32(),
		Alt:         r.f32(),
		Climb:       r.f32(),
		Heading:     r.i16(),
		Throttle:    r.u16(),
	}
}

// CommandLong (76).
type CommandLong struct {
	Param1       float32
	Param2       float32
	Param3       float32
	Param4       float32
	Param5       float32
	Param6       float32
	Param7       float32
	Command      uint16
	TargetSystem uint8
	TargetComp   uint8
	Confirmation uint8
}

func (m *CommandLong) MsgID() uint32 { return MsgIDCommandLong }

func (m *CommandLong) marshal() []byte {
	var w payloadWriter
	w.f32(m.Param1)
	w.f32(m.Param2)
	w.f32(m.Param3)
	w.f32(m.Param4)
	w.f32(m.Param5)
	w.f32(m.Param6)
	w.f32(m.Param7)
	w.u16(m.Command)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.Confirmation)
	return w.b
}

func decodeCommandLong(p []byte) *CommandLong {
	r := payloadReader{b: p}
	return &CommandLong{
		Param1:       r.f32(),
		Param2:       r.f32(),
		Param3:       r.f32(),
		Param4:       r.f32(),
		Param5:       r.f32(),
		Param6:       r.f32(),
		Param7:       r.f32(),
		Command:      r.u16(),
		TargetSystem: r.u8(),
		TargetComp:   r.u8(),
		Confirmation: r.u8(),
	}
}

// CommandAck (77).
type CommandAck struct {
	Command uint16
	Result  uint8
}

func (m *CommandAck) MsgID() uint32 { return MsgIDCommandAck }

func (m *CommandAck) marshal() []byte {
	var w payloadWriter
	w.u16(m.Command)
	w.u8(m.Result)
	return w.b
}

func decodeCommandAck(p []byte) *CommandAck {
	r := payloadReader{b: p}
	return &CommandAck{Command: r.u16(), Result: r.u8()}
}

// SetPositionTargetGlobalInt (86). Position-only setpoints.
type SetPositionTargetGlobalInt struct {
	TimeBootMs      uint32
	LatInt          int32
	LonInt          int32
	Alt             float32
	Vx              float32
	Vy              float32
	Vz              float32
	Afx             float32
	Afy             float32
	Afz             float32
	Yaw             float32
	YawRate         float32
	TypeMask        uint16
	TargetSystem    uint8
	TargetComp      uint8
	CoordinateFrame uint8
}

func (m *SetPositionTargetGlobalInt) MsgID() uint32 { return MsgIDSetPositionTargetGlobalInt }

func (m *SetPositionTargetGlobalInt) marshal() []byte {
	var w payloadWriter
	w.u32(m.TimeBootMs)
	w.i32(m.LatInt)
	w.i32(m.LonInt)
	w.f32(m.Alt)
	w.f32(m.Vx)
	w.f32(m.Vy)
	w.f32(m.Vz)
	w.f32(m.Afx)
	w.f32(m.Afy)
	w.f32(m.Afz)
	w.f32(m.Yaw)
	w.f32(m.YawRate)
	w.u16(m.TypeMask)
	w.u8(m.TargetSystem)
	w.u8(m.TargetComp)
	w.u8(m.CoordinateFrame)
	return w.b
}

func decodeSetPositionTargetGlobalInt(p []byte) *SetPositionTargetGlobalInt {
	r := payloadReader{b: p}
	return &SetPositionTargetGlobalInt{
		TimeBootMs:      r.u32(),
		LatInt:          r.i32(),
		LonInt:          r.i32(),
		Alt:             r.f32(),
		Vx:              r.f32(),
		Vy:              r.f32(),
		Vz:              r.f32(),
		Afx:             r.f32(),
		Afy:             r.f32(),
		Afz:             r.f32(),
		Yaw:             r.f32(),
		YawRate:         r.f32(),
		TypeMask:        r.u16(),
		TargetSystem:    r.u8(),
		TargetComp:      r.u8(),
		CoordinateFrame: r.u8(),
	}
}

// TerrainReport (136).
type TerrainReport struct {
	Lat           int32
	Lon           int32
	TerrainHeight float32
	CurrentHeight float32
	Spacing       uint16
	Pending       uint16
	Loaded        uint16
}

func (m *TerrainReport) MsgID() uint32 { return MsgIDTerrainReport }

func (m *TerrainReport) marshal() []byte {
	var w payloadWriter
	w.i32(m.Lat)
	w.i32(m.Lon)
	w.f32(m.TerrainHeight)
	w.f32(m.CurrentHeight)
	w.u16(m.Spacing)
	w.u16(m.Pending)
	w.u16(m.Loaded)
	return w.b
}

func decodeTerrainReport(p []byte) *TerrainReport {
	r := payloadReader{b: p}
	return &TerrainReport{
		Lat:           r.i32(),
		Lon:           r.i32(),
		TerrainHeight: r.f32(),
		CurrentHeight: r.f32(),
		Spacing:       r.u16(),
		Pending:       r.u16(),
		Loaded:        r.u16(),
	}
}

// BatteryStatus (147).
type BatteryStatus struct {
	CurrentConsumed  int32
	EnergyConsumed   int32
	Temperature      int16
	Voltages         [10]uint16
	CurrentBattery   int16
	ID               uint8
	BatteryFunction  uint8
	Type             uint8
	BatteryRemaining int8
}

func (m *BatteryStatus) MsgID() uint32 { return MsgIDBatteryStatus }

func (m *BatteryStatus) marshal() []byte {
	var w payloadWriter
	w.i32(m.CurrentConsumed)
	w.i32(m.EnergyConsumed)
	w.i16(m.Temperature)
	for _, v := range m.Voltages {
		w.u16(v)
	}
	w.i16(m.CurrentBattery)
	w.u8(m.ID)
	w.u8(m.BatteryFunction)
	w.u8(m.Type)
	w.i8(m.BatteryRemaining)
	return w.b
}

func decodeBatteryStatus(p []byte) *BatteryStatus {
	r := payloadReader{b: p}
	m := &BatteryStatus{
		CurrentConsumed: r.i32(),
		EnergyConsumed:  r.i32(),
		Temperature:     r.i16(),
	}
	for i := range m.Voltages {
		m.Voltages[i] = r.u16()
	}
	m.CurrentBattery = r.i16()
	m.ID = r.u8()
	m.BatteryFunction = r.u8()
	m.Type = r.u8()
	m.BatteryRemaining = r.i8()
	return m
}

// HomePosition (242).
type HomePosition struct {
	Latitude  int32
	Longitude int32
	Altitude  int32
	X         float32
	Y         float32
	Z         float32
	Q         [4]float32
	ApproachX float32
	ApproachY float32
	ApproachZ float32
}

func (m *HomePosition) MsgID() uint32 { return MsgIDHomePosition }

func (m *HomePosition) marshal() []byte {
	var w payloadWriter
	w.i32(m.Latitude)
	w.i32(m.Longitude)
	w.i32(m.Altitude)
	w.f32(m.X)
	w.f32(m.Y)
	w.f32(m.Z)
	for _, v := range m.Q {
		w.f32(v)
	}
	w.f32(m.ApproachX)
	w.f32(m.ApproachY)
	w.f32(m.ApproachZ)
	return w.b
}

func decodeHomePosition(p []byte) *HomePosition {
	r := payloadReader{b: p}
	m := &HomePosition{
		Latitude:  r.i32(),
		Longitude: r.i32(),
		Altitude:  r.i32(),
		X:         r.f32(),
		Y:         r.f32(),
		Z:         r.f32(),
	}
	for i := range m.Q {
		m.Q[i] = r.f32()
	}
	m.ApproachX = r.f32()
	m.ApproachY = r.f32()
	m.ApproachZ = r.f32()
	return m
}

// StatusText (253).
type StatusText struct {
	Severity uint8
	Text     string
}

func (m *StatusText) MsgID() uint32 { return MsgIDStatusText }

func (m *StatusText) marshal() []byte {
	var w payloadWriter
	w.u8(m.Severity)
	text := make([]byte, 50)
	copy(text, m.Text)
	w.b = append(w.b, text...)
	return w.b
}

func decodeStatusText(p []byte) *StatusText {
	r := payloadReader{b: p}
	m := &StatusText{Severity: r.u8()}
	raw := r.bytes(50)
	for i, b := range raw {
		if b == 0 {
			raw = raw[:i]
			break
		}
	}
	m.Text = string(raw)
	return m
}

// Decode turns a frame into a typed message. Frames outside the dialect
// come back as *Unknown so dispatch can drop them without error.
func Decode(f Frame) Message {
	switch f.MsgID {
	case MsgIDHeartbeat:
		return decodeHeartbeat(f.Payload)
	case MsgIDSysStatus:
		return decodeSysStatus(f.Payload)
	case MsgIDSetMode:
		return decodeSetMode(f.Payload)
	case MsgIDGpsRawInt:
		return decodeGpsRawInt(f.Payload)
	case MsgIDAttitude:
		return decodeAttitude(f.Payload)
	case MsgIDGlobalPositionInt:
		return decodeGlobalPositionInt(f.Payload)
	case MsgIDServoOutputRaw:
		return decodeServoOutputRaw(f.Payload)
	case MsgIDMissionItem:
		return decodeMissionItem(f.Payload)
	case MsgIDMissionRequest:
		return decodeMissionRequest(f.Payload)
	case MsgIDMissionSetCurrent:
		return decodeMissionSetCurrent(f.Payload)
	case MsgIDMissionCurrent:
		return decodeMissionCurrent(f.Payload)
	case MsgIDMissionRequestList:
		return decodeMissionRequestList(f.Payload)
	case MsgIDMissionCount:
		return decodeMissionCount(f.Payload)
	case MsgIDMissionClearAll:
		return decodeMissionClearAll(f.Payload)
	case MsgIDMissionItemReached:
		return decodeMissionItemReached(f.Payload)
	case MsgIDMissionAck:
		return decodeMissionAck(f.Payload)
	case MsgIDMissionRequestInt:
		return decodeMissionRequestInt(f.Payload)
	case MsgIDNavControllerOutput:
		return decodeNavControllerOutput(f.Payload)
	case MsgIDRcChannels:
		return decodeRcChannels(f.Payload)
	case MsgIDMissionItemInt:
		return decodeMissionItemInt(f.Payload)
	case MsgIDVfrHud:
		return decodeVfrHud(f.Payload)
	case MsgIDCommandLong:
		return decodeCommandLong(f.Payload)
	case MsgIDCommandAck:
		return decodeCommandAck(f.Payload)
	case MsgIDSetPositionTargetGlobalInt:
		return decodeSetPositionTargetGlobalInt(f.Payload)
	case MsgIDTerrainReport:
		return decodeTerrainReport(f.Payload)
	case MsgIDBatteryStatus:
		return decodeBatteryStatus(f.Payload)
	case MsgIDHomePosition:
		return decodeHomePosition(f.Payload)
	case MsgIDStatusText:
		return decodeStatusText(f.Payload)
	default:
		return &Unknown{ID: f.MsgID, Payload: f.Payload}
	}
}

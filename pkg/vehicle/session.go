package vehicle

import (
	"log/slog"
	"math"
	"time"

	"gcslink/internal/metrics"
	"gcslink/pkg/logging"
	"gcslink/pkg/mav"
	"gcslink/pkg/plan"
	"gcslink/pkg/state"
	"gcslink/pkg/transfer"
	"gcslink/pkg/transport"
)

// linkCheckInterval paces the inbound-silence watchdog.
const linkCheckInterval = 250 * time.Millisecond

// session is the I/O actor behind a Vehicle handle. It owns the transport
// exclusively: every read and write happens inside run. External callers
// talk to it through the mailbox only.
type session struct {
	cfg Config
	ep  transport.Endpoint
	enc *mav.Encoder
	dec mav.Decoder

	mailbox chan any
	closing chan struct{}
	done    chan struct{}

	linkState    *state.Watch[state.LinkState]
	vehicleState *state.Watch[state.VehicleState]
	telemetry    *state.Watch[state.Telemetry]
	homePos      *state.Watch[*plan.HomePosition]
	missionState *state.Watch[state.MissionState]
	progress     *state.Watch[transfer.Progress]

	// Actor-local state below; only run() and its callees touch it.
	target        *transfer.Target
	connected     bool
	linkLost      bool
	homeRequested bool
	lastInbound   time.Time

	xfer       *activeTransfer
	ackWaiters map[uint16]*ackWaiter
	modeWait   *modeWaiter
	curWait    *currentWaiter
	lastTotal  uint16

	timerGen     int
	xferGen      int
	decodeErrors uint64
}

type activeTransfer struct {
	machine  *transfer.Machine
	download bool
	reply    chan xferResult
}

type xferResult struct {
	items []plan.Item
	err   error
}

type ackWaiter struct {
	command uint16
	reply   chan error
	gen     int
}

type modeWaiter struct {
	customMode uint32
	reply      chan error
	lastResult *uint8
	gen        int
}

type currentWaiter struct {
	seq      uint16
	reply    chan error
	attempts int
	gen      int
}

// Mailbox messages.
type (
	cmdUpload struct {
		kind  plan.Kind
		wire  []plan.Item
		reply chan xferResult
	}
	cmdDownload struct {
		kind  plan.Kind
		reply chan xferResult
	}
	cmdClear struct {
		kind  plan.Kind
		reply chan xferResult
	}
	cmdCancelTransfer struct{}
	cmdCommandLong    struct {
		command uint16
		params  [7]float32
		reply   chan error
	}
	cmdSetMode struct {
		customMode uint32
		reply      chan error
	}
	cmdSetCurrent struct {
		seq   uint16
		reply chan error
	}
	cmdGoto struct {
		latE7 int32
		lonE7 int32
		altM  float32
		reply chan error
	}

	evTransferTimeout struct{ gen int }
	evAckTimeout      struct {
		command uint16
		gen     int
	}
	evModeTimeout    struct{ gen int }
	evCurrentTimeout struct{ gen int }
)

func newSession(ep transport.Endpoint, cfg Config) *session {
	return &session{
		cfg:          cfg,
		ep:           ep,
		enc:          mav.NewEncoder(cfg.SystemID, cfg.ComponentID),
		mailbox:      make(chan any, cfg.CommandBuffer),
		closing:      make(chan struct{}),
		done:         make(chan struct{}),
		linkState:    state.NewWatch(state.LinkState{Status: state.LinkConnecting}),
		vehicleState: state.NewWatch(state.VehicleState{}),
		telemetry:    state.NewWatch(state.Telemetry{}),
		homePos:      state.NewWatch[*plan.HomePosition](nil),
		missionState: state.NewWatch(state.MissionState{}),
		progress:     state.NewWatch(transfer.Progress{}),
		ackWaiters:   make(map[uint16]*ackWaiter),
	}
}

// run is the actor loop. It exits on Close or on a fatal transport error.
func (s *session) run() {
	defer close(s.done)
	defer s.closeWatches()

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	linkCheck := time.NewTicker(linkCheckInterval)
	defer linkCheck.Stop()

	s.lastInbound = time.Now()
	s.sendHeartbeat()

	for {
		select {
		case <-s.closing:
			s.failEverything(ErrNotConnected)
			// Keep a terminal error state visible; otherwise report a
			// clean disconnect.
			if s.linkState.Get().Status != state.LinkError {
				s.linkState.Set(state.LinkState{Status: state.LinkDisconnected})
			}
			s.ep.Close()
			return

		case chunk, ok := <-s.ep.Receive():
			if !ok {
				slog.Error("transport closed", "endpoint", s.ep.String())
				s.failEverything(&TransportError{Err: transport.ErrClosed})
				s.linkState.Set(state.LinkState{Status: state.LinkError, Reason: "transport closed"})
				s.ep.Close()
				return
			}
			for _, frame := range s.dec.Push(chunk) {
				s.lastInbound = time.Now()
				metrics.FramesReceived.Inc()
				s.dispatch(frame)
			}
			if dropped := s.dec.CRCErrors + s.dec.SignedDropped; dropped > s.decodeErrors {
				metrics.DecodeErrors.Add(float64(dropped - s.decodeErrors))
				slog.Debug("dropped undecodable frames", "count", dropped-s.decodeErrors)
				s.decodeErrors = dropped
			}

		case item := <-s.mailbox:
			s.handleMailbox(item)

		case <-heartbeat.C:
			s.sendHeartbeat()

		case <-linkCheck.C:
			s.checkLink()
		}
	}
}

func (s *session) closeWatches() {
	s.linkState.Close()
	s.vehicleState.Close()
	s.telemetry.Close()
	s.homePos.Close()
	s.missionState.Close()
	s.progress.Close()
}

func (s *session) sendHeartbeat() {
	s.send(&mav.Heartbeat{
		Type:           mav.TypeGCS,
		Autopilot:      mav.AutopilotInvalid,
		SystemStatus:   mav.StateActive,
		MavlinkVersion: 3,
	})
}

func (s *session) send(msg mav.Message) {
	raw, err := s.enc.Encode(msg)
	if err != nil {
		slog.Error("encode failed", "msg_id", msg.MsgID(), "error", err)
		return
	}
	if err := s.ep.Send(raw); err != nil {
		// The UDP server cannot reply before the first inbound packet;
		// everything else is worth a warning.
		if err != transport.ErrNoPeer {
			slog.Warn("send failed", "msg_id", msg.MsgID(), "error", err)
		}
		return
	}
	metrics.FramesSent.Inc()
	logging.TraceDefault("frame sent", "msg_id", msg.MsgID())
}

func (s *session) sendAll(msgs []mav.Message) {
	for _, m := range msgs {
		s.send(m)
	}
}

func (s *session) checkLink() {
	if !s.connected || s.linkLost {
		return
	}
	if time.Since(s.lastInbound) > s.cfg.LinkTimeout {
		slog.Warn("link lost", "silence", time.Since(s.lastInbound).Round(time.Millisecond))
		metrics.LinkUp.Set(0)
		s.linkLost = true
		s.linkState.Set(state.LinkState{Status: state.LinkError, Reason: "timeout"})
		s.failEverything(ErrLinkLost)
	}
}

// failEverything resolves every pending operation with err.
func (s *session) failEverything(err error) {
	if s.xfer != nil {
		s.xfer.machine.Cancel()
		s.publishProgress()
		s.xfer.reply <- xferResult{err: err}
		s.xfer = nil
	}
	for cmd, w := range s.ackWaiters {
		w.reply <- err
		delete(s.ackWaiters, cmd)
	}
	if s.modeWait != nil {
		s.modeWait.reply <- err
		s.modeWait = nil
	}
	if s.curWait != nil {
		s.curWait.reply <- err
		s.curWait = nil
	}
}

// ---------------------------------------------------------------------------
// Inbound dispatch
// ---------------------------------------------------------------------------

func (s *session) dispatch(frame mav.Frame) {
	msg := mav.Decode(frame)
	logging.TraceDefault("frame received", "msg_id", frame.MsgID, "system", frame.SystemID)

	s.updateTarget(frame, msg)

	switch t := msg.(type) {
	case *mav.Heartbeat:
		s.onHeartbeat(t)
	case *mav.GlobalPositionInt:
		s.telemetry.Update(func(tel *state.Telemetry) {
			tel.LatDeg = ptr(float64(t.Lat) / 1e7)
			tel.LonDeg = ptr(float64(t.Lon) / 1e7)
			tel.AltitudeMslM = ptr(float64(t.Alt) / 1000)
			tel.RelativeAltM = ptr(float64(t.RelativeAlt) / 1000)
			if t.Hdg != 65535 {
				tel.HeadingDeg = ptr(float64(t.Hdg) / 100)
			}
		})
	case *mav.VfrHud:
		s.telemetry.Update(func(tel *state.Telemetry) {
			tel.AirspeedMps = ptr(float64(t.Airspeed))
			tel.GroundspeedMps = ptr(float64(t.Groundspeed))
			tel.ClimbRateMps = ptr(float64(t.Climb))
			tel.HeadingDeg = ptr(float64(t.Heading))
			tel.ThrottlePct = ptr(int(t.Throttle))
		})
	case *mav.Attitude:
		s.telemetry.Update(func(tel *state.Telemetry) {
			tel.Attitude = &state.Attitude{
				RollDeg:  float64(t.Roll) * 180 / math.Pi,
				PitchDeg: float64(t.Pitch) * 180 / math.Pi,
				YawDeg:   float64(t.Yaw) * 180 / math.Pi,
			}
		})
	case *mav.GpsRawInt:
		s.telemetry.Update(func(tel *state.Telemetry) {
			tel.Gps = &state.Gps{
				FixType:    state.GpsFixFromRaw(t.FixType),
				Satellites: int(t.SatellitesVisible),
				Hdop:       float64(t.Eph) / 100,
			}
		})
	case *mav.SysStatus:
		s.telemetry.Update(func(tel *state.Telemetry) {
			battery := state.Battery{
				VoltageV:     float64(t.VoltageBatteryMv) / 1000,
				RemainingPct: int(t.BatteryRemaining),
			}
			if t.CurrentBatteryCa >= 0 {
				battery.CurrentA = float64(t.CurrentBatteryCa) / 100
			}
			tel.Battery = &battery
		})
	case *mav.BatteryStatus:
		s.telemetry.Update(func(tel *state.Telemetry) {
			if tel.Battery == nil {
				tel.Battery = &state.Battery{}
			}
			b := *tel.Battery
			if t.BatteryRemaining >= 0 {
				b.RemainingPct = int(t.BatteryRemaining)
			}
			if t.Voltages[0] != 65535 {
				b.VoltageV = float64(t.Voltages[0]) / 1000
			}
			tel.Battery = &b
		})
	case *mav.NavControllerOutput:
		s.telemetry.Update(func(tel *state.Telemetry) {
			tel.Nav = &state.NavDeltas{
				WpDistanceM:   float64(t.WpDist),
				TargetBearing: float64(t.TargetBearing),
				XtrackErrorM:  float64(t.XtrackError),
			}
		})
	case *mav.RcChannels:
		s.telemetry.Update(func(tel *state.Telemetry) {
			n := int(t.Chancount)
			if n > len(t.Raw) {
				n = len(t.Raw)
			}
			tel.RcChannels = append([]uint16(nil), t.Raw[:n]...)
		})
	case *mav.ServoOutputRaw:
		s.telemetry.Update(func(tel *state.Telemetry) {
			tel.ServoOutputs = append([]uint16(nil), t.Raw[:]...)
		})
	case *mav.TerrainReport:
		s.telemetry.Update(func(tel *state.Telemetry) {
			tel.TerrainHeight = ptr(float64(t.TerrainHeight))
		})
	case *mav.HomePosition:
		s.homePos.Set(&plan.HomePosition{
			Lat: float64(t.Latitude) / 1e7,
			Lon: float64(t.Longitude) / 1e7,
			Alt: float32(float64(t.Altitude) / 1000),
		})
	case *mav.MissionCurrent:
		total := t.Total
		if total == 0 {
			total = s.lastTotal
		}
		s.missionState.Set(state.MissionState{CurrentSeq: t.Seq, TotalItems: total})
		if s.curWait != nil && t.Seq == s.curWait.seq {
			s.curWait.reply <- nil
			s.curWait = nil
		}
	case *mav.MissionItemReached:
		s.missionState.Update(func(ms *state.MissionState) {
			ms.CurrentSeq = t.Seq
		})
	case *mav.MissionCount, *mav.MissionRequestInt, *mav.MissionRequest,
		*mav.MissionItemInt, *mav.MissionItem, *mav.MissionAck:
		s.onTransferMessage(msg)
	case *mav.CommandAck:
		s.onCommandAck(t)
	case *mav.StatusText:
		slog.Info("vehicle status", "severity", t.Severity, "text", t.Text)
	default:
		// Telemetry we do not track; ignore.
	}
}

func (s *session) updateTarget(frame mav.Frame, msg mav.Message) {
	if frame.SystemID == 0 || frame.SystemID == s.cfg.SystemID {
		return
	}
	if _, ok := msg.(*mav.Heartbeat); ok || s.target == nil {
		s.target = &transfer.Target{System: frame.SystemID, Component: frame.ComponentID}
	}
}

func (s *session) onHeartbeat(hb *mav.Heartbeat) {
	autopilot := state.AutopilotFromMav(hb.Autopilot)
	vtype := state.VehicleTypeFromMav(hb.Type)

	s.vehicleState.Set(state.VehicleState{
		Armed:        hb.BaseMode&mav.ModeFlagSafetyArmed != 0,
		CustomMode:   hb.CustomMode,
		ModeName:     modeName(autopilot, vtype, hb.CustomMode),
		SystemStatus: state.SystemStatusFromMav(hb.SystemStatus),
		VehicleType:  vtype,
		Autopilot:    autopilot,
		Seen:         true,
	})

	if !s.connected || s.linkLost {
		s.connected = true
		s.linkLost = false
		metrics.LinkUp.Set(1)
		s.linkState.Set(state.LinkState{Status: state.LinkConnected})
		slog.Info("vehicle connected", "autopilot", autopilot, "type", vtype)
	}

	if s.cfg.AutoRequestHome && !s.homeRequested && s.target != nil {
		s.homeRequested = true
		s.send(&mav.CommandLong{
			Param1:       mav.RequestableHomePosition,
			Command:      mav.CmdRequestMessage,
			TargetSystem: s.target.System,
			TargetComp:   s.target.Component,
		})
	}

	if s.modeWait != nil && hb.CustomMode == s.modeWait.customMode {
		s.modeWait.reply <- nil
		s.modeWait = nil
	}
}

func (s *session) onTransferMessage(msg mav.Message) {
	if s.xfer == nil {
		return
	}
	outs := s.xfer.machine.HandleMessage(msg)
	s.sendAll(outs)
	s.publishProgress()
	if s.xfer.machine.Done() {
		s.finishTransfer()
		return
	}
	if len(outs) > 0 {
		s.armTransferTimer()
	}
}

func (s *session) onCommandAck(ack *mav.CommandAck) {
	if w, ok := s.ackWaiters[ack.Command]; ok {
		metrics.CommandsTotal.WithLabelValues(mav.ResultName(ack.Result)).Inc()
		if ack.Result == mav.ResultAccepted {
			w.reply <- nil
		} else {
			w.reply <- &CommandError{Command: ack.Command, Result: ack.Result}
		}
		delete(s.ackWaiters, ack.Command)
		return
	}

	if s.modeWait != nil && ack.Command == mav.CmdDoSetMode {
		if ack.Result == mav.ResultAccepted {
			s.modeWait.reply <- nil
			s.modeWait = nil
		} else {
			// The autopilot may still switch; keep waiting for a
			// confirming heartbeat until the deadline.
			result := ack.Result
			s.modeWait.lastResult = &result
		}
		return
	}

	if s.curWait != nil && ack.Command == mav.CmdDoSetMissionCurrent {
		if ack.Result == mav.ResultAccepted {
			s.curWait.reply <- nil
			s.curWait = nil
		} else {
			s.curWait.reply <- &CommandError{Command: ack.Command, Result: ack.Result}
			s.curWait = nil
		}
	}
}

// ---------------------------------------------------------------------------
// Mailbox handling
// ---------------------------------------------------------------------------

func (s *session) handleMailbox(item any) {
	switch c := item.(type) {
	case cmdUpload:
		s.startTransfer(c.reply, transfer.NewUpload(c.kind, c.wire, s.requireTarget(), s.cfg.Retry), false)
	case cmdDownload:
		s.startTransfer(c.reply, transfer.NewDownload(c.kind, s.requireTarget(), s.cfg.Retry), true)
	case cmdClear:
		s.startTransfer(c.reply, transfer.NewClear(c.kind, s.requireTarget(), s.cfg.Retry), false)
	case cmdCancelTransfer:
		if s.xfer != nil {
			s.xfer.machine.Cancel()
			s.publishProgress()
			s.finishTransfer()
		}
	case cmdCommandLong:
		s.startCommand(c)
	case cmdSetMode:
		s.startSetMode(c)
	case cmdSetCurrent:
		s.startSetCurrent(c)
	case cmdGoto:
		if s.target == nil {
			c.reply <- ErrNoHeartbeat
			return
		}
		s.send(&mav.SetPositionTargetGlobalInt{
			LatInt:          c.latE7,
			LonInt:          c.lonE7,
			Alt:             c.altM,
			TypeMask:        mav.TypeMaskPositionOnly,
			TargetSystem:    s.target.System,
			TargetComp:      s.target.Component,
			CoordinateFrame: mav.FrameGlobalRelativeAlt,
		})
		c.reply <- nil

	case evTransferTimeout:
		if s.xfer == nil || c.gen != s.xferGen {
			return
		}
		outs := s.xfer.machine.HandleTimeout()
		if len(outs) > 0 {
			metrics.TransferRetries.Inc()
		}
		s.sendAll(outs)
		s.publishProgress()
		if s.xfer.machine.Done() {
			s.finishTransfer()
			return
		}
		s.armTransferTimer()
	case evAckTimeout:
		if w, ok := s.ackWaiters[c.command]; ok && w.gen == c.gen {
			w.reply <- ErrTimeout
			delete(s.ackWaiters, c.command)
		}
	case evModeTimeout:
		if s.modeWait != nil && s.modeWait.gen == c.gen {
			if s.modeWait.lastResult != nil {
				s.modeWait.reply <- &CommandError{Command: mav.CmdDoSetMode, Result: *s.modeWait.lastResult}
			} else {
				s.modeWait.reply <- ErrTimeout
			}
			s.modeWait = nil
		}
	case evCurrentTimeout:
		if s.curWait != nil && s.curWait.gen == c.gen {
			if s.curWait.attempts < s.cfg.Retry.MaxRetries {
				s.curWait.attempts++
				s.sendSetCurrent(s.curWait.seq)
				s.afterFunc(s.cfg.Retry.RequestTimeout, evCurrentTimeout{gen: s.curWait.gen})
			} else {
				s.curWait.reply <- ErrTimeout
				s.curWait = nil
			}
		}
	}
}

func (s *session) requireTarget() transfer.Target {
	if s.target != nil {
		return *s.target
	}
	// No heartbeat from another system yet: address system 1, component 1.
	// startTransfer still rejects transfers while the link is not connected.
	return transfer.Target{System: 1, Component: 1}
}

func (s *session) startTransfer(reply chan xferResult, machine *transfer.Machine, download bool) {
	if s.xfer != nil {
		reply <- xferResult{err: ErrBusy}
		return
	}
	if s.linkLost || !s.connected {
		reply <- xferResult{err: ErrLinkLost}
		return
	}

	s.xfer = &activeTransfer{machine: machine, download: download, reply: reply}
	s.sendAll(machine.Start())
	s.publishProgress()
	s.armTransferTimer()
}

func (s *session) finishTransfer() {
	x := s.xfer
	s.xfer = nil
	s.xferGen++ // invalidate any in-flight timer event

	machine := x.machine
	progress := machine.Progress()
	metrics.TransfersTotal.WithLabelValues(progress.Direction.String(), progress.Phase.String()).Inc()

	switch {
	case machine.Err() != nil:
		err := machine.Err()
		if err.Code == "transfer.timeout" {
			x.reply <- xferResult{err: ErrTimeout}
		} else {
			x.reply <- xferResult{err: err}
		}
	case progress.Phase == transfer.Cancelled:
		x.reply <- xferResult{err: ErrCancelled}
	default:
		s.lastTotal = progress.Total
		x.reply <- xferResult{items: machine.Items()}
	}
}

func (s *session) publishProgress() {
	if s.xfer != nil {
		s.progress.Set(s.xfer.machine.Progress())
	}
}

func (s *session) armTransferTimer() {
	s.xferGen++
	s.afterFunc(s.xfer.machine.Deadline(), evTransferTimeout{gen: s.xferGen})
}

// afterFunc delivers an event into the mailbox after d, unless the
// session is closing.
func (s *session) afterFunc(d time.Duration, ev any) {
	time.AfterFunc(d, func() {
		select {
		case s.mailbox <- ev:
		case <-s.closing:
		}
	})
}

func (s *session) startCommand(c cmdCommandLong) {
	if s.target == nil {
		c.reply <- ErrNoHeartbeat
		return
	}
	if s.linkLost {
		c.reply <- ErrLinkLost
		return
	}
	if _, exists := s.ackWaiters[c.command]; exists {
		c.reply <- ErrBusy
		return
	}

	s.send(&mav.CommandLong{
		Param1:       c.params[0],
		Param2:       c.params[1],
		Param3:       c.params[2],
		Param4:       c.params[3],
		Param5:       c.params[4],
		Param6:       c.params[5],
		Param7:       c.params[6],
		Command:      c.command,
		TargetSystem: s.target.System,
		TargetComp:   s.target.Component,
	})

	s.timerGen++
	s.ackWaiters[c.command] = &ackWaiter{command: c.command, reply: c.reply, gen: s.timerGen}
	s.afterFunc(s.cfg.CommandTimeout, evAckTimeout{command: c.command, gen: s.timerGen})
}

func (s *session) startSetMode(c cmdSetMode) {
	if s.target == nil {
		c.reply <- ErrNoHeartbeat
		return
	}
	if s.linkLost {
		c.reply <- ErrLinkLost
		return
	}
	if s.modeWait != nil {
		c.reply <- ErrBusy
		return
	}

	s.send(&mav.CommandLong{
		Param1:       1, // MAV_MODE_FLAG_CUSTOM_MODE_ENABLED
		Param2:       float32(c.customMode),
		Command:      mav.CmdDoSetMode,
		TargetSystem: s.target.System,
		TargetComp:   s.target.Component,
	})

	s.timerGen++
	s.modeWait = &modeWaiter{customMode: c.customMode, reply: c.reply, gen: s.timerGen}
	s.afterFunc(s.cfg.CommandTimeout, evModeTimeout{gen: s.timerGen})
}

func (s *session) startSetCurrent(c cmdSetCurrent) {
	if s.target == nil {
		c.reply <- ErrNoHeartbeat
		return
	}
	if s.linkLost {
		c.reply <- ErrLinkLost
		return
	}
	if s.curWait != nil {
		c.reply <- ErrBusy
		return
	}

	s.sendSetCurrent(c.seq)
	s.timerGen++
	s.curWait = &currentWaiter{seq: c.seq, reply: c.reply, gen: s.timerGen}
	s.afterFunc(s.cfg.Retry.RequestTimeout, evCurrentTimeout{gen: s.timerGen})
}

func (s *session) sendSetCurrent(seq uint16) {
	s.send(&mav.CommandLong{
		Param1:       float32(seq),
		Command:      mav.CmdDoSetMissionCurrent,
		TargetSystem: s.target.System,
		TargetComp:   s.target.Component,
	})
}

func ptr[T any](v T) *T { return &v }

package vehicle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcslink/pkg/mav"
	"gcslink/pkg/plan"
	"gcslink/pkg/state"
	"gcslink/pkg/transfer"
	"gcslink/pkg/transport"
)

// loopEndpoint is an in-memory transport.Endpoint. The scripted peer
// injects inbound bytes and observes the session's decoded sends.
type loopEndpoint struct {
	in   chan []byte
	sent chan mav.Message
	dec  mav.Decoder

	mu     sync.Mutex
	closed bool
}

func newLoopEndpoint() *loopEndpoint {
	return &loopEndpoint{
		in:   make(chan []byte, 256),
		sent: make(chan mav.Message, 1024),
	}
}

func (e *loopEndpoint) Send(frame []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return transport.ErrClosed
	}
	for _, f := range e.dec.Push(frame) {
		e.sent <- mav.Decode(f)
	}
	return nil
}

func (e *loopEndpoint) Receive() <-chan []byte { return e.in }

func (e *loopEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.in)
	}
	return nil
}

func (e *loopEndpoint) String() string { return "loop:test" }

// autopilot is a scripted peer on the far side of a loopEndpoint.
type autopilot struct {
	t    *testing.T
	ep   *loopEndpoint
	enc  *mav.Encoder
	stop chan struct{}
}

func newAutopilot(t *testing.T, ep *loopEndpoint) *autopilot {
	return &autopilot{
		t:    t,
		ep:   ep,
		enc:  mav.NewEncoder(1, 1),
		stop: make(chan struct{}),
	}
}

func (a *autopilot) push(msg mav.Message) {
	raw, err := a.enc.Encode(msg)
	require.NoError(a.t, err)
	a.ep.mu.Lock()
	defer a.ep.mu.Unlock()
	if a.ep.closed {
		return
	}
	a.ep.in <- raw
}

func (a *autopilot) heartbeat() *mav.Heartbeat {
	return &mav.Heartbeat{
		CustomMode:     4, // GUIDED
		Type:           mav.TypeQuadrotor,
		Autopilot:      mav.AutopilotArduPilotMega,
		BaseMode:       mav.ModeFlagCustomModeEnabled,
		SystemStatus:   mav.StateStandby,
		MavlinkVersion: 3,
	}
}

// pumpHeartbeats keeps the link alive in the background.
func (a *autopilot) pumpHeartbeats(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.stop:
				return
			case <-ticker.C:
				a.push(a.heartbeat())
			}
		}
	}()
}

func (a *autopilot) mute() { close(a.stop) }

// drain discards everything the session has sent so far, so a scripted
// exchange does not react to stale traffic from an earlier phase.
func (a *autopilot) drain() {
	for {
		select {
		case <-a.ep.sent:
		default:
			return
		}
	}
}

// expect reads session sends until one matches, skipping the rest.
func expect[T mav.Message](t *testing.T, a *autopilot, timeout time.Duration, pred func(T) bool) T {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-a.ep.sent:
			if typed, ok := msg.(T); ok && pred(typed) {
				return typed
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %T", *new(T))
			panic("unreachable")
		}
	}
}

func any_[T mav.Message](T) bool { return true }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ConnectTimeout = 2 * time.Second
	cfg.LinkTimeout = 400 * time.Millisecond
	cfg.HeartbeatInterval = 100 * time.Millisecond
	cfg.CommandTimeout = 500 * time.Millisecond
	cfg.Retry = transfer.RetryPolicy{
		RequestTimeout: 150 * time.Millisecond,
		ItemTimeout:    80 * time.Millisecond,
		MaxRetries:     5,
	}
	return cfg
}

// connect starts a session against a scripted peer with live heartbeats.
func connect(t *testing.T) (*Vehicle, *autopilot) {
	t.Helper()
	ep := newLoopEndpoint()
	ap := newAutopilot(t, ep)
	ap.pumpHeartbeats(100 * time.Millisecond)

	v, err := ConnectEndpoint(context.Background(), ep, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v, ap
}

func bostonPlan() plan.Plan {
	return plan.Plan{
		Kind: plan.KindMission,
		Home: &plan.HomePosition{Lat: 42.3898, Lon: -71.1476, Alt: 14},
		Items: []plan.Item{
			{Seq: 0, Command: 16, Frame: plan.FrameGlobalRelativeAltInt, Current: true, Autocontinue: true, X: 423898000, Y: -711476000, Z: 25},
			{Seq: 1, Command: 16, Frame: plan.FrameGlobalRelativeAltInt, Autocontinue: true, X: 423902000, Y: -711470000, Z: 30},
		},
	}
}

// serveUpload answers an upload exchange: consume the count, request each
// item, then ack. Returns the received wire items.
func serveUpload(t *testing.T, ap *autopilot, kind plan.Kind) []*mav.MissionItemInt {
	count := expect(t, ap, 2*time.Second, func(m *mav.MissionCount) bool {
		return m.MissionType == uint8(kind)
	})
	items := make([]*mav.MissionItemInt, 0, count.Count)
	for seq := uint16(0); seq < count.Count; seq++ {
		ap.push(&mav.MissionRequestInt{Seq: seq, TargetSystem: 255, TargetComp: 190, MissionType: uint8(kind)})
		item := expect(t, ap, 2*time.Second, func(m *mav.MissionItemInt) bool { return m.Seq == seq })
		items = append(items, item)
	}
	ap.push(&mav.MissionAck{TargetSystem: 255, TargetComp: 190, Result: mav.MissionAccepted, MissionType: uint8(kind)})
	return items
}

// serveDownload answers a download exchange with the given wire items.
func serveDownload(t *testing.T, ap *autopilot, kind plan.Kind, items []*mav.MissionItemInt) {
	expect(t, ap, 2*time.Second, any_[*mav.MissionRequestList])
	ap.push(&mav.MissionCount{Count: uint16(len(items)), TargetSystem: 255, TargetComp: 190, MissionType: uint8(kind)})
	for _, item := range items {
		expect(t, ap, 2*time.Second, func(m *mav.MissionRequestInt) bool { return m.Seq == item.Seq })
		ap.push(item)
	}
	expect(t, ap, 2*time.Second, func(m *mav.MissionAck) bool { return m.Result == mav.MissionAccepted })
}

func TestConnectWaitsForHeartbeat(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	link := v.LinkState().Get()
	assert.Equal(t, state.LinkConnected, link.Status)

	vs := v.State().Get()
	assert.True(t, vs.Seen)
	assert.Equal(t, "GUIDED", vs.ModeName)
	assert.Equal(t, state.AutopilotArduPilot, vs.Autopilot)
	assert.Equal(t, state.VehicleQuadrotor, vs.VehicleType)

	// First heartbeat triggers a one-shot HOME_POSITION request.
	req := expect(t, ap, 2*time.Second, func(m *mav.CommandLong) bool {
		return m.Command == mav.CmdRequestMessage
	})
	assert.InDelta(t, 242, float64(req.Param1), 0.1)

	// The session emits GCS heartbeats.
	hb := expect(t, ap, 2*time.Second, any_[*mav.Heartbeat])
	assert.Equal(t, mav.TypeGCS, hb.Type)
}

func TestConnectTimesOutWithoutHeartbeat(t *testing.T) {
	ep := newLoopEndpoint()
	cfg := testConfig()
	cfg.ConnectTimeout = 300 * time.Millisecond

	_, err := ConnectEndpoint(context.Background(), ep, cfg)
	assert.ErrorIs(t, err, ErrNoHeartbeat)
}

func TestUploadRoundtrip(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	p := bostonPlan()
	var uploaded []*mav.MissionItemInt
	done := make(chan struct{})
	go func() {
		defer close(done)
		uploaded = serveUpload(t, ap, plan.KindMission)
	}()

	require.NoError(t, v.Upload(context.Background(), p))
	<-done
	require.Len(t, uploaded, 3) // home + 2 waypoints

	// Serve the same items back and compare, home stripped on both sides.
	go serveDownload(t, ap, plan.KindMission, uploaded)
	downloaded, err := v.Download(context.Background(), plan.KindMission)
	require.NoError(t, err)

	assert.True(t, plan.Equivalent(plan.StripHome(p), plan.StripHome(downloaded)),
		"downloaded plan differs: %+v", downloaded)
	require.NotNil(t, downloaded.Home)
	assert.InDelta(t, p.Home.Lat, downloaded.Home.Lat, 1e-7)
}

func TestUploadInvalidPlanFailsFast(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	p := bostonPlan()
	p.Items[1].Seq = 5 // sequence gap

	err := v.Upload(context.Background(), p)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Issues)
}

func TestUploadLegacyRequestFallback(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	p := plan.Plan{
		Kind:  plan.KindMission,
		Items: []plan.Item{{Seq: 0, Command: 16, Frame: plan.FrameGlobalRelativeAltInt, Current: true, Autocontinue: true, X: 423898000, Y: -711476000, Z: 25}},
	}

	go func() {
		count := expect(t, ap, 2*time.Second, any_[*mav.MissionCount])
		for seq := uint16(0); seq < count.Count; seq++ {
			// Legacy MISSION_REQUEST instead of MISSION_REQUEST_INT.
			ap.push(&mav.MissionRequest{Seq: seq, TargetSystem: 255, TargetComp: 190, MissionType: uint8(plan.KindMission)})
			expect(t, ap, 2*time.Second, func(m *mav.MissionItemInt) bool { return m.Seq == seq })
		}
		ap.push(&mav.MissionAck{Result: mav.MissionAccepted, MissionType: uint8(plan.KindMission)})
	}()

	assert.NoError(t, v.Upload(context.Background(), p))
}

func TestUploadBusyExclusion(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	p := bostonPlan()
	firstDone := make(chan error, 1)
	go func() { firstDone <- v.Upload(context.Background(), p) }()

	// Wait for the first transfer to reach the wire.
	expect(t, ap, 2*time.Second, any_[*mav.MissionCount])

	err := v.Upload(context.Background(), p)
	assert.ErrorIs(t, err, ErrBusy)

	// The in-flight transfer is unperturbed and still completes.
	for seq := uint16(0); seq < 3; seq++ {
		ap.push(&mav.MissionRequestInt{Seq: seq, TargetSystem: 255, TargetComp: 190, MissionType: uint8(plan.KindMission)})
		expect(t, ap, 2*time.Second, func(m *mav.MissionItemInt) bool { return m.Seq == seq })
	}
	ap.push(&mav.MissionAck{Result: mav.MissionAccepted, MissionType: uint8(plan.KindMission)})
	assert.NoError(t, <-firstDone)
}

func TestUploadTimesOutAgainstMutePeer(t *testing.T) {
	v, ap := connect(t)
	// Heartbeats keep flowing; the peer just ignores the mission protocol.
	defer ap.mute()

	err := v.Upload(context.Background(), bostonPlan())
	assert.ErrorIs(t, err, ErrTimeout)

	// The machine resets to idle: a served retry succeeds afterwards.
	ap.drain()
	go serveUpload(t, ap, plan.KindMission)
	assert.NoError(t, v.Upload(context.Background(), bostonPlan()))
}

func TestDownloadEmptyPlan(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	go func() {
		expect(t, ap, 2*time.Second, any_[*mav.MissionRequestList])
		ap.push(&mav.MissionCount{Count: 0, MissionType: uint8(plan.KindRally)})
	}()

	p, err := v.Download(context.Background(), plan.KindRally)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Nil(t, p.Home)
}

func TestCancelMidDownload(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := v.Download(ctx, plan.KindMission)
		result <- err
	}()

	expect(t, ap, 2*time.Second, any_[*mav.MissionRequestList])
	ap.push(&mav.MissionCount{Count: 5, MissionType: uint8(plan.KindMission)})

	for seq := uint16(0); seq < 2; seq++ {
		expect(t, ap, 2*time.Second, func(m *mav.MissionRequestInt) bool { return m.Seq == seq })
		ap.push(&mav.MissionItemInt{Seq: seq, Command: 16, Frame: mav.FrameGlobalRelativeAltInt, X: 423898000, Y: -711476000, Z: 25, MissionType: uint8(plan.KindMission)})
	}
	// Third request is in flight; cancel now.
	expect(t, ap, 2*time.Second, func(m *mav.MissionRequestInt) bool { return m.Seq == 2 })
	cancel()

	err := <-result
	assert.ErrorIs(t, err, ErrCancelled)

	progress := v.TransferProgress().Get()
	assert.Equal(t, transfer.Cancelled, progress.Phase)
	assert.Equal(t, uint16(2), progress.Completed)
}

func TestLinkLossFailsOperations(t *testing.T) {
	v, ap := connect(t)

	ctx := context.Background()
	sub := v.LinkState().Subscribe(ctx)
	require.Equal(t, state.LinkConnected, (<-sub).Status)

	ap.mute()

	// Scenario: peer muted; the link error must surface on subscribers.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ls := <-sub:
			if ls.Status == state.LinkError {
				assert.Equal(t, "timeout", ls.Reason)
				goto lost
			}
		case <-deadline:
			t.Fatal("link error never published")
		}
	}
lost:
	err := v.Upload(context.Background(), bostonPlan())
	assert.ErrorIs(t, err, ErrLinkLost)
}

func TestSetCurrentViaMissionCurrentBroadcast(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	// Upload a 3-item mission first so the total is known.
	go serveUpload(t, ap, plan.KindMission)
	p := bostonPlan()
	p.Items = append(p.Items, plan.Item{Seq: 2, Command: 16, Frame: plan.FrameGlobalRelativeAltInt, Autocontinue: true, X: 423905000, Y: -711465000, Z: 35})
	require.NoError(t, v.Upload(context.Background(), p))

	sub := v.MissionState().Subscribe(context.Background())
	<-sub // snapshot

	go func() {
		cmd := expect(t, ap, 2*time.Second, func(m *mav.CommandLong) bool {
			return m.Command == mav.CmdDoSetMissionCurrent
		})
		// Answer with the broadcast, not a COMMAND_ACK.
		ap.push(&mav.MissionCurrent{Seq: uint16(cmd.Param1), Total: 4})
	}()

	require.NoError(t, v.SetCurrent(context.Background(), 2))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ms := <-sub:
			if ms.CurrentSeq == 2 {
				return
			}
		case <-deadline:
			t.Fatal("MissionState.current_seq never reached 2")
		}
	}
}

func TestSetCurrentOutOfRange(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	go serveUpload(t, ap, plan.KindMission)
	require.NoError(t, v.Upload(context.Background(), bostonPlan()))
	// Let the completed-transfer total propagate via a MISSION_CURRENT.
	ap.push(&mav.MissionCurrent{Seq: 0, Total: 3})

	require.Eventually(t, func() bool {
		return v.MissionState().Get().TotalItems == 3
	}, 2*time.Second, 10*time.Millisecond)

	err := v.SetCurrent(context.Background(), 9)
	assert.ErrorIs(t, err, ErrSeqOutOfRange)
}

func TestArmCommandAck(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	go func() {
		cmd := expect(t, ap, 2*time.Second, func(m *mav.CommandLong) bool {
			return m.Command == mav.CmdComponentArmDisarm
		})
		assert.InDelta(t, 1, float64(cmd.Param1), 0.01)
		assert.InDelta(t, 0, float64(cmd.Param2), 0.01)
		ap.push(&mav.CommandAck{Command: mav.CmdComponentArmDisarm, Result: mav.ResultAccepted})
	}()

	assert.NoError(t, v.Arm(context.Background(), false))
}

func TestForceArmCarriesMagicValue(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	go func() {
		cmd := expect(t, ap, 2*time.Second, func(m *mav.CommandLong) bool {
			return m.Command == mav.CmdComponentArmDisarm
		})
		assert.InDelta(t, 2989, float64(cmd.Param2), 0.01)
		ap.push(&mav.CommandAck{Command: mav.CmdComponentArmDisarm, Result: mav.ResultAccepted})
	}()

	assert.NoError(t, v.Arm(context.Background(), true))
}

func TestCommandRejected(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	go func() {
		expect(t, ap, 2*time.Second, func(m *mav.CommandLong) bool {
			return m.Command == mav.CmdNavTakeoff
		})
		ap.push(&mav.CommandAck{Command: mav.CmdNavTakeoff, Result: mav.ResultDenied})
	}()

	err := v.Takeoff(context.Background(), 20)
	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, mav.ResultDenied, cerr.Result)
}

func TestSetModeConfirmedByHeartbeat(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	go func() {
		expect(t, ap, 2*time.Second, func(m *mav.CommandLong) bool {
			return m.Command == mav.CmdDoSetMode
		})
		// No COMMAND_ACK; the mode change shows up in the heartbeat.
		hb := ap.heartbeat()
		hb.CustomMode = 6 // RTL
		ap.push(hb)
	}()

	assert.NoError(t, v.SetMode(context.Background(), 6))
}

func TestSetModeByNameUnknownMode(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	err := v.SetModeByName(context.Background(), "WARP")
	assert.ErrorIs(t, err, ErrModeNotAvailable)
}

func TestGuidedGotoSendsSetpoint(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	require.NoError(t, v.GuidedGoto(context.Background(), 42.3898, -71.1476, 50))

	sp := expect(t, ap, 2*time.Second, any_[*mav.SetPositionTargetGlobalInt])
	assert.Equal(t, int32(423898000), sp.LatInt)
	assert.Equal(t, int32(-711476000), sp.LonInt)
	assert.InDelta(t, 50, float64(sp.Alt), 0.01)
	assert.Equal(t, mav.FrameGlobalRelativeAlt, sp.CoordinateFrame)
}

func TestTelemetryDispatch(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	ap.push(&mav.GlobalPositionInt{Lat: 423898000, Lon: -711476000, Alt: 48000, RelativeAlt: 25000, Hdg: 9000})
	ap.push(&mav.VfrHud{Airspeed: 12, Groundspeed: 11, Climb: 1.5, Heading: 90, Throttle: 40})
	ap.push(&mav.GpsRawInt{FixType: 3, SatellitesVisible: 12, Eph: 121})
	ap.push(&mav.HomePosition{Latitude: 423898000, Longitude: -711476000, Altitude: 14000})

	require.Eventually(t, func() bool {
		tel := v.Telemetry().Get()
		return tel.LatDeg != nil && tel.AirspeedMps != nil && tel.Gps != nil
	}, 2*time.Second, 10*time.Millisecond)

	tel := v.Telemetry().Get()
	assert.InDelta(t, 42.3898, *tel.LatDeg, 1e-6)
	assert.InDelta(t, 25, *tel.RelativeAltM, 1e-6)
	assert.InDelta(t, 12, *tel.AirspeedMps, 1e-6)
	assert.Equal(t, state.GpsFix3D, tel.Gps.FixType)
	assert.Equal(t, 12, tel.Gps.Satellites)

	require.Eventually(t, func() bool {
		return v.HomePosition().Get() != nil
	}, 2*time.Second, 10*time.Millisecond)
	home := v.HomePosition().Get()
	assert.InDelta(t, 42.3898, home.Lat, 1e-6)
	assert.InDelta(t, 14, float64(home.Alt), 0.01)
}

func TestCloseTransitionsToDisconnected(t *testing.T) {
	ep := newLoopEndpoint()
	ap := newAutopilot(t, ep)
	ap.pumpHeartbeats(100 * time.Millisecond)
	defer ap.mute()

	v, err := ConnectEndpoint(context.Background(), ep, testConfig())
	require.NoError(t, err)

	require.NoError(t, v.Close())
	assert.Equal(t, state.LinkDisconnected, v.LinkState().Get().Status)

	// Operations after close fail fast.
	err = v.Upload(context.Background(), bostonPlan())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestTransportFailureIsFatal(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	sub := v.LinkState().Subscribe(context.Background())
	require.Equal(t, state.LinkConnected, (<-sub).Status)

	// Kill the transport out from under the session.
	require.NoError(t, v.s.ep.Close())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ls, ok := <-sub:
			if !ok {
				t.Fatal("subscription closed before error was published")
			}
			if ls.Status == state.LinkError {
				assert.Equal(t, "transport closed", ls.Reason)
				return
			}
		case <-deadline:
			t.Fatal("link error never published")
		}
	}
}

func TestVerifyRoundtrip(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	// Echo peer: store the upload, serve it back on download.
	go func() {
		items := serveUpload(t, ap, plan.KindMission)
		serveDownload(t, ap, plan.KindMission, items)
	}()

	ok, err := v.VerifyRoundtrip(context.Background(), bostonPlan())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClearFence(t *testing.T) {
	v, ap := connect(t)
	defer ap.mute()

	go func() {
		expect(t, ap, 2*time.Second, func(m *mav.MissionClearAll) bool {
			return m.MissionType == uint8(plan.KindFence)
		})
		ap.push(&mav.MissionAck{Result: mav.MissionAccepted, MissionType: uint8(plan.KindFence)})
	}()

	assert.NoError(t, v.Clear(context.Background(), plan.KindFence))
}

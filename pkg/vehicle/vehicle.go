// Package vehicle implements the ground-station session to a single
// MAVLink vehicle: one I/O actor owning the transport, reactive state
// channels for everything the vehicle reports, and the command and
// mission-transfer operations a ground station performs.
package vehicle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gcslink/pkg/mav"
	"gcslink/pkg/modes"
	"gcslink/pkg/plan"
	"gcslink/pkg/state"
	"gcslink/pkg/transfer"
	"gcslink/pkg/transport"
)

// ArduPilot magic values for forced arm/disarm (bypass pre-arm checks).
const (
	magicForceArm    float32 = 2989
	magicForceDisarm float32 = 21196
)

// Vehicle is a shareable handle to one vehicle session. All methods are
// safe for concurrent use; operations funnel through the session actor.
type Vehicle struct {
	s *session
}

// Connect dials the endpoint spec (see transport.Dial), starts the
// session, and waits for the first heartbeat. On heartbeat timeout the
// session is torn down and ErrNoHeartbeat returned.
func Connect(ctx context.Context, endpointSpec string) (*Vehicle, error) {
	return ConnectWithConfig(ctx, endpointSpec, DefaultConfig())
}

// ConnectWithConfig is Connect with custom session tuning.
func ConnectWithConfig(ctx context.Context, endpointSpec string, cfg Config) (*Vehicle, error) {
	ep, err := transport.Dial(endpointSpec)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return ConnectEndpoint(ctx, ep, cfg)
}

// ConnectEndpoint runs a session over an already-open endpoint. The
// session takes ownership of the endpoint.
func ConnectEndpoint(ctx context.Context, ep transport.Endpoint, cfg Config) (*Vehicle, error) {
	s := newSession(ep, cfg)
	go s.run()
	v := &Vehicle{s: s}

	slog.Info("connecting", "endpoint", ep.String(), "timeout", cfg.ConnectTimeout)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	sub := s.vehicleState.Subscribe(waitCtx)
	for {
		select {
		case vs, ok := <-sub:
			if !ok {
				v.Close()
				if ctx.Err() != nil {
					return nil, ErrCancelled
				}
				return nil, ErrNoHeartbeat
			}
			if vs.Seen {
				return v, nil
			}
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				v.Close()
				return nil, ErrCancelled
			}
			s.linkState.Set(state.LinkState{Status: state.LinkError, Reason: "no heartbeat"})
			v.Close()
			return nil, ErrNoHeartbeat
		}
	}
}

// Close shuts the session down and closes the transport. Idempotent.
func (v *Vehicle) Close() error {
	select {
	case <-v.s.closing:
	default:
		close(v.s.closing)
	}
	<-v.s.done
	return nil
}

// --- Reactive state subscriptions ---

// LinkState returns the link status channel.
func (v *Vehicle) LinkState() *state.Watch[state.LinkState] { return v.s.linkState }

// State returns the vehicle state channel (armed, mode, type).
func (v *Vehicle) State() *state.Watch[state.VehicleState] { return v.s.vehicleState }

// Telemetry returns the merged telemetry channel.
func (v *Vehicle) Telemetry() *state.Watch[state.Telemetry] { return v.s.telemetry }

// HomePosition returns the home-position channel (nil until reported).
func (v *Vehicle) HomePosition() *state.Watch[*plan.HomePosition] { return v.s.homePos }

// MissionState returns the mission-execution channel.
func (v *Vehicle) MissionState() *state.Watch[state.MissionState] { return v.s.missionState }

// TransferProgress returns the transfer-progress channel.
func (v *Vehicle) TransferProgress() *state.Watch[transfer.Progress] { return v.s.progress }

// --- Mission transfers ---

// Upload validates the plan, translates it to wire form, and runs the
// upload exchange. Fails with ErrBusy while another transfer is active.
func (v *Vehicle) Upload(ctx context.Context, p plan.Plan) error {
	if issues := plan.Validate(p); plan.HasErrors(issues) {
		return &ValidationError{Issues: issues}
	}
	reply := make(chan xferResult, 1)
	if err := v.enqueue(ctx, cmdUpload{kind: p.Kind, wire: plan.ToWire(p), reply: reply}); err != nil {
		return err
	}
	res, err := v.awaitTransfer(ctx, reply)
	if err != nil {
		return err
	}
	return res.err
}

// Download runs the download exchange and returns the semantic plan. An
// empty plan on the vehicle yields a plan with zero items, not an error.
func (v *Vehicle) Download(ctx context.Context, kind plan.Kind) (plan.Plan, error) {
	reply := make(chan xferResult, 1)
	if err := v.enqueue(ctx, cmdDownload{kind: kind, reply: reply}); err != nil {
		return plan.Plan{}, err
	}
	res, err := v.awaitTransfer(ctx, reply)
	if err != nil {
		return plan.Plan{}, err
	}
	if res.err != nil {
		return plan.Plan{}, res.err
	}
	return plan.FromWire(kind, res.items), nil
}

// Clear removes all items of the given kind from the vehicle.
func (v *Vehicle) Clear(ctx context.Context, kind plan.Kind) error {
	reply := make(chan xferResult, 1)
	if err := v.enqueue(ctx, cmdClear{kind: kind, reply: reply}); err != nil {
		return err
	}
	res, err := v.awaitTransfer(ctx, reply)
	if err != nil {
		return err
	}
	return res.err
}

// VerifyRoundtrip uploads the plan, downloads the same kind, and reports
// whether the two match. Home is stripped from both sides because the
// autopilot may overwrite it with its own estimate.
func (v *Vehicle) VerifyRoundtrip(ctx context.Context, p plan.Plan) (bool, error) {
	if err := v.Upload(ctx, p); err != nil {
		return false, err
	}
	readback, err := v.Download(ctx, p.Kind)
	if err != nil {
		return false, err
	}
	return plan.Equivalent(plan.StripHome(p), plan.StripHome(readback)), nil
}

// CancelTransfer aborts the active transfer, if any.
func (v *Vehicle) CancelTransfer() {
	select {
	case v.s.mailbox <- cmdCancelTransfer{}:
	case <-v.s.closing:
	}
}

// SetCurrent jumps mission execution to the given sequence index.
func (v *Vehicle) SetCurrent(ctx context.Context, seq uint16) error {
	if ms := v.s.missionState.Get(); ms.TotalItems > 0 && seq >= ms.TotalItems {
		return ErrSeqOutOfRange
	}
	reply := make(chan error, 1)
	if err := v.enqueue(ctx, cmdSetCurrent{seq: seq, reply: reply}); err != nil {
		return err
	}
	return v.awaitReply(ctx, reply)
}

// --- Vehicle commands ---

// Arm requests motor arming. Force bypasses pre-arm checks.
func (v *Vehicle) Arm(ctx context.Context, force bool) error {
	params := [7]float32{1, 0}
	if force {
		params[1] = magicForceArm
	}
	return v.CommandLong(ctx, mav.CmdComponentArmDisarm, params)
}

// Disarm requests motor disarming. Force bypasses the landed check.
func (v *Vehicle) Disarm(ctx context.Context, force bool) error {
	params := [7]float32{0, 0}
	if force {
		params[1] = magicForceDisarm
	}
	return v.CommandLong(ctx, mav.CmdComponentArmDisarm, params)
}

// SetMode switches to the given custom mode. Success is the accepted ack
// or an observed mode change within the command timeout.
func (v *Vehicle) SetMode(ctx context.Context, customMode uint32) error {
	reply := make(chan error, 1)
	if err := v.enqueue(ctx, cmdSetMode{customMode: customMode, reply: reply}); err != nil {
		return err
	}
	return v.awaitReply(ctx, reply)
}

// SetModeByName resolves a mode name against the vehicle's mode table.
func (v *Vehicle) SetModeByName(ctx context.Context, name string) error {
	vs := v.s.vehicleState.Get()
	customMode, ok := modes.Number(vs.Autopilot, vs.VehicleType, name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModeNotAvailable, name)
	}
	return v.SetMode(ctx, customMode)
}

// Takeoff commands a takeoff to the given relative altitude.
func (v *Vehicle) Takeoff(ctx context.Context, altitudeM float32) error {
	return v.CommandLong(ctx, mav.CmdNavTakeoff, [7]float32{0, 0, 0, 0, 0, 0, altitudeM})
}

// GuidedGoto repositions the vehicle in guided mode. The setpoint is
// fire-and-forget; progress shows up in telemetry.
func (v *Vehicle) GuidedGoto(ctx context.Context, latDeg, lonDeg float64, altM float32) error {
	reply := make(chan error, 1)
	cmd := cmdGoto{
		latE7: int32(latDeg * 1e7),
		lonE7: int32(lonDeg * 1e7),
		altM:  altM,
		reply: reply,
	}
	if err := v.enqueue(ctx, cmd); err != nil {
		return err
	}
	return v.awaitReply(ctx, reply)
}

// CommandLong sends an arbitrary COMMAND_LONG and waits for its ack.
func (v *Vehicle) CommandLong(ctx context.Context, command uint16, params [7]float32) error {
	reply := make(chan error, 1)
	if err := v.enqueue(ctx, cmdCommandLong{command: command, params: params, reply: reply}); err != nil {
		return err
	}
	return v.awaitReply(ctx, reply)
}

// AvailableModes lists the modes selectable on the connected vehicle.
func (v *Vehicle) AvailableModes() []modes.FlightMode {
	vs := v.s.vehicleState.Get()
	return modes.Available(vs.Autopilot, vs.VehicleType)
}

// --- internal plumbing ---

func (v *Vehicle) enqueue(ctx context.Context, cmd any) error {
	select {
	case v.s.mailbox <- cmd:
		return nil
	case <-v.s.closing:
		return ErrNotConnected
	case <-v.s.done:
		return ErrNotConnected
	case <-ctx.Done():
		return ErrCancelled
	}
}

func (v *Vehicle) awaitReply(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-v.s.done:
		return ErrNotConnected
	case <-ctx.Done():
		return ErrCancelled
	}
}

// awaitTransfer waits for a transfer reply. Caller cancellation is
// cooperative: the cancel is forwarded to the actor and the machine's
// terminal reply is still consumed.
func (v *Vehicle) awaitTransfer(ctx context.Context, reply chan xferResult) (xferResult, error) {
	select {
	case res := <-reply:
		return res, nil
	case <-v.s.done:
		return xferResult{}, ErrNotConnected
	case <-ctx.Done():
		v.CancelTransfer()
		select {
		case res := <-reply:
			return res, nil
		case <-v.s.done:
			return xferResult{}, ErrNotConnected
		case <-time.After(time.Second):
			return xferResult{}, ErrCancelled
		}
	}
}

func modeName(autopilot state.Autopilot, vtype state.VehicleType, customMode uint32) string {
	return modes.Name(autopilot, vtype, customMode)
}

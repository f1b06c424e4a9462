// Package transfer implements the mission-protocol transfer state machine.
// The machine is pure: it consumes decoded inbound messages, timer
// expiries, and cancellation, and produces the outbound messages to
// transmit. The session owns the wall clock and the socket and drives it;
// tests drive it with a scripted peer and a virtual clock.
package transfer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"gcslink/pkg/mav"
	"gcslink/pkg/plan"
)

// Direction of a transfer.
type Direction int

const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// Phase of a transfer. Terminal phases are Completed, Failed, Cancelled.
type Phase int

const (
	Idle Phase = iota
	RequestCount
	TransferItems
	AwaitAck
	Completed
	Failed
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case RequestCount:
		return "request_count"
	case TransferItems:
		return "transfer_items"
	case AwaitAck:
		return "await_ack"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// RetryPolicy bounds retransmission. Item-level exchanges get the short
// deadline; count and ack exchanges get the long one.
type RetryPolicy struct {
	RequestTimeout time.Duration
	ItemTimeout    time.Duration
	MaxRetries     int
}

// DefaultRetryPolicy matches the mission-protocol recommendations.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RequestTimeout: 1500 * time.Millisecond,
		ItemTimeout:    250 * time.Millisecond,
		MaxRetries:     5,
	}
}

// Target identifies the remote autopilot component.
type Target struct {
	System    uint8
	Component uint8
}

// Progress is the externally visible transfer snapshot.
type Progress struct {
	ID          uuid.UUID
	Direction   Direction
	Kind        plan.Kind
	Phase       Phase
	Completed   uint16
	Total       uint16
	RetriesUsed int
	Error       string
}

// Error is a terminal transfer failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("mission transfer failed: [%s] %s", e.Code, e.Message)
}

type mode int

const (
	modeUpload mode = iota
	modeDownload
	modeClear
)

// Machine drives one upload, download, or clear exchange.
type Machine struct {
	id     uuid.UUID
	mode   mode
	kind   plan.Kind
	target Target
	policy RetryPolicy

	phase       Phase
	retries     int // consecutive, reset on progress
	retriesUsed int // every retransmission of the transfer
	failure     *Error

	// Upload state.
	wireItems []plan.Item
	sent      map[uint16]bool

	// Download state.
	total    uint16
	gotCount bool
	next     uint16
	received []plan.Item

	completed uint16
	lastOut   mav.Message
}

// NewUpload prepares an upload of already-translated wire items.
func NewUpload(kind plan.Kind, wireItems []plan.Item, target Target, policy RetryPolicy) *Machine {
	return &Machine{
		id:        uuid.New(),
		mode:      modeUpload,
		kind:      kind,
		target:    target,
		policy:    policy,
		phase:     Idle,
		wireItems: wireItems,
		sent:      make(map[uint16]bool),
		total:     uint16(len(wireItems)),
	}
}

// NewDownload prepares a download of the given plan kind.
func NewDownload(kind plan.Kind, target Target, policy RetryPolicy) *Machine {
	return &Machine{
		id:     uuid.New(),
		mode:   modeDownload,
		kind:   kind,
		target: target,
		policy: policy,
		phase:  Idle,
	}
}

// NewClear prepares a clear-all exchange for the given plan kind.
func NewClear(kind plan.Kind, target Target, policy RetryPolicy) *Machine {
	return &Machine{
		id:     uuid.New(),
		mode:   modeClear,
		kind:   kind,
		target: target,
		policy: policy,
		phase:  Idle,
	}
}

// Start emits the opening message of the exchange.
func (m *Machine) Start() []mav.Message {
	switch m.mode {
	case modeUpload:
		m.phase = RequestCount
		if len(m.wireItems) == 0 {
			// Nothing to request; the peer acks the empty count directly.
			m.phase = AwaitAck
		}
		return m.emit(&mav.MissionCount{
			Count:        uint16(len(m.wireItems)),
			TargetSystem: m.target.System,
			TargetComp:   m.target.Component,
			MissionType:  uint8(m.kind),
		})
	case modeDownload:
		m.phase = RequestCount
		return m.emit(&mav.MissionRequestList{
			TargetSystem: m.target.System,
			TargetComp:   m.target.Component,
			MissionType:  uint8(m.kind),
		})
	default:
		m.phase = AwaitAck
		return m.emit(&mav.MissionClearAll{
			TargetSystem: m.target.System,
			TargetComp:   m.target.Component,
			MissionType:  uint8(m.kind),
		})
	}
}

// HandleMessage consumes one inbound message and returns any outbound
// messages it provokes. Messages for other mission types or unrelated
// message IDs are ignored.
func (m *Machine) HandleMessage(msg mav.Message) []mav.Message {
	if m.Done() || m.phase == Idle {
		return nil
	}

	switch t := msg.(type) {
	case *mav.MissionRequestInt:
		if t.MissionType != uint8(m.kind) {
			return nil
		}
		return m.handleItemRequest(t.Seq)
	case *mav.MissionRequest:
		// Legacy request form; the reply is MISSION_ITEM_INT regardless.
		if t.MissionType != uint8(m.kind) {
			return nil
		}
		return m.handleItemRequest(t.Seq)
	case *mav.MissionCount:
		if t.MissionType != uint8(m.kind) {
			return nil
		}
		return m.handleCount(t.Count)
	case *mav.MissionItemInt:
		if t.MissionType != uint8(m.kind) {
			return nil
		}
		return m.handleItem(plan.Item{
			Seq:          t.Seq,
			Command:      t.Command,
			Frame:        plan.Frame(t.Frame),
			Current:      t.Current > 0,
			Autocontinue: t.Autocontinue > 0,
			Param1:       t.Param1,
			Param2:       t.Param2,
			Param3:       t.Param3,
			Param4:       t.Param4,
			X:            t.X,
			Y:            t.Y,
			Z:            t.Z,
		}, t.Seq)
	case *mav.MissionItem:
		if t.MissionType != uint8(m.kind) {
			return nil
		}
		return m.handleItem(itemFromLegacy(t), t.Seq)
	case *mav.MissionAck:
		if t.MissionType != uint8(m.kind) {
			return nil
		}
		return m.handleAck(t.Result)
	default:
		return nil
	}
}

// HandleTimeout consumes one deadline expiry: retransmit the last
// outbound message, or fail once the retry budget is spent.
func (m *Machine) HandleTimeout() []mav.Message {
	if m.Done() || m.phase == Idle {
		return nil
	}
	m.retries++
	m.retriesUsed++
	if m.retries > m.policy.MaxRetries {
		m.fail("transfer.timeout", "transfer timed out after maximum retries")
		return nil
	}
	if m.lastOut == nil {
		return nil
	}
	return []mav.Message{m.lastOut}
}

// Cancel moves the machine to Cancelled unless it already terminated.
// No further outbound messages are produced.
func (m *Machine) Cancel() {
	if !m.Done() {
		m.phase = Cancelled
	}
}

// Deadline returns how long to wait for the next inbound message before
// calling HandleTimeout.
func (m *Machine) Deadline() time.Duration {
	if m.phase == TransferItems {
		return m.policy.ItemTimeout
	}
	return m.policy.RequestTimeout
}

// Done reports whether the machine reached a terminal phase.
func (m *Machine) Done() bool {
	return m.phase == Completed || m.phase == Failed || m.phase == Cancelled
}

// Err returns the terminal failure, if any.
func (m *Machine) Err() *Error {
	return m.failure
}

// Items returns the accumulated wire items after a completed download.
func (m *Machine) Items() []plan.Item {
	return m.received
}

// Progress returns the externally visible snapshot.
func (m *Machine) Progress() Progress {
	p := Progress{
		ID:          m.id,
		Direction:   Upload,
		Kind:        m.kind,
		Phase:       m.phase,
		Completed:   m.completed,
		Total:       m.total,
		RetriesUsed: m.retriesUsed,
	}
	if m.mode == modeDownload {
		p.Direction = Download
	}
	if m.failure != nil {
		p.Error = m.failure.Code
	}
	return p
}

func (m *Machine) emit(msg mav.Message) []mav.Message {
	m.lastOut = msg
	return []mav.Message{msg}
}

func (m *Machine) fail(code, message string) {
	m.phase = Failed
	m.failure = &Error{Code: code, Message: message}
}

// handleItemRequest answers a (possibly repeated) item request during
// upload. A repeat for an already-sent seq is re-answered without
// consuming retry budget.
func (m *Machine) handleItemRequest(seq uint16) []mav.Message {
	if m.mode != modeUpload {
		return nil
	}
	if int(seq) >= len(m.wireItems) {
		m.fail("transfer.item_out_of_range", fmt.Sprintf("requested item %d out of range", seq))
		return nil
	}

	if m.phase == RequestCount {
		m.phase = TransferItems
	}

	item := m.wireItems[seq]
	out := m.emit(&mav.MissionItemInt{
		Param1:       item.Param1,
		Param2:       item.Param2,
		Param3:       item.Param3,
		Param4:       item.Param4,
		X:            item.X,
		Y:            item.Y,
		Z:            item.Z,
		Seq:          item.Seq,
		Command:      item.Command,
		TargetSystem: m.target.System,
		TargetComp:   m.target.Component,
		Frame:        uint8(item.Frame),
		Autocontinue: boolByte(item.Autocontinue),
		MissionType:  uint8(m.kind),
	})

	if !m.sent[seq] {
		m.sent[seq] = true
		m.retries = 0
		if seq+1 > m.completed {
			m.completed = seq + 1
		}
		if len(m.sent) == len(m.wireItems) {
			m.phase = AwaitAck
		}
	}
	return out
}

func (m *Machine) handleCount(count uint16) []mav.Message {
	if m.mode != modeDownload || m.gotCount {
		return nil
	}
	m.gotCount = true
	m.total = count
	m.retries = 0

	if count == 0 {
		// Empty plan: acknowledge and finish with zero items.
		m.phase = Completed
		return m.emit(m.ackAccepted())
	}

	m.phase = TransferItems
	m.next = 0
	return m.emit(m.requestItem(0))
}

func (m *Machine) handleItem(item plan.Item, seq uint16) []mav.Message {
	if m.mode != modeDownload || m.phase != TransferItems {
		return nil
	}
	if seq != m.next {
		// Out-of-order or duplicate item: discard.
		return nil
	}

	m.received = append(m.received, item)
	m.completed++
	m.next = seq + 1
	m.retries = 0

	if m.next >= m.total {
		m.phase = Completed
		return m.emit(m.ackAccepted())
	}
	return m.emit(m.requestItem(m.next))
}

func (m *Machine) handleAck(result uint8) []mav.Message {
	if m.mode == modeDownload {
		// The vehicle does not ack a download; ignore.
		return nil
	}
	if result == mav.MissionAccepted {
		m.phase = Completed
		return nil
	}
	m.fail("transfer.ack_error", fmt.Sprintf("MISSION_ACK result %s", mav.MissionResultName(result)))
	return nil
}

func (m *Machine) requestItem(seq uint16) mav.Message {
	return &mav.MissionRequestInt{
		Seq:          seq,
		TargetSystem: m.target.System,
		TargetComp:   m.target.Component,
		MissionType:  uint8(m.kind),
	}
}

func (m *Machine) ackAccepted() mav.Message {
	return &mav.MissionAck{
		TargetSystem: m.target.System,
		TargetComp:   m.target.Component,
		Result:       mav.MissionAccepted,
		MissionType:  uint8(m.kind),
	}
}

// itemFromLegacy converts a float-coordinate MISSION_ITEM, scaling global
// frames to 1e7-degree integers.
func itemFromLegacy(t *mav.MissionItem) plan.Item {
	frame := plan.Frame(t.Frame)
	x, y := int32(t.X), int32(t.Y)
	if frame.IsGlobal() {
		x = int32(float64(t.X) * 1e7)
		y = int32(float64(t.Y) * 1e7)
	}
	return plan.Item{
		Seq:          t.Seq,
		Command:      t.Command,
		Frame:        frame,
		Current:      t.Current > 0,
		Autocontinue: t.Autocontinue > 0,
		Param1:       t.Param1,
		Param2:       t.Param2,
		Param3:       t.Param3,
		Param4:       t.Param4,
		X:            x,
		Y:            y,
		Z:            t.Z,
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

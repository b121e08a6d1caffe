package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/logging"
)

// Coordinator errors.
var (
	ErrNoPendingConflict = errors.New("no conflicting move awaiting confirmation")
)

// Rescheduler persists a move. Only date and start time change.
type Rescheduler interface {
	RescheduleAppointment(ctx context.Context, id string, date time.Time, start string) error
}

// RescheduleFunc adapts a function to Rescheduler.
type RescheduleFunc func(ctx context.Context, id string, date time.Time, start string) error

// RescheduleAppointment calls f.
func (f RescheduleFunc) RescheduleAppointment(ctx context.Context, id string, date time.Time, start string) error {
	return f(ctx, id, date, start)
}

// HoursPolicy is the part of the working-hours policy drops consult.
type HoursPolicy interface {
	IsWorkingHour(date time.Time, hour int) bool
}

// DragState is the coordinator's lifecycle state.
type DragState int

const (
	StateIdle DragState = iota
	StateDragging
	StateConflictPending
)

func (s DragState) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateConflictPending:
		return "conflict-pending"
	default:
		return "idle"
	}
}

// Outcome is what a drop or confirmation resolved to.
type Outcome int

const (
	// OutcomeIgnored covers malformed slot ids, unknown appointments and
	// drops that arrive while a conflict awaits confirmation.
	OutcomeIgnored Outcome = iota
	// OutcomeUnchanged is a drop on the appointment's own date and hour.
	OutcomeUnchanged
	// OutcomeOutsideHours is a drop on a closed hour.
	OutcomeOutsideHours
	// OutcomeBusy means a reschedule for the appointment is still in flight.
	OutcomeBusy
	// OutcomeConflict means the move waits for ConfirmConflict or CancelConflict.
	OutcomeConflict
	// OutcomeCommitted means the reschedule call succeeded.
	OutcomeCommitted
	// OutcomeFailed means the reschedule call returned an error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeOutsideHours:
		return "outside-hours"
	case OutcomeBusy:
		return "busy"
	case OutcomeConflict:
		return "conflict"
	case OutcomeCommitted:
		return "committed"
	case OutcomeFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// DragPayload is captured when a drag starts.
type DragPayload struct {
	AppointmentID string
	SourceDate    time.Time
	SourceTime    string
}

// Move is a proposed new position for an appointment.
type Move struct {
	Appointment *appointment.Appointment
	Date        time.Time
	Time        string // always on the hour
}

// DropResult reports how a drop or confirmation resolved.
type DropResult struct {
	Outcome  Outcome
	Move     *Move
	Conflict *Conflict
}

// CoordinatorConfig holds optional collaborators.
type CoordinatorConfig struct {
	// Guard defaults to a MemoryGuard.
	Guard Guard
	// Hours, when set, rejects drops on non-working hours.
	Hours  HoursPolicy
	Logger *slog.Logger
}

// Coordinator turns drag gestures into reschedule calls. It owns its
// state; each calendar has its own coordinator.
type Coordinator struct {
	mu          sync.Mutex
	rescheduler Rescheduler
	guard       Guard
	hours       HoursPolicy
	logger      *slog.Logger

	byID     map[string]*appointment.Appointment
	detector *Detector

	state   DragState
	payload *DragPayload
	hovered string
	pending *DropResult
}

// NewCoordinator creates an idle coordinator that persists moves through r.
func NewCoordinator(r Rescheduler, cfg CoordinatorConfig) *Coordinator {
	guard := cfg.Guard
	if guard == nil {
		guard = NewMemoryGuard()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Coordinator{
		rescheduler: r,
		guard:       guard,
		hours:       cfg.Hours,
		logger:      logger,
		byID:        make(map[string]*appointment.Appointment),
		detector:    NewDetector(nil),
	}
}

// SetAppointments replaces the snapshot used to resolve ids and detect
// conflicts.
func (c *Coordinator) SetAppointments(appts []*appointment.Appointment) {
	byID := make(map[string]*appointment.Appointment, len(appts))
	for _, a := range appts {
		if a != nil {
			byID[a.ID] = a
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = byID
	c.detector = NewDetector(appts)
}

// Lookup returns the appointment with id from the coordinator's snapshot.
func (c *Coordinator) Lookup(id string) (*appointment.Appointment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.byID[id]
	return a, ok
}

// State returns the current lifecycle state.
func (c *Coordinator) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Payload returns the active drag payload.
func (c *Coordinator) Payload() (DragPayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payload == nil {
		return DragPayload{}, false
	}
	return *c.payload, true
}

// Hovered returns the slot id last reported by OnDragOver.
func (c *Coordinator) Hovered() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// Pending returns the move awaiting confirmation.
func (c *Coordinator) Pending() (DropResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return DropResult{}, false
	}
	return *c.pending, true
}

// OnDragStart begins dragging the appointment with id. Unknown ids and
// starts while a conflict awaits confirmation are ignored.
func (c *Coordinator) OnDragStart(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateConflictPending {
		return false
	}
	a, ok := c.byID[id]
	if !ok {
		return false
	}
	c.state = StateDragging
	c.payload = &DragPayload{AppointmentID: a.ID, SourceDate: a.Date, SourceTime: a.Time}
	c.hovered = ""
	c.logger.Debug("drag_start",
		"appointment_id", a.ID,
		"date", dateutil.FormatDate(a.Date),
		"time", a.Time,
	)
	return true
}

// OnDragOver records the hovered slot. It never mutates appointments.
func (c *Coordinator) OnDragOver(slotID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDragging {
		c.hovered = slotID
	}
}

// CancelDrag abandons an in-progress drag.
func (c *Coordinator) CancelDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDragging {
		c.resetLocked()
	}
}

// OnDragEnd resolves a drop of appointment id onto slotID. The new start
// snaps to the top of the slot's hour and the duration is preserved. A
// conflict moves the coordinator to StateConflictPending; otherwise the
// move is committed and any reschedule error is returned.
func (c *Coordinator) OnDragEnd(ctx context.Context, id, slotID string) (DropResult, error) {
	c.mu.Lock()
	if c.state == StateConflictPending {
		c.mu.Unlock()
		return DropResult{Outcome: OutcomeIgnored}, nil
	}
	c.resetLocked()

	key, ok := ParseSlotID(slotID)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("drag_end_ignored", "appointment_id", id, "slot_id", slotID, "reason", "bad_slot")
		return DropResult{Outcome: OutcomeIgnored}, nil
	}
	a, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("drag_end_ignored", "appointment_id", id, "slot_id", slotID, "reason", "unknown_appointment")
		return DropResult{Outcome: OutcomeIgnored}, nil
	}

	move := &Move{Appointment: a, Date: key.Date(), Time: appointment.HourClock(key.Hour)}
	if dateutil.SameDay(a.Date, move.Date) && a.StartHour() == key.Hour {
		c.mu.Unlock()
		return DropResult{Outcome: OutcomeUnchanged, Move: move}, nil
	}
	if c.hours != nil && !c.hours.IsWorkingHour(move.Date, key.Hour) {
		c.mu.Unlock()
		c.logger.Debug("drag_end_outside_hours", "appointment_id", id, "slot_id", slotID)
		return DropResult{Outcome: OutcomeOutsideHours, Move: move}, nil
	}

	if conflict := c.detector.CheckConflict(move.Date, move.Time, a.Duration, a.ID); conflict != nil {
		c.state = StateConflictPending
		c.pending = &DropResult{Outcome: OutcomeConflict, Move: move, Conflict: conflict}
		c.mu.Unlock()
		c.logger.Info("conflict_pending",
			"appointment_id", a.ID,
			"conflict_id", conflict.Appointment.ID,
			"overlap_minutes", conflict.OverlapMinutes,
		)
		return DropResult{Outcome: OutcomeConflict, Move: move, Conflict: conflict}, nil
	}
	c.mu.Unlock()

	outcome, err := c.commit(ctx, move)
	return DropResult{Outcome: outcome, Move: move}, err
}

// ConfirmConflict commits the pending move despite its conflict.
func (c *Coordinator) ConfirmConflict(ctx context.Context) (DropResult, error) {
	c.mu.Lock()
	if c.state != StateConflictPending || c.pending == nil {
		c.mu.Unlock()
		return DropResult{}, ErrNoPendingConflict
	}
	res := *c.pending
	c.resetLocked()
	c.mu.Unlock()

	outcome, err := c.commit(ctx, res.Move)
	res.Outcome = outcome
	return res, err
}

// CancelConflict discards the pending move. It reports whether one existed.
func (c *Coordinator) CancelConflict() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConflictPending {
		return false
	}
	c.logger.Debug("conflict_cancelled", "appointment_id", c.pending.Move.Appointment.ID)
	c.resetLocked()
	return true
}

func (c *Coordinator) commit(ctx context.Context, m *Move) (Outcome, error) {
	id := m.Appointment.ID
	release, err := c.guard.Acquire(ctx, id)
	if errors.Is(err, ErrInFlight) {
		c.logger.Info("reschedule_in_flight", "appointment_id", id)
		return OutcomeBusy, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("acquiring reschedule guard: %w", err)
	}
	defer release()

	date := dateutil.FormatDate(m.Date)
	if err := c.rescheduler.RescheduleAppointment(ctx, id, m.Date, m.Time); err != nil {
		c.logger.Error("reschedule_failed", "appointment_id", id, "date", date, "time", m.Time, "error", err)
		return OutcomeFailed, fmt.Errorf("rescheduling appointment %s: %w", id, err)
	}
	c.logger.Info("reschedule_committed", "appointment_id", id, "date", date, "time", m.Time)
	return OutcomeCommitted, nil
}

func (c *Coordinator) resetLocked() {
	c.state = StateIdle
	c.payload = nil
	c.hovered = ""
	c.pending = nil
}

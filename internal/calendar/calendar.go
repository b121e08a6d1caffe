package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/logging"
	"github.com/javiermolinar/clinica/internal/scheduler"
)

// Store is what a Calendar needs from the appointment repository.
type Store interface {
	Rescheduler
	ListAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*appointment.Appointment, error)
}

// Config wires a Calendar.
type Config struct {
	Hours     *scheduler.WorkingHours
	Navigator NavigatorOptions
	Guard     Guard
	// EnforceWorkingHours makes the coordinator reject drops on closed hours.
	EnforceWorkingHours bool
	Logger              *slog.Logger
}

// Calendar is the state object behind one calendar screen: the navigator,
// the drag coordinator and the indexed appointment snapshot they share.
type Calendar struct {
	store  Store
	hours  *scheduler.WorkingHours
	nav    *Navigator
	coord  *Coordinator
	logger *slog.Logger

	mu     sync.RWMutex
	appts  []*appointment.Appointment
	index  *SlotIndex
	loaded VisibleRange
}

// New creates a Calendar reading from and writing to store.
func New(store Store, cfg Config) *Calendar {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	hours := cfg.Hours
	if hours == nil {
		hours = scheduler.New(nil)
	}

	navOpts := cfg.Navigator
	if navOpts.Logger == nil {
		navOpts.Logger = logger
	}
	coordCfg := CoordinatorConfig{Guard: cfg.Guard, Logger: logger}
	if cfg.EnforceWorkingHours {
		coordCfg.Hours = hours
	}

	return &Calendar{
		store:  store,
		hours:  hours,
		nav:    NewNavigator(navOpts),
		coord:  NewCoordinator(store, coordCfg),
		logger: logger,
		index:  BuildIndex(nil),
	}
}

// Navigator returns the calendar's navigator.
func (c *Calendar) Navigator() *Navigator { return c.nav }

// Coordinator returns the calendar's drag coordinator.
func (c *Calendar) Coordinator() *Coordinator { return c.coord }

// Hours returns the working-hours policy.
func (c *Calendar) Hours() *scheduler.WorkingHours { return c.hours }

// Refresh fetches the navigator's visible range and rebuilds the index.
func (c *Calendar) Refresh(ctx context.Context) error {
	return c.RefreshRange(ctx, c.nav.VisibleRange())
}

// RefreshRange fetches r and rebuilds the index.
func (c *Calendar) RefreshRange(ctx context.Context, r VisibleRange) error {
	appts, err := c.store.ListAppointmentsByDateRange(ctx, r.Start, r.End)
	if err != nil {
		return fmt.Errorf("loading appointments: %w", err)
	}
	c.Load(r, appts)
	return nil
}

// Load replaces the snapshot with appts for range r. An appointment being
// dragged stays known to the coordinator when it falls outside r.
func (c *Calendar) Load(r VisibleRange, appts []*appointment.Appointment) {
	idx := BuildIndex(appts)
	c.mu.Lock()
	c.appts = appts
	c.index = idx
	c.loaded = r
	c.mu.Unlock()

	c.coord.SetAppointments(c.withDragged(appts))
	c.logger.Debug("snapshot_loaded", "view", string(r.View), "appointments", len(appts), "active", idx.Len())
}

// Drop ends a drag of id on slotID. The target day is fetched from the
// store first so conflicts are checked against it even when it lies
// outside the loaded range.
func (c *Calendar) Drop(ctx context.Context, id, slotID string) (DropResult, error) {
	if key, ok := ParseSlotID(slotID); ok && c.coord.State() == StateDragging {
		day := key.Date()
		target, err := c.store.ListAppointmentsByDateRange(ctx, day, day)
		if err != nil {
			c.coord.CancelDrag()
			return DropResult{Outcome: OutcomeFailed}, fmt.Errorf("loading drop target day: %w", err)
		}
		c.coord.SetAppointments(c.withDragged(mergeDay(c.Appointments(), day, target)))
	}
	return c.coord.OnDragEnd(ctx, id, slotID)
}

// withDragged appends the dragged appointment to appts when it is missing.
func (c *Calendar) withDragged(appts []*appointment.Appointment) []*appointment.Appointment {
	p, ok := c.coord.Payload()
	if !ok {
		return appts
	}
	for _, a := range appts {
		if a != nil && a.ID == p.AppointmentID {
			return appts
		}
	}
	dragged, ok := c.coord.Lookup(p.AppointmentID)
	if !ok {
		return appts
	}
	return append(slices.Clone(appts), dragged)
}

// mergeDay replaces the appointments of day in snapshot with fresh.
func mergeDay(snapshot []*appointment.Appointment, day time.Time, fresh []*appointment.Appointment) []*appointment.Appointment {
	seen := make(map[string]bool, len(fresh))
	out := make([]*appointment.Appointment, 0, len(snapshot)+len(fresh))
	for _, a := range fresh {
		if a != nil {
			seen[a.ID] = true
			out = append(out, a)
		}
	}
	for _, a := range snapshot {
		if a == nil || seen[a.ID] || dateutil.SameDay(a.Date, day) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// LoadedRange returns the range of the current snapshot.
func (c *Calendar) LoadedRange() VisibleRange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Appointments returns a copy of the snapshot, cancelled included.
func (c *Calendar) Appointments() []*appointment.Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.appts)
}

// Appointment finds an appointment in the snapshot.
func (c *Calendar) Appointment(id string) (*appointment.Appointment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.appts {
		if a != nil && a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// AppointmentsAt returns the active appointments starting in the hour slot.
func (c *Calendar) AppointmentsAt(date time.Time, hour int) []*appointment.Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.AppointmentsAt(date, hour)
}

// CountForDay returns the number of active appointments on date.
func (c *Calendar) CountForDay(date time.Time) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.CountForDay(date)
}

// CheckConflict runs the conflict detector against the snapshot.
func (c *Calendar) CheckConflict(date time.Time, start string, duration int, excludeID string) *Conflict {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return NewDetector(c.appts).CheckConflict(date, start, duration, excludeID)
}

// Close stops the navigator.
func (c *Calendar) Close() {
	c.nav.Close()
}

package calendar

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/javiermolinar/clinica/internal/dateutil"
	"github.com/javiermolinar/clinica/internal/logging"
)

// View is the calendar layout being displayed.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
	ViewTeam  View = "team"
)

// Views lists every view in display order.
var Views = []View{ViewDay, ViewWeek, ViewMonth, ViewTeam}

var ErrUnknownView = errors.New("view must be one of day, week, month, team")

// ParseView resolves a case-insensitive view name.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v, nil
		}
	}
	return "", ErrUnknownView
}

// Direction is a navigation step.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// VisibleRange is the inclusive span of days a view shows around a date.
type VisibleRange struct {
	View  View
	Date  time.Time
	Start time.Time
	End   time.Time
}

// RangeFor computes the visible range of view anchored at date. Weeks run
// Monday to Sunday. Day and team views show a single day.
func RangeFor(view View, date time.Time) VisibleRange {
	date = dateutil.TruncateToDay(date)
	r := VisibleRange{View: view, Date: date, Start: date, End: date}
	switch view {
	case ViewWeek:
		r.Start, r.End = dateutil.WeekRange(date)
	case ViewMonth:
		r.Start, r.End = dateutil.MonthRange(date)
	}
	return r
}

// Days returns every day in the range.
func (r VisibleRange) Days() []time.Time {
	return dateutil.DateRange{Start: r.Start, End: r.End}.Days()
}

// Contains reports whether t falls inside the range.
func (r VisibleRange) Contains(t time.Time) bool {
	return dateutil.DateRange{Start: r.Start, End: r.End}.Contains(t)
}

// Step moves date one unit of view in dir. Months clamp to the target
// month's last day. The team view steps a single day.
func Step(view View, date time.Time, dir Direction) time.Time {
	switch view {
	case ViewWeek:
		return date.AddDate(0, 0, 7*int(dir))
	case ViewMonth:
		return dateutil.AddMonths(date, int(dir))
	default:
		return date.AddDate(0, 0, int(dir))
	}
}

// NavigatorOptions configures a Navigator.
type NavigatorOptions struct {
	Clock       Clock
	Debounce    time.Duration // clamped to [MinDebounce, MaxDebounce]
	MobileWidth int           // viewports narrower than this force the day view
	View        View          // initial view, week when empty
	Date        time.Time     // initial date, today when zero
	// ViewportWidth is the width known at construction, zero when unknown.
	// Below MobileWidth it overrides View with the day view.
	ViewportWidth int
	// OnSettle is called with the new visible range each time it changes.
	OnSettle func(VisibleRange)
	Logger   *slog.Logger
}

// Navigator owns the current view and date of one calendar. Date changes
// settle after a quiet period; the visible range only follows settled
// dates so rapid navigation triggers a single refetch.
type Navigator struct {
	mu          sync.Mutex
	clock       Clock
	debounce    *Debouncer
	view        View
	current     time.Time
	settled     time.Time
	mobileWidth int
	narrow      bool
	onSettle    func(VisibleRange)
	logger      *slog.Logger

	notifyMu sync.Mutex
	updates  chan VisibleRange
	closed   bool
}

// NewNavigator creates a Navigator. The initial date counts as settled.
func NewNavigator(opts NavigatorOptions) *Navigator {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	view := opts.View
	if _, err := ParseView(string(view)); err != nil {
		view = ViewWeek
	}
	date := opts.Date
	if date.IsZero() {
		date = clock.Now()
	}
	date = dateutil.TruncateToDay(date)
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	narrow := isNarrow(opts.ViewportWidth, opts.MobileWidth)
	if narrow {
		view = ViewDay
	}
	return &Navigator{
		clock:       clock,
		debounce:    NewDebouncer(clock, ClampDebounce(opts.Debounce)),
		view:        view,
		current:     date,
		settled:     date,
		mobileWidth: opts.MobileWidth,
		narrow:      narrow,
		onSettle:    opts.OnSettle,
		logger:      logger,
		updates:     make(chan VisibleRange, 1),
	}
}

// View returns the active view.
func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

// CurrentDate returns the latest requested date, settled or not.
func (n *Navigator) CurrentDate() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// SettledDate returns the date the visible range is computed from.
func (n *Navigator) SettledDate() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.settled
}

// VisibleRange returns the range for the active view and settled date.
func (n *Navigator) VisibleRange() VisibleRange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return RangeFor(n.view, n.settled)
}

// Updates delivers settled visible ranges. Only the latest undelivered
// range is kept. The channel is closed by Close.
func (n *Navigator) Updates() <-chan VisibleRange {
	return n.updates
}

// Navigate steps the current date one view unit backwards or forwards.
func (n *Navigator) Navigate(dir Direction) {
	n.mu.Lock()
	n.current = Step(n.view, n.current, dir)
	n.mu.Unlock()
	n.scheduleSettle()
}

// GoToToday moves the current date to today.
func (n *Navigator) GoToToday() {
	n.GoToDate(n.clock.Now())
}

// GoToDate moves the current date to date.
func (n *Navigator) GoToDate(date time.Time) {
	n.mu.Lock()
	n.current = dateutil.TruncateToDay(date)
	n.mu.Unlock()
	n.scheduleSettle()
}

// SetView switches the view. The range for the settled date is published
// immediately; view changes are not debounced.
func (n *Navigator) SetView(v View) {
	n.mu.Lock()
	if n.view == v {
		n.mu.Unlock()
		return
	}
	n.view = v
	r := RangeFor(n.view, n.settled)
	n.mu.Unlock()

	n.logger.Debug("view_changed", "view", string(v))
	n.publish(r)
}

// SetViewportWidth records the viewport width. Crossing below the mobile
// threshold switches to the day view; widening again leaves the view alone.
func (n *Navigator) SetViewportWidth(width int) {
	n.mu.Lock()
	narrow := isNarrow(width, n.mobileWidth)
	crossed := narrow && !n.narrow
	n.narrow = narrow
	n.mu.Unlock()

	if crossed {
		n.logger.Debug("mobile_viewport", "width", width)
		n.SetView(ViewDay)
	}
}

func isNarrow(width, mobileWidth int) bool {
	return mobileWidth > 0 && width > 0 && width < mobileWidth
}

// IsMobile reports whether the last viewport was below the threshold.
func (n *Navigator) IsMobile() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.narrow
}

// Pending reports whether a date change is waiting to settle.
func (n *Navigator) Pending() bool {
	return n.debounce.Pending()
}

// Close stops pending settles and closes the updates channel.
func (n *Navigator) Close() {
	n.debounce.Stop()
	n.notifyMu.Lock()
	defer n.notifyMu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.updates)
	}
}

func (n *Navigator) scheduleSettle() {
	n.debounce.Trigger(n.settle)
}

func (n *Navigator) settle() {
	n.mu.Lock()
	n.settled = n.current
	r := RangeFor(n.view, n.settled)
	n.mu.Unlock()

	n.logger.Debug("navigation_settled",
		"view", string(r.View),
		"date", dateutil.FormatDate(r.Date),
	)
	n.publish(r)
}

func (n *Navigator) publish(r VisibleRange) {
	if n.onSettle != nil {
		n.onSettle(r)
	}

	n.notifyMu.Lock()
	defer n.notifyMu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.updates <- r:
		return
	default:
	}
	// Latest wins: drop the undelivered range.
	select {
	case <-n.updates:
	default:
	}
	select {
	case n.updates <- r:
	default:
	}
}

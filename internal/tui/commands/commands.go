// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/clinica/internal/calendar"
)

// RangeSettledMsg is sent when the navigator publishes a new visible range.
type RangeSettledMsg struct {
	Range calendar.VisibleRange
}

// RangeLoadedMsg is sent when the calendar snapshot for a range is ready.
type RangeLoadedMsg struct {
	Range calendar.VisibleRange
}

// DropMsg is sent when a drop or conflict confirmation resolves.
type DropMsg struct {
	Result calendar.DropResult
	Err    error
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// loadTimeout bounds a single snapshot fetch.
const loadTimeout = 10 * time.Second

// WaitForRange blocks until the navigator publishes a range. It returns a
// nil message once the channel is closed.
func WaitForRange(updates <-chan calendar.VisibleRange) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-updates
		if !ok {
			return nil
		}
		return RangeSettledMsg{Range: r}
	}
}

// LoadRange fetches r into the calendar snapshot.
func LoadRange(cal *calendar.Calendar, r calendar.VisibleRange) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if err := cal.RefreshRange(ctx, r); err != nil {
			return ErrMsg{Err: err}
		}
		return RangeLoadedMsg{Range: r}
	}
}

// Drop ends a drag of id on slotID.
func Drop(cal *calendar.Calendar, id, slotID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		res, err := cal.Drop(ctx, id, slotID)
		return DropMsg{Result: res, Err: err}
	}
}

// ConfirmConflict commits the move awaiting confirmation.
func ConfirmConflict(coord *calendar.Coordinator) tea.Cmd {
	return func() tea.Msg {
		res, err := coord.ConfirmConflict(context.Background())
		return DropMsg{Result: res, Err: err}
	}
}

// CopyToClipboard writes text to the system clipboard.
func CopyToClipboard(text, label string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return StatusMsgCmd{Msg: "Copied " + label}
	}
}

// ClearStatusAfter schedules a ClearStatusMsg.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

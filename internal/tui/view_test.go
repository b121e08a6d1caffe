package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/clinica/internal/appointment"
	"github.com/javiermolinar/clinica/internal/calendar"
)

func render(t *testing.T, env *testEnv) string {
	t.Helper()
	env.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	return env.model.View()
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestView_Week(t *testing.T) {
	env := newTestEnv(t, calendar.ViewWeek, testAppt("a", "Ana", "cleaning", 15, "10:00"))
	out := render(t, env)

	assertContains(t, out,
		"Test Clinic",
		"Mon Jan 13 - Sun Jan 19, 2025",
		"Wed 15 (1)",
		"Mon 13 (0)",
		"09:00",
		"17:00",
		"10:00 Ana",
		"2 Week",
	)
	if strings.Contains(out, "18:00") {
		t.Error("expected no row for the closing hour")
	}
}

func TestView_Day(t *testing.T) {
	env := newTestEnv(t, calendar.ViewDay, testAppt("a", "Ana", "cleaning", 15, "10:00"))
	out := render(t, env)

	assertContains(t, out, "Wednesday, January 15, 2025", "10:00 Ana")
	if strings.Contains(out, "Thu 16") {
		t.Error("expected a single day column")
	}
}

func TestView_OverflowCount(t *testing.T) {
	env := newTestEnv(t, calendar.ViewDay,
		testAppt("a", "Ana", "", 15, "10:00"),
		testAppt("b", "Ben", "", 15, "10:30"),
	)
	out := render(t, env)
	assertContains(t, out, "+1")
}

func TestView_Month(t *testing.T) {
	env := newTestEnv(t, calendar.ViewMonth, testAppt("a", "Ana", "", 15, "10:00"))
	out := render(t, env)

	assertContains(t, out, "January 2025", "W03", "• 1", "Mon", "Sun")
	if strings.Contains(out, "10:00 Ana") {
		t.Error("expected month view without appointment cells")
	}
}

func TestView_Team(t *testing.T) {
	env := newTestEnv(t, calendar.ViewTeam,
		testAppt("a", "Ana", "cleaning", 15, "10:00"),
		testAppt("b", "Ben", "checkup", 15, "11:00"),
	)
	out := render(t, env)

	assertContains(t, out, "cleaning", "checkup", "10:00 Ana", "11:00 Ben")
	if strings.Index(out, "checkup") > strings.Index(out, "cleaning") {
		t.Error("expected lanes sorted by service")
	}
}

func TestView_TeamWithoutBookings(t *testing.T) {
	env := newTestEnv(t, calendar.ViewTeam)
	assertContains(t, render(t, env), "general")
}

func TestView_LoadingIndicator(t *testing.T) {
	env := newTestEnv(t, calendar.ViewWeek)
	if strings.Contains(render(t, env), "loading…") {
		t.Error("expected no loading indicator when settled")
	}
	env.press(t, "]")
	assertContains(t, env.model.View(), "loading…")
}

func TestView_DragShowsDropTarget(t *testing.T) {
	env := newTestEnv(t, calendar.ViewWeek, testAppt("a", "Ana", "", 15, "10:00"))
	env.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	env.press(t, "m", "j")

	assertContains(t, env.model.View(), "drop here", "enter drop")
}

func TestView_PromptInFooter(t *testing.T) {
	env := newTestEnv(t, calendar.ViewWeek)
	env.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	env.press(t, "g")
	assertContains(t, env.model.View(), "Go to:", "tab complete")
}

func TestView_FitsWidth(t *testing.T) {
	env := newTestEnv(t, calendar.ViewWeek, testAppt("a", "Ana", "a very long service name", 15, "10:00"))
	out := render(t, env)

	for i, line := range strings.Split(out, "\n") {
		// Help and summary lines are not part of the grid.
		if strings.Contains(line, "[/]") {
			continue
		}
		if w := lipgloss.Width(line); w > 6+7*maxColWidth {
			t.Errorf("line %d is %d cells wide", i, w)
		}
	}
}

func TestSummaryLine(t *testing.T) {
	ana := testAppt("a", "Ana", "", 15, "10:00")
	ben := testAppt("b", "Ben", "", 16, "11:00")
	ben.Status = appointment.StatusPending
	ben.Duration = 60
	gone := testAppt("c", "Cid", "", 16, "12:00")
	gone.Status = appointment.StatusCancelled

	env := newTestEnv(t, calendar.ViewWeek, ana, ben, gone)
	want := "2 booked · 1 confirmed · 1 pending · 1 cancelled · 1h30m · busiest Thu (1h)"
	if got := env.model.summaryLine(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	env.press(t, "1")
	env.cal.Load(env.cal.Navigator().VisibleRange(), []*appointment.Appointment{ana})
	want = "1 booked · 1 confirmed · 0 pending · 30m"
	if got := env.model.summaryLine(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSummaryLine_Empty(t *testing.T) {
	env := newTestEnv(t, calendar.ViewWeek)
	if got := env.model.summaryLine(); got != "No appointments in view" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0m"},
		{30, "30m"},
		{60, "1h"},
		{90, "1h30m"},
		{125, "2h05m"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.in); got != tt.want {
			t.Errorf("formatMinutes(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestRangeLabel(t *testing.T) {
	tests := []struct {
		view calendar.View
		want string
	}{
		{calendar.ViewDay, "Wednesday, January 15, 2025"},
		{calendar.ViewTeam, "Wednesday, January 15, 2025"},
		{calendar.ViewWeek, "Mon Jan 13 - Sun Jan 19, 2025"},
		{calendar.ViewMonth, "January 2025"},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			if got := rangeLabel(calendar.RangeFor(tt.view, testNow)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPlaceOverlay(t *testing.T) {
	base := strings.Join([]string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc", "dddddddddd", "eeeeeeeeee"}, "\n")
	out := placeOverlay(base, "XX\nYY", 10, 5)

	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if got := lipgloss.Width(lines[1]); got != 10 {
		t.Errorf("expected width 10, got %d", got)
	}
	if !strings.Contains(lines[1], "XX") || !strings.Contains(lines[2], "YY") {
		t.Errorf("expected box on lines 1 and 2, got %q", out)
	}
	if lines[0] != "aaaaaaaaaa" || lines[4] != "eeeeeeeeee" {
		t.Errorf("expected untouched lines outside the box, got %q", out)
	}
}

func TestPlaceOverlay_PadsShortBase(t *testing.T) {
	out := placeOverlay("ab", "X", 4, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "ab  " {
		t.Errorf("expected padded first line, got %q", lines[0])
	}
}

func TestPlaceOverlay_NoBox(t *testing.T) {
	if got := placeOverlay("base", "", 10, 2); got != "base" {
		t.Errorf("expected base unchanged, got %q", got)
	}
}

package appointment

import "testing"

func TestTimeToMinutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "9am", input: "09:00", want: 540},
		{name: "with minutes", input: "09:30", want: 570},
		{name: "11:59pm", input: "23:59", want: 1439},
		{name: "single digit hour", input: "9:05", want: 545},
		{name: "bad minutes count as zero", input: "10:xx", want: 600},
		{name: "bad hour counts as zero", input: "ab:15", want: 15},
		{name: "missing minutes", input: "11", want: 660},
		{name: "empty", input: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeToMinutes(tt.input)
			if got != tt.want {
				t.Errorf("TimeToMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMinutesToTime(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  string
	}{
		{name: "midnight", input: 0, want: "00:00"},
		{name: "with minutes", input: 570, want: "09:30"},
		{name: "negative clamps to zero", input: -10, want: "00:00"},
		{name: "over 24h clamps", input: 1500, want: "23:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinutesToTime(tt.input); got != tt.want {
				t.Errorf("MinutesToTime(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHourClock(t *testing.T) {
	if got := HourClock(9); got != "09:00" {
		t.Errorf("expected 09:00, got %s", got)
	}
	if got := HourClock(14); got != "14:00" {
		t.Errorf("expected 14:00, got %s", got)
	}
}

func TestInterval_Overlap(t *testing.T) {
	tests := []struct {
		name        string
		a           Interval
		b           Interval
		wantOverlap bool
		wantMinutes int
	}{
		{"touching end to start", NewInterval("10:00", 30), NewInterval("10:30", 30), false, 0},
		{"touching start to end", NewInterval("10:30", 30), NewInterval("10:00", 30), false, 0},
		{"one minute inside", NewInterval("10:29", 1), NewInterval("10:00", 30), true, 1},
		{"partial", NewInterval("10:15", 30), NewInterval("10:00", 30), true, 15},
		{"contained", NewInterval("10:10", 10), NewInterval("10:00", 60), true, 10},
		{"containing", NewInterval("09:00", 180), NewInterval("10:00", 30), true, 30},
		{"identical", NewInterval("10:00", 30), NewInterval("10:00", 30), true, 30},
		{"disjoint", NewInterval("08:00", 30), NewInterval("10:00", 30), false, 0},
		{"empty candidate", NewInterval("10:10", 0), NewInterval("10:00", 30), false, 0},
		{"negative duration", NewInterval("10:10", -5), NewInterval("10:00", 30), false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.wantOverlap {
				t.Errorf("Overlaps = %v, want %v", got, tc.wantOverlap)
			}
			if got := tc.a.OverlapMinutes(tc.b); got != tc.wantMinutes {
				t.Errorf("OverlapMinutes = %d, want %d", got, tc.wantMinutes)
			}
		})
	}
}

func TestInterval_String(t *testing.T) {
	if got := NewInterval("09:30", 45).String(); got != "09:30-10:15" {
		t.Errorf("expected 09:30-10:15, got %s", got)
	}
}

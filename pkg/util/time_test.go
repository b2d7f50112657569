package util

import "testing"

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{63, "00:01:03"},
		{63.9, "00:01:03"},
		{3661, "01:01:01"},
		{-5, "00:00:00"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.seconds); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatClockDash(t *testing.T) {
	if got := FormatClockDash(3661); got != "01-01-01" {
		t.Errorf("FormatClockDash(3661) = %q", got)
	}
}

func TestParseClockRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 1, 59, 60, 3599, 3600, 7325} {
		formatted := FormatClock(seconds)
		parsed, err := ParseClock(formatted)
		if err != nil {
			t.Fatalf("ParseClock(%q) failed: %v", formatted, err)
		}
		if parsed != seconds {
			t.Errorf("round trip %v -> %q -> %v", seconds, formatted, parsed)
		}
	}
}

func TestParseClockFormats(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"45.5", 45.5, false},
		{"02:30", 150, false},
		{"01:00:01", 3601, false},
		{" 00:00:10 ", 10, false},
		{"1:2:3:4", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr != (err != nil) {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30/1"); got != 30 {
		t.Errorf("ParseFrameRate(30/1) = %v", got)
	}
	if got := ParseFrameRate("30000/1001"); got < 29.9 || got > 30 {
		t.Errorf("ParseFrameRate(30000/1001) = %v", got)
	}
	if got := ParseFrameRate("bogus"); got != 0 {
		t.Errorf("ParseFrameRate(bogus) = %v", got)
	}
	if got := ParseFrameRate("30/0"); got != 0 {
		t.Errorf("ParseFrameRate(30/0) = %v", got)
	}
}

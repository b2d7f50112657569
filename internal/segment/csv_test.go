package segment

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCSVRoundTrip(t *testing.T) {
	st := NewStore()

	a := New("match_cam01_AB.mp4", 63.0, 125.0)
	a.Opinion1 = "좋은 장면"
	a.Opinion2 = "re-check"
	b := New("match_cam01_AB.mp4", 3601.0, 3725.0)
	b.Opinion1 = "highlight"
	st.Add(a)
	st.Add(b)

	var buf bytes.Buffer
	if err := st.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	parsed, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(parsed))
	}

	for i, want := range []*Segment{a, b} {
		got := parsed[i]
		if got.Start != want.Start || got.End != want.End {
			t.Errorf("segment %d times: got %v-%v, want %v-%v",
				i, got.Start, got.End, want.Start, want.End)
		}
		if got.Opinion1 != want.Opinion1 || got.Opinion2 != want.Opinion2 {
			t.Errorf("segment %d opinions: got %q/%q, want %q/%q",
				i, got.Opinion1, got.Opinion2, want.Opinion1, want.Opinion2)
		}
	}
}

func TestWriteCSVHeader(t *testing.T) {
	st := NewStore()
	var buf bytes.Buffer
	if err := st.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if !strings.HasPrefix(first, "파일명,시작 시간,종료 시간,구간 길이,타입,의견1,의견2") {
		t.Errorf("unexpected header: %q", first)
	}
}

func TestExportRowsFormatting(t *testing.T) {
	st := NewStore()
	seg := New("v_AB.mp4", 3661.5, 3725.0)
	st.Add(seg)

	rows := st.ExportRows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row[1] != "01:01:01" {
		t.Errorf("start formatting: got %q, want 01:01:01", row[1])
	}
	if row[2] != "01:02:05" {
		t.Errorf("end formatting: got %q, want 01:02:05", row[2])
	}
	if row[3] != "00:01:03" {
		t.Errorf("duration formatting: got %q, want 00:01:03", row[3])
	}
	if row[4] != "AB" {
		t.Errorf("type column: got %q", row[4])
	}
}

func TestDefaultCSVName(t *testing.T) {
	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	name := DefaultCSVName("/videos/match_cam01_AB.mp4", 12, ts, 100)
	want := "match_cam01_AB_구간데이터_12개_20260901.csv"
	if name != want {
		t.Errorf("got %q, want %q", name, want)
	}

	long := strings.Repeat("x", 200) + ".mp4"
	name = DefaultCSVName(long, 3, ts, 100)
	if len([]rune(name)) > 100 {
		t.Errorf("name not truncated: %d runes", len([]rune(name)))
	}
	if !strings.HasSuffix(name, ".csv") {
		t.Errorf("truncation lost extension: %q", name)
	}
}

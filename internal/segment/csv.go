package segment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/clipmark/clipmark/pkg/util"
)

// csvHeader is the fixed column layout of exported segment data. Existing
// exports depend on these exact labels, so they are not localized.
var csvHeader = []string{"파일명", "시작 시간", "종료 시간", "구간 길이", "타입", "의견1", "의견2"}

// ExportRows renders one CSV row per segment with HH:MM:SS times.
func (st *Store) ExportRows() [][]string {
	rows := make([][]string, 0, len(st.segments))
	for _, seg := range st.segments {
		rows = append(rows, []string{
			seg.File,
			util.FormatClock(seg.Start),
			util.FormatClock(seg.End),
			util.FormatClock(seg.Duration()),
			seg.Type,
			seg.Opinion1,
			seg.Opinion2,
		})
	}
	return rows
}

// WriteCSV writes the header plus one row per segment, UTF-8 encoded.
func (st *Store) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range st.ExportRows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile writes the segment list to path.
func (st *Store) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if err := st.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

// DefaultCSVName builds the suggested export file name for a source video,
// truncated when it would exceed maxLen characters.
func DefaultCSVName(sourcePath string, count int, now time.Time, maxLen int) string {
	name := fmt.Sprintf("%s_구간데이터_%d개_%s.csv",
		util.Stem(sourcePath), count, now.Format("20060102"))
	if maxLen <= 0 {
		maxLen = 100
	}
	return util.TruncateName(name, maxLen)
}

// ReadCSV parses a previously exported file back into segments. Times come
// back at second granularity, matching what FormatClock wrote.
func ReadCSV(r io.Reader) ([]*Segment, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip the header row if present
	if len(records[0]) > 0 && records[0][0] == csvHeader[0] {
		records = records[1:]
	}

	segments := make([]*Segment, 0, len(records))
	for i, rec := range records {
		if len(rec) < 7 {
			return nil, fmt.Errorf("row %d: expected 7 columns, got %d", i+1, len(rec))
		}
		start, err := util.ParseClock(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		end, err := util.ParseClock(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		seg := New(rec[0], start, end)
		seg.Type = rec[4]
		seg.Opinion1 = rec[5]
		seg.Opinion2 = rec[6]
		segments = append(segments, seg)
	}
	return segments, nil
}

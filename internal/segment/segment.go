package segment

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxOpinionLen bounds the free-text annotation fields.
const MaxOpinionLen = 30

// MinDuration is the shortest range the validation layer accepts, in seconds.
const MinDuration = 0.1

// DuplicateTolerance is the window within which two ranges count as the same
// segment, in seconds.
const DuplicateTolerance = 0.1

// Segment is a user-marked [start, end) time range on a source video.
type Segment struct {
	ID       string
	File     string // source file name, not full path
	Start    float64
	End      float64
	Type     string
	Opinion1 string
	Opinion2 string
}

// New builds a segment for the given source path and range, assigning a
// stable identifier. Callers validate the range first (see Validate).
func New(sourcePath string, start, end float64) *Segment {
	return &Segment{
		ID:    uuid.NewString(),
		File:  filepath.Base(sourcePath),
		Start: start,
		End:   end,
		Type:  TypeFromFile(sourcePath),
	}
}

// Duration returns end - start in seconds.
func (s *Segment) Duration() float64 {
	return s.End - s.Start
}

// TypeFromFile extracts the 2-character type suffix from a file name stem.
func TypeFromFile(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	runes := []rune(stem)
	if len(runes) < 2 {
		return stem
	}
	return string(runes[len(runes)-2:])
}

// Validate checks a candidate range before a segment is created. The store
// itself never rejects; this is the caller-level gate.
func Validate(start, end float64) error {
	if start < 0 {
		return fmt.Errorf("start must not be negative: %.2f", start)
	}
	if end <= start {
		return fmt.Errorf("end must be after start: %.2f >= %.2f", start, end)
	}
	if end-start <= MinDuration {
		return fmt.Errorf("selection too short: %.2fs (minimum %.1fs)", end-start, MinDuration)
	}
	return nil
}

// ClampOpinion trims an annotation to the allowed length.
func ClampOpinion(s string) string {
	runes := []rune(s)
	if len(runes) > MaxOpinionLen {
		return string(runes[:MaxOpinionLen])
	}
	return s
}

// Store holds the ordered list of confirmed segments. It is the single owner
// of the list; all consumers read through accessors. Mutation is expected to
// happen from one goroutine (the UI loop); results from background jobs come
// back through the event bus, never by writing here directly.
type Store struct {
	segments []*Segment
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{segments: make([]*Segment, 0)}
}

// Add appends a segment. No uniqueness is enforced here; callers run the
// NearDuplicate check first.
func (st *Store) Add(seg *Segment) {
	st.segments = append(st.segments, seg)
}

// Get returns the segment with the given ID, or nil.
func (st *Store) Get(id string) *Segment {
	for _, seg := range st.segments {
		if seg.ID == id {
			return seg
		}
	}
	return nil
}

// RemoveByID deletes the segment with the given ID. Returns false when no
// such segment exists.
func (st *Store) RemoveByID(id string) bool {
	for i, seg := range st.segments {
		if seg.ID == id {
			st.segments = append(st.segments[:i], st.segments[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt deletes by position. Retained for table wiring; ID-based removal
// is preferred.
func (st *Store) RemoveAt(index int) bool {
	if index < 0 || index >= len(st.segments) {
		return false
	}
	st.segments = append(st.segments[:index], st.segments[index+1:]...)
	return true
}

// All returns the segments in insertion order. The slice is a copy; the
// elements are shared.
func (st *Store) All() []*Segment {
	out := make([]*Segment, len(st.segments))
	copy(out, st.segments)
	return out
}

// Len returns the number of stored segments.
func (st *Store) Len() int {
	return len(st.segments)
}

// Last returns the most recently added segment, or nil when empty.
func (st *Store) Last() *Segment {
	if len(st.segments) == 0 {
		return nil
	}
	return st.segments[len(st.segments)-1]
}

// NearDuplicate reports whether an existing segment has both start and end
// within DuplicateTolerance of the given range. Advisory: Add does not call
// this, the validation layer does.
func (st *Store) NearDuplicate(start, end float64) bool {
	for _, seg := range st.segments {
		if math.Abs(seg.Start-start) < DuplicateTolerance &&
			math.Abs(seg.End-end) < DuplicateTolerance {
			return true
		}
	}
	return false
}

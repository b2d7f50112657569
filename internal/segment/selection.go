package segment

import "sync"

// Selection tracks which segment the user has highlighted, by stable ID
// rather than list position, so deletes and reorders cannot misdirect an
// extraction.
type Selection struct {
	mu sync.Mutex
	id string
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Set records the selected segment's ID.
func (s *Selection) Set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
}

// ID returns the selected segment's ID, or "".
func (s *Selection) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Resolve returns the selected segment from the store, or nil when nothing
// is selected or the segment has since been deleted.
func (s *Selection) Resolve(st *Store) *Segment {
	id := s.ID()
	if id == "" {
		return nil
	}
	return st.Get(id)
}

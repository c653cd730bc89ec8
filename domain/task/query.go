package task

// Filter is an exact-match predicate over status and priority. Nil fields
// match any value. Limit 0 means no limit.
type Filter struct {
	Status   *Status   `json:"status,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	Offset   int       `json:"offset,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// Matches reports whether t satisfies the status and priority constraints.
func (f Filter) Matches(t Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	return true
}

// Stats aggregates counts over the registry contents.
type Stats struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"byStatus"`
	ByPriority map[Priority]int `json:"byPriority"`
}

// NewStats returns zeroed stats with a bucket for every status and priority.
func NewStats() Stats {
	s := Stats{
		ByStatus:   make(map[Status]int, len(AllStatuses())),
		ByPriority: make(map[Priority]int, len(AllPriorities())),
	}
	for _, st := range AllStatuses() {
		s.ByStatus[st] = 0
	}
	for _, p := range AllPriorities() {
		s.ByPriority[p] = 0
	}
	return s
}

// Add counts t into the aggregate.
func (s *Stats) Add(t Task) {
	s.Total++
	s.ByStatus[t.Status]++
	s.ByPriority[t.Priority]++
}

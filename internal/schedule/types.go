package schedule

import (
	"fmt"

	"github.com/calebmorton/planloom/internal/dates"
)

// Priority orders tasks in the ready queue. Higher schedules first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "low",
	PriorityMedium:   "medium",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

// ParsePriority reads a priority label. Unknown labels are an error.
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return PriorityLow, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func (p Priority) MarshalJSON() ([]byte, error) {
	name, ok := priorityNames[p]
	if !ok {
		return nil, fmt.Errorf("cannot marshal priority %d", int(p))
	}
	return []byte(`"` + name + `"`), nil
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid priority literal %s", s)
	}
	parsed, err := ParsePriority(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Task is one schedulable unit of project work. The engine computes
// StartDate and AssignedTo; everything else is caller-owned input.
type Task struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"projectId"`
	Name              string     `json:"name"`
	Dependencies      []string   `json:"dependencies,omitempty"`
	StartDate         dates.Date `json:"startDate"`
	Duration          int        `json:"duration"`
	AssignedTo        string     `json:"assignedTo,omitempty"`
	RequiredSpecialty string     `json:"requiredSpecialty,omitempty"`
	Priority          Priority   `json:"priority"`
}

// End returns the first day after the task's inclusive span: a task
// starting on D with duration N occupies D..D+N-1 and ends (for
// chaining) on D+N.
func (t Task) End() dates.Date {
	return dates.SpanEnd(t.StartDate, t.Duration)
}

// Clone returns an independent copy, including the dependency slice.
func (t Task) Clone() Task {
	cp := t
	cp.Dependencies = append([]string(nil), t.Dependencies...)
	return cp
}

// User is a member of the roster tasks can be assigned to.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialties []string `json:"specialties,omitempty"`
}

// Satisfies reports whether the user can serve a specialty requirement.
// The capability set is the declared specialties plus the role, which
// acts as an implicit specialty.
func (u User) Satisfies(requirement string) bool {
	if u.Role == requirement {
		return true
	}
	for _, s := range u.Specialties {
		if s == requirement {
			return true
		}
	}
	return false
}

// Project carries the floor date: no task in the project may start
// before it.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate dates.Date `json:"startDate"`
}

// Result is the outcome of one scheduling pass.
type Result struct {
	// Tasks holds one clone per scheduled input task with computed
	// StartDate and AssignedTo. Shorter than the input when unresolved
	// dependencies left tasks unschedulable.
	Tasks []Task `json:"tasks"`

	// Conflicts are human-readable staffing and dependency warnings.
	// Non-empty conflicts do not make the schedule invalid.
	Conflicts []string `json:"conflicts,omitempty"`

	// Utilization is reserved for per-user load percentages. The engine
	// emits an empty map; the report package computes it on demand.
	Utilization map[string]float64 `json:"utilization"`
}

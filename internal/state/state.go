// Package state persists the last scheduling run so `planloom status`
// can display it and `schedule --check` can verify the schedule is a
// fixed point against the previous output.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/calebmorton/planloom/internal/schedule"
)

const stateDir = ".planloom"
const stateFile = "lastrun.json"

// RunRecord is the persisted outcome of one scheduling pass.
type RunRecord struct {
	RunID       string          `json:"run_id"`
	ProjectID   string          `json:"project_id"`
	ProjectName string          `json:"project_name"`
	RanAt       time.Time       `json:"ran_at"`
	AsOf        string          `json:"as_of"` // availability seed date
	TaskCount   int             `json:"task_count"`
	InputCount  int             `json:"input_count"`
	Conflicts   []string        `json:"conflicts,omitempty"`
	Tasks       []schedule.Task `json:"tasks"`
}

// NewRecord builds a RunRecord from a scheduling result.
func NewRecord(project schedule.Project, result schedule.Result, inputCount int, asOf string) *RunRecord {
	return &RunRecord{
		RunID:       uuid.NewString(),
		ProjectID:   project.ID,
		ProjectName: project.Name,
		RanAt:       time.Now(),
		AsOf:        asOf,
		TaskCount:   len(result.Tasks),
		InputCount:  inputCount,
		Conflicts:   result.Conflicts,
		Tasks:       result.Tasks,
	}
}

// Save persists the record under dir (defaulting to the working
// directory), creating .planloom/ as needed.
func (r *RunRecord) Save(dir string) error {
	full := filepath.Join(dir, stateDir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	return os.WriteFile(filepath.Join(full, stateFile), data, 0o644)
}

// Load reads the last run record from dir.
func Load(dir string) (*RunRecord, error) {
	path := filepath.Join(dir, stateDir, stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run record: %w", err)
	}

	var r RunRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse run record: %w", err)
	}
	return &r, nil
}

// Exists reports whether a run record is present under dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, stateDir, stateFile))
	return err == nil
}

// Clean removes the state directory under dir.
func Clean(dir string) error {
	return os.RemoveAll(filepath.Join(dir, stateDir))
}

// Drift compares a new result against the recorded run and returns a
// description per task whose start date or assignee changed. Tasks
// only present on one side are reported too.
func (r *RunRecord) Drift(result schedule.Result) []string {
	prev := make(map[string]schedule.Task, len(r.Tasks))
	for _, t := range r.Tasks {
		prev[t.ID] = t
	}

	var drift []string
	seen := make(map[string]bool, len(result.Tasks))
	for _, t := range result.Tasks {
		seen[t.ID] = true
		p, ok := prev[t.ID]
		if !ok {
			drift = append(drift, fmt.Sprintf("task %s: new in this pass", t.ID))
			continue
		}
		if !p.StartDate.Equal(t.StartDate) {
			drift = append(drift, fmt.Sprintf("task %s: start %s -> %s", t.ID, p.StartDate, t.StartDate))
		}
		if p.AssignedTo != t.AssignedTo {
			drift = append(drift, fmt.Sprintf("task %s: assignee %q -> %q", t.ID, p.AssignedTo, t.AssignedTo))
		}
	}
	for _, t := range r.Tasks {
		if !seen[t.ID] {
			drift = append(drift, fmt.Sprintf("task %s: dropped from this pass", t.ID))
		}
	}
	return drift
}

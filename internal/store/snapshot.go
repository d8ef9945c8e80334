package store

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/calebmorton/planloom/internal/dates"
	"github.com/calebmorton/planloom/internal/schedule"
)

// ParseSnapshot reads a dashboard JSON export:
//
//	{
//	  "project":    {"id": "...", "name": "...", "startDate": "YYYY-MM-DD"},
//	  "tasks":      [...],
//	  "users":      [...],
//	  "otherTasks": [...]
//	}
//
// Parsing is deliberately tolerant of extra fields, but dates must be
// valid ISO-8601 and durations positive: the engine does not validate
// its inputs, so this loader is where malformed exports get rejected.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON snapshot")
	}
	root := gjson.ParseBytes(data)

	snap := &Snapshot{}

	proj := root.Get("project")
	if !proj.Exists() {
		return nil, fmt.Errorf("snapshot missing project")
	}
	snap.Project.ID = proj.Get("id").String()
	if snap.Project.ID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	snap.Project.Name = proj.Get("name").String()
	start, err := parseDate(proj.Get("startDate"), "project start date")
	if err != nil {
		return nil, err
	}
	snap.Project.StartDate = start

	var parseErr error
	root.Get("users").ForEach(func(_, item gjson.Result) bool {
		u := schedule.User{
			ID:   item.Get("id").String(),
			Name: item.Get("name").String(),
			Role: item.Get("role").String(),
		}
		if u.ID == "" {
			parseErr = fmt.Errorf("user missing id: %s", item.Raw)
			return false
		}
		item.Get("specialties").ForEach(func(_, s gjson.Result) bool {
			u.Specialties = append(u.Specialties, s.String())
			return true
		})
		snap.Users = append(snap.Users, u)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	snap.Tasks, err = parseTasks(root.Get("tasks"))
	if err != nil {
		return nil, err
	}
	snap.OtherTasks, err = parseTasks(root.Get("otherTasks"))
	if err != nil {
		return nil, err
	}

	for _, t := range snap.Tasks {
		if t.ProjectID != "" && t.ProjectID != snap.Project.ID {
			return nil, fmt.Errorf("task %q belongs to project %q, not %q",
				t.ID, t.ProjectID, snap.Project.ID)
		}
	}

	return snap, nil
}

func parseTasks(list gjson.Result) ([]schedule.Task, error) {
	var tasks []schedule.Task
	var parseErr error
	list.ForEach(func(_, item gjson.Result) bool {
		t := schedule.Task{
			ID:                item.Get("id").String(),
			ProjectID:         item.Get("projectId").String(),
			Name:              item.Get("name").String(),
			AssignedTo:        item.Get("assignedTo").String(),
			RequiredSpecialty: item.Get("requiredSpecialty").String(),
			Duration:          1,
		}
		if t.ID == "" {
			parseErr = fmt.Errorf("task missing id: %s", item.Raw)
			return false
		}
		if d := item.Get("duration"); d.Exists() {
			t.Duration = int(d.Int())
			if t.Duration < 1 {
				parseErr = fmt.Errorf("task %q: duration must be >= 1, got %d", t.ID, t.Duration)
				return false
			}
		}
		item.Get("dependencies").ForEach(func(_, dep gjson.Result) bool {
			t.Dependencies = append(t.Dependencies, dep.String())
			return true
		})
		start, err := parseDate(item.Get("startDate"), fmt.Sprintf("task %q start date", t.ID))
		if err != nil {
			parseErr = err
			return false
		}
		t.StartDate = start
		if p := item.Get("priority"); p.Exists() && p.String() != "" {
			prio, err := schedule.ParsePriority(strings.ToLower(p.String()))
			if err != nil {
				parseErr = fmt.Errorf("task %q: %w", t.ID, err)
				return false
			}
			t.Priority = prio
		}
		tasks = append(tasks, t)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return tasks, nil
}

func parseDate(v gjson.Result, what string) (dates.Date, error) {
	if !v.Exists() || v.String() == "" {
		return dates.Date{}, nil
	}
	d, err := dates.Parse(v.String())
	if err != nil {
		return dates.Date{}, fmt.Errorf("%s: %w", what, err)
	}
	return d, nil
}

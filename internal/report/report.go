// Package report renders scheduling results for terminals and machines
// and computes the per-user utilization figures the engine itself
// leaves empty.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/calebmorton/planloom/internal/dates"
	"github.com/calebmorton/planloom/internal/schedule"
	"github.com/calebmorton/planloom/internal/ui"
)

// PrintSchedule writes a terminal-friendly schedule table followed by
// any conflicts.
func PrintSchedule(w io.Writer, project schedule.Project, result schedule.Result) {
	fmt.Fprintf(w, "%s %s — %d tasks from %s\n\n",
		ui.BoldCyan("Schedule"), ui.Bold(project.Name), len(result.Tasks), project.StartDate)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
		ui.Dim("TASK"), ui.Dim("START"), ui.Dim("END"), ui.Dim("DAYS"), ui.Dim("ASSIGNEE"), ui.Dim("PRIORITY"))
	for _, t := range result.Tasks {
		// Last occupied day, not the chaining end.
		lastDay := t.End().AddDays(-1)
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s\t%s\n",
			t.Name, t.StartDate, lastDay, t.Duration,
			ui.AssigneeLabel(t.AssignedTo), ui.PriorityBadge(t.Priority.String()))
	}
	tw.Flush()

	if len(result.Conflicts) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldYellow(fmt.Sprintf("%d conflict(s):", len(result.Conflicts))))
		for _, c := range result.Conflicts {
			fmt.Fprintf(w, "  %s %s\n", ui.Yellow("!"), c)
		}
	}
}

// Utilization computes each user's busy-day share of the window
// [from, to) as a percentage, counting the inclusive spans of the tasks
// assigned to them. Users with no assignments report 0.
func Utilization(tasks []schedule.Task, users []schedule.User, from, to dates.Date) map[string]float64 {
	out := make(map[string]float64, len(users))
	window := from.DaysUntil(to)
	if window <= 0 {
		return out
	}

	busy := make(map[string]int, len(users))
	for _, t := range tasks {
		if t.AssignedTo == "" {
			continue
		}
		busy[t.AssignedTo] += overlapDays(t.StartDate, t.End(), from, to)
	}
	for _, u := range users {
		out[u.ID] = float64(busy[u.ID]) / float64(window) * 100
	}
	return out
}

// overlapDays counts the days shared by two half-open spans.
func overlapDays(aStart, aEnd, bStart, bEnd dates.Date) int {
	start := dates.Max(aStart, bStart)
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !start.Before(end) {
		return 0
	}
	return start.DaysUntil(end)
}

// PrintUtilization writes a per-user utilization table in roster order.
func PrintUtilization(w io.Writer, users []schedule.User, util map[string]float64) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\t%s\t%s\n", ui.Dim("USER"), ui.Dim("NAME"), ui.Dim("LOAD"))
	for _, u := range users {
		pct := util[u.ID]
		label := fmt.Sprintf("%.0f%%", pct)
		switch {
		case pct >= 90:
			label = ui.BoldRed(label)
		case pct >= 60:
			label = ui.Yellow(label)
		default:
			label = ui.Green(label)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", u.ID, u.Name, label)
	}
	tw.Flush()
}

// WriteJSON emits the result for machine consumption.
func WriteJSON(w io.Writer, result schedule.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

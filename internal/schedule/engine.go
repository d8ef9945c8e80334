// Package schedule implements the resource-constrained forward
// scheduler: a single greedy pass over the task dependency graph in
// topological order that assigns start dates and personnel under
// per-user availability constraints.
//
// The engine is a pure computation. It never mutates caller-owned
// tasks, holds no state between calls, and performs no I/O, so it is
// safe to invoke concurrently for different projects.
package schedule

import (
	"fmt"
	"sort"

	"github.com/calebmorton/planloom/internal/dates"
	"github.com/calebmorton/planloom/internal/graph"
)

// Engine runs scheduling passes. Today seeds every user's initial
// availability; it defaults to the current date when left zero.
type Engine struct {
	Today dates.Date
}

// NewEngine returns an Engine seeded with the current date.
func NewEngine() *Engine {
	return &Engine{Today: dates.Today()}
}

// Schedule computes start dates and assignments for the project's
// tasks.
//
// tasks must belong to project. otherTasks are commitments from other
// projects: they pre-load each assignee's earliest-available date and
// are neither rescheduled nor returned. Known limitation of the single
// forward pass: it does not backtrack, so a later high-priority task
// never benefits from a different earlier assignment.
//
// Tasks whose dependencies can never resolve (a cycle in the input)
// are omitted from Result.Tasks and flagged in Result.Conflicts, so
// len(Result.Tasks) < len(tasks) signals a malformed graph.
func (e *Engine) Schedule(project Project, tasks []Task, users []User, otherTasks []Task) Result {
	today := e.Today
	if today.IsZero() {
		today = dates.Today()
	}

	nodes := make([]graph.Node, len(tasks))
	byID := make(map[string]Task, len(tasks))
	for i, t := range tasks {
		nodes[i] = graph.Node{ID: t.ID, Deps: t.Dependencies}
		byID[t.ID] = t
	}
	g := graph.Build(nodes)
	inDeg := g.InDegrees()

	// Seed availability: everyone is free from today, pushed out by
	// commitments they already hold on other projects.
	userByID := make(map[string]User, len(users))
	nextFree := make(map[string]dates.Date, len(users))
	for _, u := range users {
		userByID[u.ID] = u
		nextFree[u.ID] = today
	}
	for _, ot := range otherTasks {
		if ot.ProjectID == project.ID {
			continue
		}
		if _, known := userByID[ot.AssignedTo]; !known {
			continue
		}
		nextFree[ot.AssignedTo] = dates.Max(nextFree[ot.AssignedTo], ot.End())
	}

	q := &readyQueue{}
	seq := 0
	for _, id := range g.IDs {
		if inDeg[id] == 0 {
			q.push(byID[id], seq)
			seq++
		}
	}

	done := make(map[string]Task, len(tasks))
	out := make([]Task, 0, len(tasks))
	var conflicts []string

	for q.Len() > 0 {
		task := q.pop().Clone()

		// Earliest start: the project floor, pushed out by the end of
		// every already-scheduled dependency. In-set dependencies are
		// guaranteed scheduled by topological order; out-of-set ids are
		// treated as already satisfied.
		floor := project.StartDate
		for _, depID := range task.Dependencies {
			if dep, ok := done[depID]; ok {
				floor = dates.Max(floor, dep.End())
			}
		}

		if task.RequiredSpecialty != "" {
			candidates := capableUsers(users, task.RequiredSpecialty)
			if len(candidates) == 0 {
				conflicts = append(conflicts, fmt.Sprintf(
					"no user with specialty %q available for task %q",
					task.RequiredSpecialty, task.Name))
			} else {
				sort.SliceStable(candidates, func(i, j int) bool {
					return nextFree[candidates[i].ID].Before(nextFree[candidates[j].ID])
				})
				// Keep the current assignee when they are capable and
				// already free by the dependency floor; reassignment
				// churn buys nothing in that case.
				cur, isCurCandidate := userByID[task.AssignedTo]
				keep := isCurCandidate &&
					cur.Satisfies(task.RequiredSpecialty) &&
					!nextFree[cur.ID].After(floor)
				if !keep {
					task.AssignedTo = candidates[0].ID
				}
			}
		}

		start := floor
		if task.AssignedTo != "" {
			if free, known := nextFree[task.AssignedTo]; known {
				start = dates.Max(start, free)
				nextFree[task.AssignedTo] = dates.SpanEnd(start, task.Duration)
			}
		}
		task.StartDate = start

		done[task.ID] = task
		out = append(out, task)

		for _, succID := range g.Adj[task.ID] {
			inDeg[succID]--
			if inDeg[succID] == 0 {
				q.push(byID[succID], seq)
				seq++
			}
		}
	}

	// Anything still holding in-degree sits on or behind a cycle.
	if len(out) < len(tasks) {
		for _, id := range g.IDs {
			if _, ok := done[id]; !ok {
				conflicts = append(conflicts, fmt.Sprintf(
					"task %q has unresolved dependencies and was not scheduled", byID[id].Name))
			}
		}
	}

	return Result{Tasks: out, Conflicts: conflicts, Utilization: map[string]float64{}}
}

func capableUsers(users []User, requirement string) []User {
	var out []User
	for _, u := range users {
		if u.Satisfies(requirement) {
			out = append(out, u)
		}
	}
	return out
}

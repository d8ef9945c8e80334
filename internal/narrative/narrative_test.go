package narrative

import (
	"strings"
	"testing"

	"github.com/calebmorton/planloom/internal/dates"
	"github.com/calebmorton/planloom/internal/schedule"
)

func TestBuildInput_ContainsScheduleData(t *testing.T) {
	project := schedule.Project{ID: "p1", Name: "Rewire", StartDate: dates.MustParse("2024-01-01")}
	result := schedule.Result{
		Tasks: []schedule.Task{
			{ID: "t1", Name: "Pour foundation", Duration: 2, Priority: schedule.PriorityCritical,
				StartDate: dates.MustParse("2024-01-01")},
			{ID: "t2", Name: "Wire panel", Duration: 3, Priority: schedule.PriorityMedium,
				StartDate: dates.MustParse("2024-01-03"), AssignedTo: "u1"},
		},
		Conflicts: []string{`no user with specialty "Plumber" available for task "Fit pipes"`},
	}
	util := map[string]float64{"u1": 50}

	input := BuildInput(project, result, util)

	for _, want := range []string{
		"Rewire", "Pour foundation", "Wire panel",
		"2024-01-01", "2024-01-03", "2024-01-05", // last occupied day of t2
		"unassigned", "u1", "Plumber", "50%",
	} {
		if !strings.Contains(input, want) {
			t.Errorf("input missing %q:\n%s", want, input)
		}
	}
}

func TestBuildInput_OmitsEmptySections(t *testing.T) {
	project := schedule.Project{ID: "p1", Name: "Rewire", StartDate: dates.MustParse("2024-01-01")}
	input := BuildInput(project, schedule.Result{}, nil)

	if strings.Contains(input, "## Conflicts") {
		t.Error("conflicts section should be omitted when empty")
	}
	if strings.Contains(input, "## Utilization") {
		t.Error("utilization section should be omitted when empty")
	}
}

func TestBuildInput_UtilizationOrderIsStable(t *testing.T) {
	project := schedule.Project{ID: "p1", Name: "Rewire", StartDate: dates.MustParse("2024-01-01")}
	util := map[string]float64{"u3": 10, "u1": 50, "u2": 30}

	input := BuildInput(project, schedule.Result{}, util)
	for i := 0; i < 10; i++ {
		if again := BuildInput(project, schedule.Result{}, util); again != input {
			t.Fatal("utilization section order changed between builds")
		}
	}
	if strings.Index(input, "u1") > strings.Index(input, "u2") ||
		strings.Index(input, "u2") > strings.Index(input, "u3") {
		t.Errorf("expected users in sorted order:\n%s", input)
	}
}

func TestStripFences_Unfenced(t *testing.T) {
	input := "The schedule runs five days."
	if got := stripFences(input); got != input {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestStripFences_WithLanguageTag(t *testing.T) {
	input := "```markdown\nThe schedule runs five days.\n```"
	if got := stripFences(input); got != "The schedule runs five days." {
		t.Errorf("expected clean text, got %q", got)
	}
}

func TestStripFences_WithPlainFence(t *testing.T) {
	input := "  \n```\nThe schedule runs five days.\n```\n  "
	if got := stripFences(input); got != "The schedule runs five days." {
		t.Errorf("expected clean text, got %q", got)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewClient("", ""); err == nil {
		t.Error("expected error without API key")
	}
}

package ui

import "github.com/fatih/color"

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PriorityBadge returns a colored label for a task priority name.
func PriorityBadge(priority string) string {
	switch priority {
	case "critical":
		return BoldRed("critical")
	case "high":
		return Yellow("high")
	case "medium":
		return Cyan("medium")
	default:
		return Dim(priority)
	}
}

// AssigneeLabel renders a user id, dimming the unassigned case.
func AssigneeLabel(userID string) string {
	if userID == "" {
		return Dim("(unassigned)")
	}
	return Magenta(userID)
}

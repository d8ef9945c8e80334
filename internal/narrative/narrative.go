// Package narrative turns a computed schedule into a short prose
// summary for stakeholders. Generation is behind an interface so the
// CLI works without an API key and tests run without network.
package narrative

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/calebmorton/planloom/internal/schedule"
)

// Generator produces a narrative for a prepared schedule summary.
type Generator interface {
	Summarize(ctx context.Context, input string) (string, error)
}

// Client is the Anthropic-backed Generator.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a narrative client. apiKey defaults to
// ANTHROPIC_API_KEY env. model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := anthropic.Model("claude-sonnet-4-6")
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{inner: inner, model: m}, nil
}

const summarizePrompt = `You are a project manager summarising a computed project schedule for stakeholders.

You will receive the project name, its start date, the scheduled tasks (dates, durations, assignees, priorities), staffing conflicts, and per-user utilization.

Produce a concise narrative covering:
- The overall shape of the schedule: when work starts, when it ends, what drives the end date.
- Who is carrying the most load and any idle capacity.
- Each staffing conflict and what hiring or reassignment would resolve it.

Keep it short — a paragraph for the schedule, a sentence per conflict.
Do not restate the full task table. Focus on the human-readable takeaway.
`

// BuildInput renders the schedule into the text block sent to the
// model.
func BuildInput(project schedule.Project, result schedule.Result, utilization map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Project\n\n%s (%s), starts %s\n\n", project.Name, project.ID, project.StartDate)

	b.WriteString("## Tasks\n\n")
	for _, t := range result.Tasks {
		assignee := t.AssignedTo
		if assignee == "" {
			assignee = "unassigned"
		}
		fmt.Fprintf(&b, "- %s (%s): %s to %s, %d day(s), %s, priority %s\n",
			t.Name, t.ID, t.StartDate, t.End().AddDays(-1), t.Duration, assignee, t.Priority)
	}

	if len(result.Conflicts) > 0 {
		b.WriteString("\n## Conflicts\n\n")
		for _, c := range result.Conflicts {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	if len(utilization) > 0 {
		b.WriteString("\n## Utilization\n\n")
		users := make([]string, 0, len(utilization))
		for user := range utilization {
			users = append(users, user)
		}
		sort.Strings(users)
		for _, user := range users {
			fmt.Fprintf(&b, "- %s: %.0f%%\n", user, utilization[user])
		}
	}

	return b.String()
}

// Summarize sends the prepared input to the model and returns the
// narrative text.
func (c *Client) Summarize(ctx context.Context, input string) (string, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(2048),
		System: []anthropic.TextBlockParam{
			{Text: summarizePrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return stripFences(text), nil
}

// stripFences removes markdown code fences that the model sometimes
// wraps the narrative in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

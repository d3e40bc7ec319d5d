package audit

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/awalsh128/orchid/pkg/models"
)

// timeUnit is the rounding granularity for reported durations.
const timeUnit = time.Millisecond

// Console is a Sink that writes human-readable lines to a writer.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	dim     *color.Color
	good    *color.Color
	bad     *color.Color
	warn    *color.Color
	heading *color.Color
}

// NewConsole creates a console sink writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:     out,
		dim:     color.New(color.Faint),
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		heading: color.New(color.FgCyan, color.Bold),
	}
}

func (c *Console) printf(col *color.Color, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, col.Sprintf(format, args...))
}

// RouteDecided reports the outcome of one routing call.
func (c *Console) RouteDecided(input string, d models.RouteDecision) {
	c.printf(c.heading, "→ %s (confidence %d, %s)", d.Agent, d.Confidence, d.Strategy)
	if len(d.MatchedSignals) > 0 {
		c.printf(c.dim, "  signals: %v", d.MatchedSignals)
	}
}

// RouteMissed reports a routing call that found no agent.
func (c *Console) RouteMissed(input string, strategy models.RouteStrategy) {
	c.printf(c.warn, "→ no agent matched (%s), falling back to default", strategy)
}

// HandoffAccepted reports a validated transfer.
func (c *Console) HandoffAccepted(req models.HandoffRequest) {
	c.printf(c.heading, "⇄ handoff %s → %s [%s]", req.From, req.To, req.CorrelationID)
}

// HandoffRejected reports a declined transfer with its reason.
func (c *Console) HandoffRejected(req models.HandoffRequest, reason error) {
	c.printf(c.bad, "⇄ handoff %s → %s declined: %v [%s]", req.From, req.To, reason, req.CorrelationID)
}

// StepSettled reports one workflow step result.
func (c *Console) StepSettled(workflow string, r models.StepResult) {
	switch r.Status {
	case models.StepStatusSuccess:
		c.printf(c.good, "✓ %s/%s", workflow, r.StepID)
	case models.StepStatusSkipped:
		c.printf(c.dim, "- %s/%s skipped", workflow, r.StepID)
	default:
		c.printf(c.bad, "✗ %s/%s: %s", workflow, r.StepID, r.Err)
	}
}

// WorkflowFinished reports the terminal outcome of a run.
func (c *Console) WorkflowFinished(rep models.WorkflowReport) {
	col := c.good
	if rep.Status != models.RunStatusCompleted {
		col = c.bad
	}
	c.printf(col, "workflow %s: %s (%d steps, %s)", rep.Workflow, rep.Status, len(rep.Results), rep.Duration.Round(timeUnit))
	if rep.Err != "" {
		c.printf(c.bad, "  error: %s", rep.Err)
	}
}

// ToolCallTransition reports a tool call status change.
func (c *Console) ToolCallTransition(call models.ToolCall, from models.ToolCallStatus) {
	col := c.dim
	switch call.Status {
	case models.ToolCallError:
		col = c.bad
	case models.ToolCallCancelled:
		col = c.warn
	}
	c.printf(col, "  tool %s: %s → %s", call.Name, from, call.Status)
}

// BatchProgress reports todo batch advancement.
func (c *Console) BatchProgress(q models.ExecutionQueue) {
	if !q.Active {
		c.printf(c.dim, "batch: %d/%d done", q.CurrentIndex, q.TotalCount)
		return
	}
	c.printf(c.dim, "batch: %d/%d, executing %s", q.CurrentIndex, q.TotalCount, q.ExecutingTodoID)
}

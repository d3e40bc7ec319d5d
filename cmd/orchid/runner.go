package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/awalsh128/orchid/internal/router"
	"github.com/awalsh128/orchid/internal/scheduler"
	"github.com/awalsh128/orchid/pkg/models"
)

// agentRunner executes workflow steps and todos by driving agent
// conversations. It implements workflow.StepRunner and
// scheduler.TodoRunner over a shared session.
type agentRunner struct {
	s       *services
	session *scheduler.Session
	approve scheduler.Approver
}

func newAgentRunner(s *services, session *scheduler.Session, approve scheduler.Approver) *agentRunner {
	return &agentRunner{s: s, session: session, approve: approve}
}

// RunStep invokes the step's agent with the resolved input. The
// assistant's final text becomes the step output.
func (r *agentRunner) RunStep(ctx context.Context, step models.Step, input string) (string, map[string]string, error) {
	agent, ok := r.s.registry.Get(step.Agent)
	if !ok {
		return "", nil, fmt.Errorf("step %s names unknown agent %q", step.ID, step.Agent)
	}

	d := newDriver(r.s, r.session, r.approve)
	result, err := d.converse(ctx, agent, input)
	if err != nil {
		return "", nil, err
	}
	return result.Output, nil, nil
}

// RunTodo routes the todo's description to an agent and runs the
// conversation to completion.
func (r *agentRunner) RunTodo(ctx context.Context, todo *models.Todo, mode models.QueueMode) error {
	agent, err := r.agentFor(ctx, todo.Description)
	if err != nil {
		return err
	}

	d := newDriver(r.s, r.session, r.approve)
	_, err = d.converse(ctx, agent, todoPrompt(todo))
	return err
}

// agentFor routes input through the configured strategy, falling back
// to the default agent when nothing matches.
func (r *agentRunner) agentFor(ctx context.Context, input string) (models.AgentDefinition, error) {
	decision, err := r.s.router.Route(ctx, input, r.s.registry.All(), r.s.cfg.Routing.RouteStrategy())
	if err == nil {
		agent, _ := r.s.registry.Get(decision.Agent)
		return agent, nil
	}
	if errors.Is(err, router.ErrNoMatch) {
		if agent, ok := r.s.registry.Default(); ok {
			return agent, nil
		}
		return models.AgentDefinition{}, errors.New("no agent matched and no default agent is set")
	}
	return models.AgentDefinition{}, err
}

// todoPrompt frames a todo as an agent request.
func todoPrompt(todo *models.Todo) string {
	msg := fmt.Sprintf("Complete this task: %s", todo.Description)
	if todo.Risks != "" {
		msg += "\n\nKnown risks: " + todo.Risks
	}
	return msg
}

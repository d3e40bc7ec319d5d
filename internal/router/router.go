package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/internal/llm"
	"github.com/awalsh128/orchid/pkg/models"
)

// ErrNoMatch indicates no agent cleared the confidence threshold.
// It is recoverable; callers fall back to the default agent.
var ErrNoMatch = errors.New("no agent matched")

// Classifier asks the model service to pick an agent for an input.
// Implemented by the llm client.
type Classifier interface {
	Classify(ctx context.Context, input string, candidates []models.AgentDefinition) (models.RouteDecision, error)
}

// Router scores and selects agents. It is stateless; the only side
// effects are the optional classify call and audit emission.
type Router struct {
	classifier Classifier
	sink       audit.Sink
	// threshold is the minimum rule confidence, 0-100.
	threshold int
}

// New creates a router. classifier may be nil if only the rule strategy
// is used; sink may be nil to disable audit emission.
func New(classifier Classifier, sink audit.Sink, threshold int) *Router {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Router{classifier: classifier, sink: sink, threshold: threshold}
}

// Route picks an agent for input using the given strategy.
// A failed selection returns ErrNoMatch, possibly wrapped.
func (r *Router) Route(ctx context.Context, input string, agents []models.AgentDefinition, strategy models.RouteStrategy) (models.RouteDecision, error) {
	if !strategy.Valid() {
		return models.RouteDecision{}, fmt.Errorf("unknown strategy %q", strategy)
	}

	var decision models.RouteDecision
	var err error
	switch strategy {
	case models.StrategyRule:
		decision, err = r.routeByRule(input, agents)
	case models.StrategyLLM:
		decision, err = r.routeByLLM(ctx, input, agents)
	case models.StrategyHybrid:
		decision, err = r.routeHybrid(ctx, input, agents)
	}

	if err != nil {
		r.sink.RouteMissed(input, strategy)
		return models.RouteDecision{}, err
	}
	r.sink.RouteDecided(input, decision)
	return decision, nil
}

// bestRule scores every agent and returns the highest-confidence one,
// ignoring the threshold. Ties break by declaration order.
func bestRule(input string, agents []models.AgentDefinition) (models.RouteDecision, bool) {
	if len(agents) == 0 {
		return models.RouteDecision{}, false
	}

	best := models.RouteDecision{Confidence: -1}
	for _, a := range agents {
		score := ScoreTriggers(input, a.Triggers.Keywords, a.Triggers.Patterns, a.Triggers.Priority)
		if score.Confidence > best.Confidence {
			best = models.RouteDecision{
				Agent:          a.Name,
				Confidence:     score.Confidence,
				Strategy:       models.StrategyRule,
				MatchedSignals: score.Matched,
			}
		}
	}
	return best, true
}

// routeByRule applies the confidence threshold to the best rule score.
func (r *Router) routeByRule(input string, agents []models.AgentDefinition) (models.RouteDecision, error) {
	best, ok := bestRule(input, agents)
	if !ok {
		return models.RouteDecision{}, fmt.Errorf("no agents registered: %w", ErrNoMatch)
	}
	if best.Confidence < r.threshold {
		return models.RouteDecision{}, ErrNoMatch
	}
	return best, nil
}

// routeByLLM asks the model service to classify the input. A valid
// classification comes back with confidence 100.
func (r *Router) routeByLLM(ctx context.Context, input string, agents []models.AgentDefinition) (models.RouteDecision, error) {
	if r.classifier == nil {
		return models.RouteDecision{}, fmt.Errorf("no classifier configured: %w", ErrNoMatch)
	}
	if len(agents) == 0 {
		return models.RouteDecision{}, fmt.Errorf("no agents registered: %w", ErrNoMatch)
	}

	decision, err := r.classifier.Classify(ctx, input, agents)
	if err != nil {
		// The model declining every candidate is a no-match, not a
		// failure; callers fall back to the default agent.
		if errors.Is(err, llm.ErrNoSelection) {
			return models.RouteDecision{}, fmt.Errorf("classifier declined: %w", ErrNoMatch)
		}
		return models.RouteDecision{}, fmt.Errorf("classify: %w", err)
	}

	// Reject names the model invented.
	known := false
	for _, a := range agents {
		if a.Name == decision.Agent {
			known = true
			break
		}
	}
	if !known {
		return models.RouteDecision{}, fmt.Errorf("classifier returned unknown agent %q: %w", decision.Agent, ErrNoMatch)
	}

	decision.Confidence = 100
	decision.Strategy = models.StrategyLLM
	return decision, nil
}

// routeHybrid computes the rule score first and short-circuits at the
// threshold without a model call. Below it, the model is consulted and
// the higher-confidence of the two results wins; the rule result is a
// valid fallback when the model call fails.
func (r *Router) routeHybrid(ctx context.Context, input string, agents []models.AgentDefinition) (models.RouteDecision, error) {
	rule, haveRule := bestRule(input, agents)
	if haveRule && rule.Confidence >= r.threshold {
		rule.Strategy = models.StrategyHybrid
		return rule, nil
	}

	classified, classifyErr := r.routeByLLM(ctx, input, agents)
	if classifyErr != nil {
		if haveRule && rule.Confidence > 0 {
			rule.Strategy = models.StrategyHybrid
			return rule, nil
		}
		return models.RouteDecision{}, ErrNoMatch
	}

	if haveRule && rule.Confidence > classified.Confidence {
		rule.Strategy = models.StrategyHybrid
		return rule, nil
	}
	classified.Strategy = models.StrategyHybrid
	return classified, nil
}

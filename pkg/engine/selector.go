package engine

import (
	"log/slog"

	"github.com/stubd/stubd/pkg/condition"
	"github.com/stubd/stubd/pkg/endpoint"
)

// SelectRule picks exactly one response rule from the endpoint's ordered
// list. Rules are tried in declared order; the first rule whose condition
// evaluates truthy wins. If no conditioned rule matches, the unconditioned
// default is selected, falling back to the first rule. A malformed or
// failing condition only removes that rule from consideration; this stage
// never fails the request. Returns nil only for an empty rule list.
func SelectRule(e *endpoint.Endpoint, env condition.Env, log *slog.Logger) *endpoint.ResponseRule {
	for i := range e.Responses {
		rule := &e.Responses[i]
		if !rule.HasCondition() {
			continue
		}
		matched, err := condition.Evaluate(rule.Condition, env)
		if err != nil {
			if log != nil {
				log.Debug("condition skipped",
					"endpoint_id", e.ID,
					"rule", i,
					"error", err,
				)
			}
			continue
		}
		if matched {
			return rule
		}
	}
	return e.DefaultRule()
}

// Package policy evaluates the dev server access policy with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Input is the document the policy is evaluated against.
type Input struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	Role         string `json:"role"`
	AuthRequired bool   `json:"auth_required"`
	// Mutating marks requests that write state regardless of method, such as
	// chat over a WebSocket upgrade.
	Mutating bool `json:"mutating"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.session_policy.decision"),
		rego.Module("session_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a request against the policy.
// Returns: decision (allow, deny), reason (optional), error
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]any{
		"method":        input.Method,
		"path":          input.Path,
		"role":          input.Role,
		"auth_required": input.AuthRequired,
		"mutating":      input.Mutating,
	}))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionDeny, "policy produced no decision", nil
	}

	switch val := results[0].Expressions[0].Value.(type) {
	case string:
		return val, "", nil
	case map[string]any:
		decision, _ := val["result"].(string)
		reason, _ := val["reason"].(string)
		if decision == "" {
			return DecisionDeny, "policy decision has no result", nil
		}
		return decision, reason, nil
	default:
		return DecisionDeny, fmt.Sprintf("unexpected decision type %T", val), nil
	}
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package session_policy

default decision := {"result": "allow", "reason": ""}

decision := {"result": "deny", "reason": "missing or unknown api key"} if {
	input.auth_required
	input.role == ""
}

decision := {"result": "deny", "reason": "read-only key"} if {
	input.role == "reader"
	input.method != "GET"
}

decision := {"result": "deny", "reason": "read-only key"} if {
	input.role == "reader"
	input.mutating
}
`

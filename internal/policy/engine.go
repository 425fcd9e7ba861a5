// Package policy decides whether an inbound message needs a human
// approval request before the suggested reply goes out.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by Evaluate.
const (
	DecisionAuto            = "auto"
	DecisionRequireApproval = "require_approval"
)

// Engine is the OPA policy engine gating the approval workflow.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the given rego policy for evaluation.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.triage_policy.decision"),
		rego.Module("triage_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate runs the policy. Input carries priority, escalation_type and
// business_type. Returns DecisionAuto or DecisionRequireApproval; when
// the policy yields nothing usable, defaults to requiring approval so a
// broken policy never lets replies out unreviewed.
func (e *Engine) Evaluate(ctx context.Context, input any) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionRequireApproval, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}

	return DecisionRequireApproval, nil
}

// DefaultPolicy requires approval for anything escalated or urgent and
// lets everything else through for an immediate reply.
const DefaultPolicy = `
package triage_policy

import rego.v1

default decision := "auto"

decision := "require_approval" if {
	input.escalation_type != "none"
}

decision := "require_approval" if {
	input.priority == "critical"
}

decision := "require_approval" if {
	input.priority == "high"
}
`

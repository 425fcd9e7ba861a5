package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyDecisions(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    map[string]any
		decision string
	}{
		{
			"low priority no escalation",
			map[string]any{"priority": "low", "escalation_type": "none", "business_type": "general"},
			DecisionAuto,
		},
		{
			"medium priority no escalation",
			map[string]any{"priority": "medium", "escalation_type": "none", "business_type": "telecom"},
			DecisionAuto,
		},
		{
			"complaint escalation",
			map[string]any{"priority": "high", "escalation_type": "complaint", "business_type": "banking"},
			DecisionRequireApproval,
		},
		{
			"critical priority",
			map[string]any{"priority": "critical", "escalation_type": "emergency", "business_type": "general"},
			DecisionRequireApproval,
		},
		{
			"high priority without escalation",
			map[string]any{"priority": "high", "escalation_type": "none", "business_type": "general"},
			DecisionRequireApproval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Evaluate(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.decision, decision)
		})
	}
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "this is not rego")
	assert.Error(t, err)
}

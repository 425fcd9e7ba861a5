package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmulondo/sema-core/internal/domain"
)

func TestClassifyTiers(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name       string
		message    string
		priority   domain.Priority
		escalation domain.EscalationType
	}{
		{"emergency", "This is an emergency, no network at all!", domain.PriorityCritical, domain.EscalationEmergency},
		{"fraud", "Someone committed FRAUD on my account", domain.PriorityCritical, domain.EscalationEmergency},
		{"complaint", "My phone is broken", domain.PriorityHigh, domain.EscalationComplaint},
		{"refund", "I want a refund now", domain.PriorityHigh, domain.EscalationComplaint},
		{"support", "I have a question about my plan", domain.PriorityMedium, domain.EscalationNone},
		{"default", "good morning to you", domain.PriorityLow, domain.EscalationNone},
		{"empty", "", domain.PriorityLow, domain.EscalationNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.message)
			assert.Equal(t, tt.priority, got.Priority)
			assert.Equal(t, tt.escalation, got.EscalationType)
		})
	}
}

func TestCriticalOverridesLowerTiers(t *testing.T) {
	c := NewClassifier()

	// Contains a high-tier keyword ("problem") and a critical one
	// ("urgent"); the critical tier wins.
	got := c.Classify("urgent problem with my account, please help")

	assert.Equal(t, domain.PriorityCritical, got.Priority)
	assert.Equal(t, domain.EscalationEmergency, got.EscalationType)
}

func TestShouldEscalate(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.Classify("this is an emergency").ShouldEscalate())
	assert.True(t, c.Classify("I have a complaint").ShouldEscalate())
	assert.False(t, c.Classify("what are your opening hours").ShouldEscalate())
	assert.False(t, c.Classify("I have a question").ShouldEscalate())
}

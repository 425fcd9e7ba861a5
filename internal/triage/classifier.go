// Package triage assigns an urgency tier and escalation type to inbound
// customer messages using ordered keyword tiers.
package triage

import (
	"strings"

	"github.com/dmulondo/sema-core/internal/domain"
)

// Classification is the triage outcome for one message.
type Classification struct {
	Priority       domain.Priority       `json:"priority"`
	EscalationType domain.EscalationType `json:"escalationType"`
}

// ShouldEscalate reports whether the message needs human handling.
func (c Classification) ShouldEscalate() bool {
	return c.EscalationType != domain.EscalationNone || c.Priority == domain.PriorityCritical
}

// tier is one row of the ordered keyword table. Tiers are evaluated top
// down and the first match wins; there is no scoring or blending.
type tier struct {
	priority   domain.Priority
	escalation domain.EscalationType
	keywords   []string
}

var tiers = []tier{
	{
		priority:   domain.PriorityCritical,
		escalation: domain.EscalationEmergency,
		keywords: []string{
			"emergency", "fraud", "stolen", "hacked", "scam", "unauthorized",
			"security", "urgent", "immediately", "no network at all",
			"account blocked", "lost my phone",
		},
	},
	{
		priority:   domain.PriorityHigh,
		escalation: domain.EscalationComplaint,
		keywords: []string{
			"complaint", "problem", "broken", "failed", "failure", "not working",
			"error", "refund", "charged twice", "overcharged", "terrible",
			"disappointed", "angry",
		},
	},
	{
		priority:   domain.PriorityMedium,
		escalation: domain.EscalationNone,
		keywords: []string{
			"help", "support", "question", "how do i", "how to", "assist",
			"clarify", "explain",
		},
	},
}

// Classifier classifies messages against the tier table. It is stateless
// and safe for concurrent use.
type Classifier struct{}

// NewClassifier returns a classifier over the built-in tiers.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the highest matching tier for the message, defaulting
// to low priority with no escalation. Matching is case-insensitive
// substring matching.
func (c *Classifier) Classify(message string) Classification {
	m := strings.ToLower(message)
	for _, t := range tiers {
		for _, kw := range t.keywords {
			if strings.Contains(m, kw) {
				return Classification{Priority: t.priority, EscalationType: t.escalation}
			}
		}
	}
	return Classification{Priority: domain.PriorityLow, EscalationType: domain.EscalationNone}
}

// Package domain defines the core models for the support triage core.
package domain

// Language identifies a detected or suggested response language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageLuganda Language = "lg"
	LanguageSwahili Language = "sw"
	LanguageMixed   Language = "mixed"
)

// Priority is the urgency tier assigned to a message or approval request.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities for sorting and comparison. Higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// MaxPriority returns the more urgent of two priorities.
func MaxPriority(a, b Priority) Priority {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// EscalationType classifies a message as requiring human handling.
type EscalationType string

const (
	EscalationNone      EscalationType = "none"
	EscalationComplaint EscalationType = "complaint"
	EscalationEmergency EscalationType = "emergency"
)

// ApprovalStatus is the state of an approval request.
//
// Transitions are pending -> approved or pending -> rejected only.
// auto_approved is assigned at creation and is terminal.
type ApprovalStatus string

const (
	ApprovalStatusPending      ApprovalStatus = "pending"
	ApprovalStatusApproved     ApprovalStatus = "approved"
	ApprovalStatusRejected     ApprovalStatus = "rejected"
	ApprovalStatusAutoApproved ApprovalStatus = "auto_approved"
)

// MessageType identifies the author of a conversation message.
type MessageType string

const (
	MessageTypeUser   MessageType = "user"
	MessageTypeBot    MessageType = "bot"
	MessageTypeSystem MessageType = "system"
)

// ConversationStatus is the state of a per-session conversation ledger.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
	ConversationEscalated ConversationStatus = "escalated"
)

// EventType is the category of a realtime event.
type EventType string

const (
	EventTypeComplaint    EventType = "complaint"
	EventTypeSolution     EventType = "solution"
	EventTypeEscalation   EventType = "escalation"
	EventTypeStatusUpdate EventType = "status_update"
	EventTypeVoiceCall    EventType = "voice_call"
)

// Business type buckets recognized by the conversation heuristic.
const (
	BusinessTypeGeneral   = "general"
	BusinessTypeTelecom   = "telecom"
	BusinessTypeBanking   = "banking"
	BusinessTypeUtilities = "utilities"
	BusinessTypeEcommerce = "ecommerce"
)

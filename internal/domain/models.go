package domain

import (
	"encoding/json"
	"time"
)

// ApprovalRequest is a suggested reply waiting for a human decision.
//
// JSON field names are camelCase: the admin dashboard consumes these
// objects directly over the wire.
type ApprovalRequest struct {
	ID                 string         `json:"id"`
	SessionID          string         `json:"sessionId"`
	UserID             string         `json:"userId"`
	UserMessage        string         `json:"userMessage"`
	SuggestedResponse  string         `json:"suggestedResponse"`
	SuggestedAction    string         `json:"suggestedAction"`
	Priority           Priority       `json:"priority"`
	BusinessType       string         `json:"businessType"`
	Language           Language       `json:"language"`
	Timestamp          time.Time      `json:"timestamp"`
	Status             ApprovalStatus `json:"status"`
	AdminID            string         `json:"adminId,omitempty"`
	AdminResponse      string         `json:"adminResponse,omitempty"`
	AutoApprovalReason string         `json:"autoApprovalReason,omitempty"`
}

// ApprovalStats aggregates counts over all requests seen by the workflow.
type ApprovalStats struct {
	Total            int     `json:"total"`
	Pending          int     `json:"pending"`
	Approved         int     `json:"approved"`
	Rejected         int     `json:"rejected"`
	AutoApproved     int     `json:"autoApproved"`
	AutoApprovalRate float64 `json:"autoApprovalRate"`
	ApprovalRate     float64 `json:"approvalRate"`
}

// ConversationMessage is a single entry in a session ledger. Messages are
// immutable once appended.
type ConversationMessage struct {
	ID               string         `json:"id"`
	Type             MessageType    `json:"type"`
	Content          string         `json:"content"`
	Timestamp        time.Time      `json:"timestamp"`
	Language         Language       `json:"language,omitempty"`
	RequiresApproval bool           `json:"requiresApproval,omitempty"`
	ApprovalStatus   ApprovalStatus `json:"approvalStatus,omitempty"`
}

// Conversation is the append-only ledger for one session.
type Conversation struct {
	SessionID    string                `json:"sessionId"`
	UserID       string                `json:"userId"`
	Messages     []ConversationMessage `json:"messages"`
	BusinessType string                `json:"businessType"`
	Status       ConversationStatus    `json:"status"`
	StartTime    time.Time             `json:"startTime"`
	LastActivity time.Time             `json:"lastActivity"`
}

// RealtimeEvent is a single broadcast on the event bus. Immutable once
// constructed. The JSON shape is the SSE wire format consumed by
// dashboards and customer streams.
type RealtimeEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	UserID    string          `json:"userId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Priority  Priority        `json:"priority"`
}

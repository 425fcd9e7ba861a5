// Package service implements the approval workflow state machine, the
// per-session conversation ledger and the inbound triage pipeline.
package service

import (
	"sync"

	"github.com/dmulondo/sema-core/internal/domain"
	"github.com/dmulondo/sema-core/internal/language"
	"github.com/dmulondo/sema-core/internal/policy"
	"github.com/dmulondo/sema-core/internal/realtime"
	"github.com/dmulondo/sema-core/internal/store"
	"github.com/dmulondo/sema-core/internal/triage"
)

// Service owns the in-memory request and conversation tables. It is the
// single writer over both; all mutation happens under its mutex. State
// is not durable: a restart loses pending approvals and ledgers (the
// archive store keeps copies for reporting only).
type Service struct {
	mu            sync.Mutex
	requests      map[string]*domain.ApprovalRequest
	conversations map[string]*domain.Conversation

	detector   *language.Detector
	classifier *triage.Classifier
	policy     *policy.Engine
	hub        *realtime.Hub
	archive    store.Store
}

// New wires the service. archive may be nil when persistence is not
// configured.
func New(detector *language.Detector, classifier *triage.Classifier, policyEngine *policy.Engine, hub *realtime.Hub, archive store.Store) *Service {
	return &Service{
		requests:      make(map[string]*domain.ApprovalRequest),
		conversations: make(map[string]*domain.Conversation),
		detector:      detector,
		classifier:    classifier,
		policy:        policyEngine,
		hub:           hub,
		archive:       archive,
	}
}

// Detector exposes the language detector for boundary handlers.
func (s *Service) Detector() *language.Detector {
	return s.detector
}

// Classifier exposes the triage classifier for boundary handlers.
func (s *Service) Classifier() *triage.Classifier {
	return s.classifier
}

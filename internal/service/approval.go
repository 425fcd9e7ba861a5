package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmulondo/sema-core/internal/domain"
)

// CreateRequestInput carries the fields needed to open an approval
// request. SuggestedResponse is produced by an external generation
// component and is opaque here.
type CreateRequestInput struct {
	SessionID         string `json:"session_id"`
	UserID            string `json:"user_id"`
	UserMessage       string `json:"user_message"`
	SuggestedResponse string `json:"suggested_response"`
	SuggestedAction   string `json:"suggested_action"`
	BusinessType      string `json:"business_type"`
	Language          string `json:"language"`
}

// autoApprovalRule is one entry of the ordered rule list. Rules are
// evaluated front to back and the first match resolves the request
// without human review.
type autoApprovalRule struct {
	name    string
	reason  string
	matches func(req *domain.ApprovalRequest) bool
}

var greetingKeywords = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"greetings", "oli otya", "nkulamuse", "jambo", "habari", "hujambo",
}

var basicInfoKeywords = []string{
	"balance", "hours", "location", "address", "price", "cost", "rate", "info",
}

var acknowledgmentKeywords = []string{
	"thank", "thanks", "ok", "okay", "got it", "asante", "webale", "kale",
}

var autoApprovalRules = []autoApprovalRule{
	{
		name:   "greeting",
		reason: "greeting message, standard welcome response",
		matches: func(req *domain.ApprovalRequest) bool {
			return containsKeyword(req.UserMessage, greetingKeywords)
		},
	},
	{
		name:   "basic_info",
		reason: "basic information request at low priority",
		matches: func(req *domain.ApprovalRequest) bool {
			return req.Priority == domain.PriorityLow && containsKeyword(req.UserMessage, basicInfoKeywords)
		},
	},
	{
		name:   "faq",
		reason: "suggested action references the FAQ",
		matches: func(req *domain.ApprovalRequest) bool {
			return req.Priority != domain.PriorityCritical &&
				strings.Contains(strings.ToLower(req.SuggestedAction), "faq")
		},
	},
	{
		name:   "acknowledgment",
		reason: "customer acknowledgment, no action needed",
		matches: func(req *domain.ApprovalRequest) bool {
			return containsKeyword(req.UserMessage, acknowledgmentKeywords)
		},
	},
}

// containsKeyword matches single-word keywords against whole tokens and
// multi-word keywords as substrings, so "ok" never fires inside
// "broken".
func containsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	var tokens map[string]struct{}
	for _, kw := range keywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if tokens == nil {
			tokens = make(map[string]struct{})
			for _, t := range strings.FieldsFunc(lower, func(r rune) bool {
				return r < 'a' || r > 'z'
			}) {
				tokens[t] = struct{}{}
			}
		}
		if _, ok := tokens[kw]; ok {
			return true
		}
	}
	return false
}

// CreateRequest opens an approval request for a suggested reply.
// Priority is the max of the tiers matched by the user message and the
// suggested action. The ordered auto-approval rules run synchronously at
// creation; a critical-priority request is never auto-approved.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.ApprovalRequest, error) {
	if in.SessionID == "" || in.UserID == "" || in.UserMessage == "" || in.SuggestedResponse == "" {
		return nil, fmt.Errorf("session_id, user_id, user_message and suggested_response are required")
	}

	priority := domain.MaxPriority(
		s.classifier.Classify(in.UserMessage).Priority,
		s.classifier.Classify(in.SuggestedAction).Priority,
	)

	businessType := in.BusinessType
	if businessType == "" {
		businessType = domain.BusinessTypeGeneral
	}
	lang := domain.Language(in.Language)
	if lang == "" {
		lang = s.detector.Detect(in.UserMessage).PrimaryLanguage
	}

	req := &domain.ApprovalRequest{
		ID:                NewRequestID(),
		SessionID:         in.SessionID,
		UserID:            in.UserID,
		UserMessage:       in.UserMessage,
		SuggestedResponse: in.SuggestedResponse,
		SuggestedAction:   in.SuggestedAction,
		Priority:          priority,
		BusinessType:      businessType,
		Language:          lang,
		Timestamp:         time.Now().UTC(),
		Status:            domain.ApprovalStatusPending,
	}

	if priority != domain.PriorityCritical {
		for _, rule := range autoApprovalRules {
			if rule.matches(req) {
				req.Status = domain.ApprovalStatusAutoApproved
				req.AutoApprovalReason = fmt.Sprintf("%s: %s", rule.name, rule.reason)
				break
			}
		}
	}

	s.mu.Lock()
	s.requests[req.ID] = req
	s.mu.Unlock()

	s.Append(req.SessionID, req.UserID, req.UserMessage, domain.MessageTypeUser, AppendOptions{
		Language:         lang,
		RequiresApproval: true,
		ApprovalStatus:   req.Status,
	})

	s.archiveApproval(ctx, req)

	s.hub.SendStatusUpdate(req.UserID, req.SessionID, req.Priority, map[string]any{
		"requestId": req.ID,
		"status":    req.Status,
		"priority":  req.Priority,
	})
	if req.Priority == domain.PriorityCritical {
		s.hub.SendEscalationAlert(req.UserID, req.SessionID, map[string]any{
			"requestId": req.ID,
			"message":   req.UserMessage,
		})
	}

	out := *req
	return &out, nil
}

// Approve resolves a pending request. Returns false, with no other
// effect, when the request is unknown or no longer pending.
func (s *Service) Approve(ctx context.Context, requestID, adminID, adminResponse string) bool {
	s.mu.Lock()
	req, ok := s.requests[requestID]
	if !ok || req.Status != domain.ApprovalStatusPending {
		s.mu.Unlock()
		return false
	}
	req.Status = domain.ApprovalStatusApproved
	req.AdminID = adminID
	req.AdminResponse = adminResponse
	snapshot := *req
	s.mu.Unlock()

	response := snapshot.AdminResponse
	if response == "" {
		response = snapshot.SuggestedResponse
	}

	s.Append(snapshot.SessionID, snapshot.UserID, response, domain.MessageTypeBot, AppendOptions{
		Language:       snapshot.Language,
		ApprovalStatus: domain.ApprovalStatusApproved,
	})

	s.archiveApproval(ctx, &snapshot)

	s.hub.SendStatusUpdate(snapshot.UserID, snapshot.SessionID, snapshot.Priority, map[string]any{
		"requestId": snapshot.ID,
		"status":    domain.ApprovalStatusApproved,
		"adminId":   adminID,
	})
	s.hub.SendSolutionNotification(snapshot.UserID, snapshot.SessionID, map[string]any{
		"requestId": snapshot.ID,
		"response":  response,
	})

	return true
}

// Reject resolves a pending request negatively. Same preconditions as
// Approve.
func (s *Service) Reject(ctx context.Context, requestID, adminID, reason string) bool {
	s.mu.Lock()
	req, ok := s.requests[requestID]
	if !ok || req.Status != domain.ApprovalStatusPending {
		s.mu.Unlock()
		return false
	}
	req.Status = domain.ApprovalStatusRejected
	req.AdminID = adminID
	req.AdminResponse = reason
	snapshot := *req
	s.mu.Unlock()

	s.Append(snapshot.SessionID, snapshot.UserID,
		fmt.Sprintf("Suggested response rejected: %s", reason),
		domain.MessageTypeSystem, AppendOptions{
			ApprovalStatus: domain.ApprovalStatusRejected,
		})

	s.archiveApproval(ctx, &snapshot)

	s.hub.SendStatusUpdate(snapshot.UserID, snapshot.SessionID, snapshot.Priority, map[string]any{
		"requestId": snapshot.ID,
		"status":    domain.ApprovalStatusRejected,
		"adminId":   adminID,
		"reason":    reason,
	})

	return true
}

// GetRequest returns a copy of a request by id.
func (s *Service) GetRequest(requestID string) (*domain.ApprovalRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, false
	}
	out := *req
	return &out, true
}

// ListPending returns pending requests sorted by priority descending,
// ties broken by most recent first.
func (s *Service) ListPending() []domain.ApprovalRequest {
	s.mu.Lock()
	out := make([]domain.ApprovalRequest, 0)
	for _, req := range s.requests {
		if req.Status == domain.ApprovalStatusPending {
			out = append(out, *req)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Stats aggregates counts over all requests seen by this process.
func (s *Service) Stats() domain.ApprovalStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.ApprovalStats
	for _, req := range s.requests {
		stats.Total++
		switch req.Status {
		case domain.ApprovalStatusPending:
			stats.Pending++
		case domain.ApprovalStatusApproved:
			stats.Approved++
		case domain.ApprovalStatusRejected:
			stats.Rejected++
		case domain.ApprovalStatusAutoApproved:
			stats.AutoApproved++
		}
	}
	if stats.Total > 0 {
		stats.AutoApprovalRate = float64(stats.AutoApproved) / float64(stats.Total)
		stats.ApprovalRate = float64(stats.Approved+stats.AutoApproved) / float64(stats.Total)
	}
	return stats
}

func (s *Service) archiveApproval(ctx context.Context, req *domain.ApprovalRequest) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveApproval(ctx, req); err != nil {
		log.Printf("ERROR: failed to archive approval %s: %v", req.ID, err)
	}
}

// NewRequestID mints a request id from the timestamp plus a random
// suffix.
func NewRequestID() string {
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

package service

import (
	"context"
	"fmt"

	"github.com/dmulondo/sema-core/internal/domain"
	"github.com/dmulondo/sema-core/internal/language"
	"github.com/dmulondo/sema-core/internal/policy"
	"github.com/dmulondo/sema-core/internal/triage"
)

// InboundMessage is one customer message entering the triage pipeline,
// together with the reply the generation component suggests for it.
type InboundMessage struct {
	SessionID         string `json:"session_id"`
	UserID            string `json:"user_id"`
	Text              string `json:"text"`
	SuggestedResponse string `json:"suggested_response"`
	SuggestedAction   string `json:"suggested_action"`
	BusinessType      string `json:"business_type"`
}

// InboundResult reports what the pipeline did with a message.
type InboundResult struct {
	Detection        language.Detection      `json:"detection"`
	Classification   triage.Classification   `json:"classification"`
	RequiresApproval bool                    `json:"requiresApproval"`
	Request          *domain.ApprovalRequest `json:"request,omitempty"`
	Reply            string                  `json:"reply,omitempty"`
}

// HandleInbound runs the full triage flow: detect language, classify
// urgency, consult the approval policy, then either open an approval
// request or answer directly.
func (s *Service) HandleInbound(ctx context.Context, in InboundMessage) (*InboundResult, error) {
	if in.SessionID == "" || in.UserID == "" || in.Text == "" {
		return nil, fmt.Errorf("session_id, user_id and text are required")
	}

	detection := s.detector.Detect(in.Text)
	classification := s.classifier.Classify(in.Text)

	decision, err := s.policy.Evaluate(ctx, map[string]any{
		"priority":        string(classification.Priority),
		"escalation_type": string(classification.EscalationType),
		"business_type":   in.BusinessType,
	})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	result := &InboundResult{
		Detection:      detection,
		Classification: classification,
	}

	if decision == policy.DecisionRequireApproval {
		req, err := s.CreateRequest(ctx, CreateRequestInput{
			SessionID:         in.SessionID,
			UserID:            in.UserID,
			UserMessage:       in.Text,
			SuggestedResponse: in.SuggestedResponse,
			SuggestedAction:   in.SuggestedAction,
			BusinessType:      in.BusinessType,
			Language:          string(detection.PrimaryLanguage),
		})
		if err != nil {
			return nil, err
		}
		result.RequiresApproval = true
		result.Request = req
		if req.Status == domain.ApprovalStatusAutoApproved {
			// The rule engine already cleared the reply.
			result.Reply = in.SuggestedResponse
		}
		return result, nil
	}

	s.Append(in.SessionID, in.UserID, in.Text, domain.MessageTypeUser, AppendOptions{
		Language: detection.PrimaryLanguage,
	})
	s.Append(in.SessionID, in.UserID, in.SuggestedResponse, domain.MessageTypeBot, AppendOptions{
		Language: detection.SuggestedResponse,
	})
	s.hub.SendSolutionNotification(in.UserID, in.SessionID, map[string]any{
		"sessionId": in.SessionID,
		"response":  in.SuggestedResponse,
	})

	result.Reply = in.SuggestedResponse
	return result, nil
}

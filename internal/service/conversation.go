package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmulondo/sema-core/internal/domain"
)

// AppendOptions carries the optional fields of a ledger append.
type AppendOptions struct {
	Language         domain.Language
	RequiresApproval bool
	ApprovalStatus   domain.ApprovalStatus
}

// businessTypeBucket maps keyword evidence to a business type. Buckets
// are evaluated in order; the first hit wins for a given message.
type businessTypeBucket struct {
	businessType string
	keywords     []string
}

var businessTypeBuckets = []businessTypeBucket{
	{domain.BusinessTypeTelecom, []string{
		"airtime", "data bundle", "bundle", "network", "sim", "ssimu", "simu", "call", "mtandao",
	}},
	{domain.BusinessTypeBanking, []string{
		"bank", "account", "loan", "deposit", "withdraw", "mobile money", "sente", "pesa", "akawunti", "akaunti",
	}},
	{domain.BusinessTypeUtilities, []string{
		"power", "electricity", "water", "umeme", "yaka", "token", "meter",
	}},
	{domain.BusinessTypeEcommerce, []string{
		"order", "oda", "delivery", "package", "shipping", "parcel", "cart",
	}},
}

// classifyBusinessType returns the matched bucket or general.
func classifyBusinessType(content string) string {
	lower := strings.ToLower(content)
	for _, b := range businessTypeBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.businessType
			}
		}
	}
	return domain.BusinessTypeGeneral
}

// Append adds a message to the session ledger, creating the ledger
// lazily for an unseen session. The ledger is append-only; messages are
// never edited or removed. User-authored messages may reclassify the
// conversation's business type, overwriting only when a non-general
// type is detected.
func (s *Service) Append(sessionID, userID, content string, msgType domain.MessageType, opts AppendOptions) domain.ConversationMessage {
	now := time.Now().UTC()
	msg := domain.ConversationMessage{
		ID:               "msg_" + uuid.New().String()[:8],
		Type:             msgType,
		Content:          content,
		Timestamp:        now,
		Language:         opts.Language,
		RequiresApproval: opts.RequiresApproval,
		ApprovalStatus:   opts.ApprovalStatus,
	}

	s.mu.Lock()
	conv, ok := s.conversations[sessionID]
	if !ok {
		conv = &domain.Conversation{
			SessionID:    sessionID,
			UserID:       userID,
			BusinessType: domain.BusinessTypeGeneral,
			Status:       domain.ConversationActive,
			StartTime:    now,
		}
		s.conversations[sessionID] = conv
	}
	conv.Messages = append(conv.Messages, msg)
	conv.LastActivity = now
	if msgType == domain.MessageTypeUser {
		if bt := classifyBusinessType(content); bt != domain.BusinessTypeGeneral {
			conv.BusinessType = bt
		}
	}
	s.mu.Unlock()

	if s.archive != nil {
		if err := s.archive.SaveMessage(context.Background(), sessionID, userID, &msg); err != nil {
			log.Printf("ERROR: failed to archive message %s: %v", msg.ID, err)
		}
	}

	return msg
}

// GetConversation returns a snapshot of the session ledger, or false for
// an unseen session.
func (s *Service) GetConversation(sessionID string) (*domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[sessionID]
	if !ok {
		return nil, false
	}
	out := *conv
	out.Messages = append([]domain.ConversationMessage(nil), conv.Messages...)
	return &out, true
}

// ActiveConversations returns snapshots of every active ledger sorted by
// last activity, most recent first.
func (s *Service) ActiveConversations() []domain.Conversation {
	s.mu.Lock()
	out := make([]domain.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.Status != domain.ConversationActive {
			continue
		}
		c := *conv
		c.Messages = append([]domain.ConversationMessage(nil), conv.Messages...)
		out = append(out, c)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

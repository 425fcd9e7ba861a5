// Package store persists approval requests and conversation transcripts
// beyond the process lifetime. The in-memory tables stay authoritative
// for the live workflow; this archive serves audits and reporting.
package store

import (
	"context"

	"github.com/dmulondo/sema-core/internal/domain"
)

// Store is the archive interface.
type Store interface {
	// Approval archive
	SaveApproval(ctx context.Context, req *domain.ApprovalRequest) error
	GetApproval(ctx context.Context, id string) (*domain.ApprovalRequest, error)
	ListApprovals(ctx context.Context, status domain.ApprovalStatus, limit int) ([]domain.ApprovalRequest, error)

	// Conversation archive
	SaveMessage(ctx context.Context, sessionID, userID string, msg *domain.ConversationMessage) error
	GetSessionMessages(ctx context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error)

	// Lifecycle
	Close() error
}

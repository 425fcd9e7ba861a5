package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmulondo/sema-core/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleApproval(id string, ts time.Time) *domain.ApprovalRequest {
	return &domain.ApprovalRequest{
		ID:                id,
		SessionID:         "sess_1",
		UserID:            "user_1",
		UserMessage:       "I want a refund",
		SuggestedResponse: "We can process that for you.",
		Priority:          domain.PriorityHigh,
		BusinessType:      domain.BusinessTypeBanking,
		Language:          domain.LanguageEnglish,
		Status:            domain.ApprovalStatusPending,
		Timestamp:         ts,
	}
}

func TestApprovalRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req := sampleApproval("req_1", time.Now().UTC())
	require.NoError(t, s.SaveApproval(ctx, req))

	got, err := s.GetApproval(ctx, "req_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, req.SessionID, got.SessionID)
	assert.Equal(t, req.UserMessage, got.UserMessage)
	assert.Equal(t, req.Priority, got.Priority)
	assert.Equal(t, req.Status, got.Status)
	assert.WithinDuration(t, req.Timestamp, got.Timestamp, time.Second)
}

func TestGetApprovalMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetApproval(context.Background(), "req_missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveApprovalUpsertsOnResolution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req := sampleApproval("req_1", time.Now().UTC())
	require.NoError(t, s.SaveApproval(ctx, req))

	req.Status = domain.ApprovalStatusApproved
	req.AdminID = "admin_1"
	req.AdminResponse = "Refund approved."
	require.NoError(t, s.SaveApproval(ctx, req))

	got, err := s.GetApproval(ctx, "req_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ApprovalStatusApproved, got.Status)
	assert.Equal(t, "admin_1", got.AdminID)
	assert.Equal(t, "Refund approved.", got.AdminResponse)

	all, err := s.ListApprovals(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListApprovalsFilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"req_1", "req_2", "req_3"} {
		req := sampleApproval(id, base.Add(time.Duration(i)*time.Minute))
		if id == "req_2" {
			req.Status = domain.ApprovalStatusRejected
		}
		require.NoError(t, s.SaveApproval(ctx, req))
	}

	pending, err := s.ListApprovals(ctx, domain.ApprovalStatusPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "req_3", pending[0].ID)
	assert.Equal(t, "req_1", pending[1].ID)

	all, err := s.ListApprovals(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "req_3", all[0].ID)
}

func TestSessionTranscriptKeepsAppendOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	messages := []domain.ConversationMessage{
		{ID: "msg_1", Type: domain.MessageTypeUser, Content: "hello", Timestamp: base},
		{ID: "msg_2", Type: domain.MessageTypeBot, Content: "hi, how can we help", Timestamp: base.Add(time.Second)},
		{ID: "msg_3", Type: domain.MessageTypeUser, Content: "my order is late", Timestamp: base.Add(2 * time.Second)},
	}
	for i := range messages {
		require.NoError(t, s.SaveMessage(ctx, "sess_1", "user_1", &messages[i]))
	}
	other := domain.ConversationMessage{ID: "msg_other", Type: domain.MessageTypeUser, Content: "different session", Timestamp: base}
	require.NoError(t, s.SaveMessage(ctx, "sess_2", "user_2", &other))

	got, err := s.GetSessionMessages(ctx, "sess_1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, msg := range got {
		assert.Equal(t, messages[i].ID, msg.ID)
		assert.Equal(t, messages[i].Content, msg.Content)
		assert.Equal(t, messages[i].Type, msg.Type)
	}
}

func TestSaveMessageFlags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := domain.ConversationMessage{
		ID:               "msg_1",
		Type:             domain.MessageTypeUser,
		Content:          "I want a refund",
		Language:         domain.LanguageEnglish,
		RequiresApproval: true,
		ApprovalStatus:   domain.ApprovalStatusPending,
		Timestamp:        time.Now().UTC(),
	}
	require.NoError(t, s.SaveMessage(ctx, "sess_1", "user_1", &msg))

	got, err := s.GetSessionMessages(ctx, "sess_1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].RequiresApproval)
	assert.Equal(t, domain.ApprovalStatusPending, got[0].ApprovalStatus)
	assert.Equal(t, domain.LanguageEnglish, got[0].Language)
}

package realtime

import (
	"encoding/json"
	"log"

	"github.com/dmulondo/sema-core/internal/domain"
)

// Convenience emitters: thin constructors over Broadcast for the event
// shapes the rest of the platform sends.

// SendComplaintUpdate broadcasts a complaint progress update to the
// affected user and the dashboards.
func (h *Hub) SendComplaintUpdate(userID, sessionID string, data any) {
	h.emit(domain.EventTypeComplaint, domain.PriorityHigh, userID, sessionID, data)
}

// SendSolutionNotification broadcasts an approved or generated reply.
func (h *Hub) SendSolutionNotification(userID, sessionID string, data any) {
	h.emit(domain.EventTypeSolution, domain.PriorityMedium, userID, sessionID, data)
}

// SendEscalationAlert broadcasts a critical escalation. Critical events
// reach every live connection regardless of filters.
func (h *Hub) SendEscalationAlert(userID, sessionID string, data any) {
	h.emit(domain.EventTypeEscalation, domain.PriorityCritical, userID, sessionID, data)
}

// SendVoiceCallEvent broadcasts a voice-call lifecycle notification.
func (h *Hub) SendVoiceCallEvent(userID, sessionID string, data any) {
	h.emit(domain.EventTypeVoiceCall, domain.PriorityHigh, userID, sessionID, data)
}

// SendStatusUpdate broadcasts a state change on an approval request or
// conversation.
func (h *Hub) SendStatusUpdate(userID, sessionID string, priority domain.Priority, data any) {
	h.emit(domain.EventTypeStatusUpdate, priority, userID, sessionID, data)
}

func (h *Hub) emit(eventType domain.EventType, priority domain.Priority, userID, sessionID string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("ERROR: failed to marshal %s event data: %v", eventType, err)
		return
	}
	h.Broadcast(domain.RealtimeEvent{
		Type:      eventType,
		Data:      payload,
		UserID:    userID,
		SessionID: sessionID,
		Priority:  priority,
	})
}

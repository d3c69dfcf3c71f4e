package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// handlerTimeout bounds the storage lookups performed while handling an
// inbound event.
const handlerTimeout = 5 * time.Second

// HandleMessage dispatches one inbound envelope from a connection.
// Handlers that touch tenant resources verify ownership before any
// broadcast; a payload that fails validation yields an error event, not
// a disconnect, since the peer is already authenticated.
func (h *Hub) HandleMessage(conn *Connection, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(conn, "invalid message format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch env.Event {
	case EventJobStatusUpdate:
		h.handleJobStatusUpdate(ctx, conn, env.Data)
	case EventTeamLocationUpdate:
		h.handleLocationUpdate(conn, env.Data)
	case EventChatMessage:
		h.handleChatMessage(ctx, conn, env.Data)
	case EventCustomerMessage:
		h.handleCustomerMessage(ctx, conn, env.Data)
	case EventRoomJoin:
		h.handleRoomJoin(ctx, conn, env.Data)
	case EventRoomLeave:
		h.handleRoomLeave(conn, env.Data)
	case EventPresenceTyping:
		h.handleTyping(conn, env.Data)
	default:
		h.sendError(conn, "unknown event: "+env.Event)
	}
}

func (h *Hub) handleJobStatusUpdate(ctx context.Context, conn *Connection, data json.RawMessage) {
	var p JobStatusUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.Status == "" {
		h.sendError(conn, "invalid job status update")
		return
	}

	ok, err := h.resources.JobInTenant(ctx, p.JobID, conn.TenantID)
	if err != nil {
		h.logger.Error("Failed to validate job for status update",
			slog.String("job_id", p.JobID),
			slog.Any("error", err),
		)
		h.sendError(conn, "failed to validate job")
		return
	}
	if !ok {
		h.sendError(conn, "job not found")
		return
	}

	h.ToTenant(conn.TenantID, EventJobStatusChanged, map[string]any{
		"jobId":     p.JobID,
		"status":    p.Status,
		"location":  p.Location,
		"updatedBy": conn.UserID,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Hub) handleLocationUpdate(conn *Connection, data json.RawMessage) {
	var p LocationUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(conn, "invalid location update")
		return
	}

	h.broadcastToTenant(conn.TenantID, EventTeamLocationChanged, map[string]any{
		"userId":    conn.UserID,
		"lat":       p.Lat,
		"lng":       p.Lng,
		"accuracy":  p.Accuracy,
		"timestamp": time.Now().UTC(),
	}, conn.ID)
}

func (h *Hub) handleChatMessage(ctx context.Context, conn *Connection, data json.RawMessage) {
	var p ChatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.SessionID == "" {
		h.sendError(conn, "invalid chat message")
		return
	}

	ok, err := h.resources.ChatSessionInTenant(ctx, p.SessionID, conn.TenantID)
	if err != nil {
		h.logger.Error("Failed to validate chat session",
			slog.String("session_id", p.SessionID),
			slog.Any("error", err),
		)
		h.sendError(conn, "failed to validate chat session")
		return
	}
	if !ok {
		h.sendError(conn, "chat session not found")
		return
	}

	h.ToRoom(ChatRoom(p.SessionID), EventChatNewMessage, map[string]any{
		"sessionId": p.SessionID,
		"message":   p.Message,
		"type":      p.Type,
		"senderId":  conn.UserID,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Hub) handleCustomerMessage(ctx context.Context, conn *Connection, data json.RawMessage) {
	var p CustomerMessagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.CustomerID == "" {
		h.sendError(conn, "invalid customer message")
		return
	}

	ok, err := h.resources.CustomerInTenant(ctx, p.CustomerID, conn.TenantID)
	if err != nil {
		h.logger.Error("Failed to validate customer",
			slog.String("customer_id", p.CustomerID),
			slog.Any("error", err),
		)
		h.sendError(conn, "failed to validate customer")
		return
	}
	if !ok {
		h.sendError(conn, "customer not found")
		return
	}

	payload := map[string]any{
		"customerId": p.CustomerID,
		"jobId":      p.JobID,
		"message":    p.Message,
		"senderId":   conn.UserID,
		"timestamp":  time.Now().UTC(),
	}
	h.ToRole(conn.TenantID, "owner", EventCustomerNewMessage, payload)
	h.ToRole(conn.TenantID, "admin", EventCustomerNewMessage, payload)

	// Persisted notification fan-out is best-effort and never blocks
	// the broadcast.
	if h.notifier != nil {
		if err := h.notifier.NotifyCustomerMessage(ctx, conn.TenantID, p.CustomerID, p.JobID); err != nil {
			h.logger.Error("Failed to dispatch customer message notifications",
				slog.String("customer_id", p.CustomerID),
				slog.Any("error", err),
			)
		}
	}
}

func (h *Hub) handleRoomJoin(ctx context.Context, conn *Connection, data json.RawMessage) {
	var p RoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		h.sendError(conn, "invalid room")
		return
	}

	if !h.CanJoinRoom(ctx, conn, p.Room) {
		h.sendError(conn, "cannot join room")
		return
	}

	conn.joinRoom(p.Room)
	h.sendTo(conn, EventRoomJoined, map[string]string{"room": p.Room})
}

func (h *Hub) handleRoomLeave(conn *Connection, data json.RawMessage) {
	var p RoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		h.sendError(conn, "invalid room")
		return
	}

	conn.leaveRoom(p.Room)
	h.sendTo(conn, EventRoomLeft, map[string]string{"room": p.Room})
}

func (h *Hub) handleTyping(conn *Connection, data json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		h.sendError(conn, "invalid typing payload")
		return
	}

	if !conn.inRoom(p.Room) {
		h.sendError(conn, "not a member of room")
		return
	}

	h.broadcastToRoom(p.Room, EventPresenceUserTyping, map[string]any{
		"room":     p.Room,
		"userId":   conn.UserID,
		"isTyping": p.IsTyping,
	}, conn.ID)
}

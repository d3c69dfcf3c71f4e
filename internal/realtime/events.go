package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Events received from clients.
const (
	EventJobStatusUpdate    = "job:status_update"
	EventTeamLocationUpdate = "team:location_update"
	EventChatMessage        = "chat:message"
	EventCustomerMessage    = "customer:message"
	EventRoomJoin           = "room:join"
	EventRoomLeave          = "room:leave"
	EventPresenceTyping     = "presence:typing"
)

// Events emitted to clients.
const (
	EventConnectionConfirmed = "connection:confirmed"
	EventUserOnline          = "user:online"
	EventUserOffline         = "user:offline"
	EventJobStatusChanged    = "job:status_changed"
	EventTeamLocationChanged = "team:location_changed"
	EventChatNewMessage      = "chat:new_message"
	EventCustomerNewMessage  = "customer:new_message"
	EventNotificationNew     = "notification:new"
	EventRoomJoined          = "room:joined"
	EventRoomLeft            = "room:left"
	EventPresenceUserTyping  = "presence:user_typing"
	EventError               = "error"
)

// Envelope is the wire format for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads.

type JobStatusUpdatePayload struct {
	JobID    string          `json:"jobId"`
	Status   string          `json:"status"`
	Location json.RawMessage `json:"location,omitempty"`
}

type LocationUpdatePayload struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

type ChatMessagePayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}

type CustomerMessagePayload struct {
	CustomerID string `json:"customerId"`
	JobID      string `json:"jobId,omitempty"`
	Message    string `json:"message"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type TypingPayload struct {
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

// Room name constructors. Rooms are logical multicast groups, never
// persisted; membership is derived from live connections plus explicit
// joins.

func TenantRoom(tenantID string) string {
	return "tenant:" + tenantID
}

func UserRoom(userID string) string {
	return "user:" + userID
}

func RoleRoom(tenantID, role string) string {
	return fmt.Sprintf("tenant:%s/role:%s", tenantID, role)
}

func JobRoom(jobID string) string {
	return "job:" + jobID
}

func ChatRoom(sessionID string) string {
	return "chat:" + sessionID
}

// RoomKind identifies the category a room name belongs to.
type RoomKind int

const (
	RoomKindUnknown RoomKind = iota
	RoomKindTenant
	RoomKindUser
	RoomKindRole
	RoomKindJob
	RoomKindChat
)

// ParseRoom splits a room name into its kind and resource identifier.
// For role rooms the identifier is "tenantID/role".
func ParseRoom(room string) (RoomKind, string) {
	switch {
	case strings.HasPrefix(room, "tenant:") && strings.Contains(room, "/role:"):
		rest := strings.TrimPrefix(room, "tenant:")
		return RoomKindRole, strings.Replace(rest, "/role:", "/", 1)
	case strings.HasPrefix(room, "tenant:"):
		return RoomKindTenant, strings.TrimPrefix(room, "tenant:")
	case strings.HasPrefix(room, "user:"):
		return RoomKindUser, strings.TrimPrefix(room, "user:")
	case strings.HasPrefix(room, "job:"):
		return RoomKindJob, strings.TrimPrefix(room, "job:")
	case strings.HasPrefix(room, "chat:"):
		return RoomKindChat, strings.TrimPrefix(room, "chat:")
	default:
		return RoomKindUnknown, ""
	}
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
		}
		data = b
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

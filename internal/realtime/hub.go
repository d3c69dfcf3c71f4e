package realtime

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ResourceChecker answers tenant-ownership questions for resource rooms
// and inbound domain events. Implemented by the API storage layer.
type ResourceChecker interface {
	JobInTenant(ctx context.Context, jobID, tenantID string) (bool, error)
	CustomerInTenant(ctx context.Context, customerID, tenantID string) (bool, error)
	ChatSessionInTenant(ctx context.Context, sessionID, tenantID string) (bool, error)
}

// Notifier persists and fans out customer-message notifications. It is
// set after construction because the notification dispatcher itself
// delivers through the hub.
type Notifier interface {
	NotifyCustomerMessage(ctx context.Context, tenantID, customerID, jobID string) error
}

// HubConfig holds the hub's socket-level settings.
type HubConfig struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// withDefaults fills unset fields with sensible defaults.
func (c HubConfig) withDefaults() HubConfig {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.PingInterval <= 0 {
		// Must be shorter than PongTimeout so pings keep the read
		// deadline alive.
		c.PingInterval = (c.PongTimeout * 9) / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = 64
	}
	return c
}

// Hub authenticates live connections, tracks presence, partitions
// traffic into tenant/user/role rooms and fans out events. Tenant
// isolation is absolute: no broadcast primitive crosses tenant
// boundaries.
type Hub struct {
	registry  Registry
	resources ResourceChecker
	notifier  Notifier
	logger    *slog.Logger
	cfg       HubConfig
}

// NewHub creates a hub over the given registry.
func NewHub(registry Registry, resources ResourceChecker, logger *slog.Logger, cfg HubConfig) *Hub {
	return &Hub{
		registry:  registry,
		resources: resources,
		logger:    logger,
		cfg:       cfg.withDefaults(),
	}
}

// SetNotifier wires the notification dispatcher in after construction.
func (h *Hub) SetNotifier(n Notifier) {
	h.notifier = n
}

// Config returns the effective hub configuration.
func (h *Hub) Config() HubConfig {
	return h.cfg
}

// Register adds an authenticated connection, auto-joins its tenant,
// user and role rooms, announces presence to the tenant (excluding the
// new arrival) and acknowledges the connection to the caller.
// Registration and the presence broadcast are not atomic with respect
// to other connections; presence is best-effort.
func (h *Hub) Register(conn *Connection) {
	h.registry.Add(conn)

	conn.joinRoom(TenantRoom(conn.TenantID))
	conn.joinRoom(UserRoom(conn.UserID))
	conn.joinRoom(RoleRoom(conn.TenantID, conn.Role))

	h.broadcastToTenant(conn.TenantID, EventUserOnline, map[string]any{
		"userId": conn.UserID,
		"role":   conn.Role,
	}, conn.ID)

	h.sendTo(conn, EventConnectionConfirmed, map[string]any{
		"connectionId": conn.ID,
		"userId":       conn.UserID,
		"tenantId":     conn.TenantID,
		"role":         conn.Role,
		"rooms":        conn.Rooms(),
		"timestamp":    time.Now().UTC(),
	})

	h.logger.Info("Realtime connection registered",
		slog.String("connection_id", conn.ID),
		slog.String("user_id", conn.UserID),
		slog.String("tenant_id", conn.TenantID),
		slog.String("role", conn.Role),
	)
}

// Unregister removes a connection and announces the departure to the
// tenant. Disconnects are immediate and unilateral; nothing in flight
// is retried.
func (h *Hub) Unregister(conn *Connection) {
	h.registry.Remove(conn.ID)

	h.broadcastToTenant(conn.TenantID, EventUserOffline, map[string]any{
		"userId": conn.UserID,
	}, conn.ID)

	h.logger.Info("Realtime connection closed",
		slog.String("connection_id", conn.ID),
		slog.String("user_id", conn.UserID),
	)
}

// Start runs the read and write pumps for an upgraded connection.
func (h *Hub) Start(conn *Connection) {
	go conn.writePump(h)
	go conn.readPump(h)
}

// OnlineUsers returns the distinct user ids currently connected within
// a tenant.
func (h *Hub) OnlineUsers(tenantID string) []string {
	return h.registry.OnlineUsers(tenantID)
}

// IsUserOnline reports live presence for one user.
func (h *Hub) IsUserOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

// ToUser delivers an event to every live connection of one user.
func (h *Hub) ToUser(userID, event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	for _, conn := range h.registry.ByUser(userID) {
		h.deliver(conn, event, frame)
	}
}

// ToTenant delivers an event to every live connection of a tenant.
func (h *Hub) ToTenant(tenantID, event string, payload any) {
	h.broadcastToTenant(tenantID, event, payload, "")
}

// ToRole delivers an event to every live connection of a tenant holding
// the given role. Role rooms only ever contain currently-connected
// members, so this is an explicit scan-and-filter rather than a room
// multicast.
func (h *Hub) ToRole(tenantID, role, event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	for _, conn := range h.registry.ByTenant(tenantID) {
		if conn.Role == role {
			h.deliver(conn, event, frame)
		}
	}
}

// ToRoom delivers an event to every member of an ad-hoc room.
func (h *Hub) ToRoom(room, event string, payload any) {
	h.broadcastToRoom(room, event, payload, "")
}

func (h *Hub) broadcastToTenant(tenantID, event string, payload any, excludeConnID string) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	for _, conn := range h.registry.ByTenant(tenantID) {
		if conn.ID == excludeConnID {
			continue
		}
		h.deliver(conn, event, frame)
	}
}

func (h *Hub) broadcastToRoom(room, event string, payload any, excludeConnID string) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	for _, conn := range h.registry.All() {
		if conn.ID == excludeConnID || !conn.inRoom(room) {
			continue
		}
		h.deliver(conn, event, frame)
	}
}

func (h *Hub) sendTo(conn *Connection, event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	h.deliver(conn, event, frame)
}

func (h *Hub) deliver(conn *Connection, event string, frame []byte) {
	if !conn.enqueue(frame) {
		h.logger.Warn("Dropped frame for slow connection",
			slog.String("connection_id", conn.ID),
			slog.String("event", event),
		)
	}
}

func (h *Hub) sendError(conn *Connection, message string) {
	h.sendTo(conn, EventError, map[string]string{"message": message})
}

// CanJoinRoom decides whether a connection may join a room. Tenant,
// user and role rooms require the identifier to match the caller's
// identity; job and chat rooms require the resource to belong to the
// caller's tenant.
func (h *Hub) CanJoinRoom(ctx context.Context, conn *Connection, room string) bool {
	kind, id := ParseRoom(room)
	switch kind {
	case RoomKindTenant:
		return id == conn.TenantID
	case RoomKindUser:
		return id == conn.UserID
	case RoomKindRole:
		parts := strings.SplitN(id, "/", 2)
		return len(parts) == 2 && parts[0] == conn.TenantID
	case RoomKindJob:
		ok, err := h.resources.JobInTenant(ctx, id, conn.TenantID)
		if err != nil {
			h.logger.Error("Failed to check job room ownership",
				slog.String("room", room),
				slog.Any("error", err),
			)
			return false
		}
		return ok
	case RoomKindChat:
		ok, err := h.resources.ChatSessionInTenant(ctx, id, conn.TenantID)
		if err != nil {
			h.logger.Error("Failed to check chat room ownership",
				slog.String("room", room),
				slog.Any("error", err),
			)
			return false
		}
		return ok
	default:
		return false
	}
}

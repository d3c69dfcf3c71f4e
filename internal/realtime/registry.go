package realtime

import "sync"

// Registry tracks live authenticated connections. The in-memory
// implementation below is per-process: a second instance has its own
// registry and cannot reach connections held elsewhere. A multi-instance
// deployment must plug in a backend over a shared pub/sub backbone and
// treat the local map as a per-node cache; the hub only depends on this
// interface so that swap does not touch hub logic.
type Registry interface {
	// Add registers a connection. Connections are only added after a
	// successful authentication handshake.
	Add(conn *Connection)

	// Remove deregisters a connection by id.
	Remove(connID string)

	// ByUser returns all live connections of a user.
	ByUser(userID string) []*Connection

	// ByTenant returns all live connections within a tenant.
	ByTenant(tenantID string) []*Connection

	// All returns every live connection.
	All() []*Connection

	// OnlineUsers returns the distinct user ids connected for a tenant.
	OnlineUsers(tenantID string) []string

	// IsOnline reports whether the user has at least one connection.
	IsOnline(userID string) bool
}

// MemoryRegistry is the process-local Registry. All maps are guarded by
// one RWMutex; mutation happens only on connect and disconnect.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byID    map[string]*Connection
	byUser  map[string]map[string]*Connection
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:   make(map[string]*Connection),
		byUser: make(map[string]map[string]*Connection),
	}
}

func (r *MemoryRegistry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[conn.ID] = conn

	userConns, ok := r.byUser[conn.UserID]
	if !ok {
		userConns = make(map[string]*Connection)
		r.byUser[conn.UserID] = userConns
	}
	userConns[conn.ID] = conn
}

func (r *MemoryRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byID[connID]
	if !ok {
		return
	}
	delete(r.byID, connID)

	if userConns, ok := r.byUser[conn.UserID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
}

func (r *MemoryRegistry) ByUser(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.byUser[userID]))
	for _, c := range r.byUser[userID] {
		conns = append(conns, c)
	}
	return conns
}

func (r *MemoryRegistry) ByTenant(tenantID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conns []*Connection
	for _, c := range r.byID {
		if c.TenantID == tenantID {
			conns = append(conns, c)
		}
	}
	return conns
}

func (r *MemoryRegistry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.byID))
	for _, c := range r.byID {
		conns = append(conns, c)
	}
	return conns
}

func (r *MemoryRegistry) OnlineUsers(tenantID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var users []string
	for _, c := range r.byID {
		if c.TenantID == tenantID && !seen[c.UserID] {
			seen[c.UserID] = true
			users = append(users, c.UserID)
		}
	}
	return users
}

func (r *MemoryRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser[userID]) > 0
}

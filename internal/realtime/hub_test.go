package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResources is a ResourceChecker backed by in-memory sets keyed by
// "resourceID/tenantID".
type fakeResources struct {
	jobs      map[string]bool
	customers map[string]bool
	sessions  map[string]bool
}

func newFakeResources() *fakeResources {
	return &fakeResources{
		jobs:      make(map[string]bool),
		customers: make(map[string]bool),
		sessions:  make(map[string]bool),
	}
}

func (f *fakeResources) JobInTenant(_ context.Context, jobID, tenantID string) (bool, error) {
	return f.jobs[jobID+"/"+tenantID], nil
}

func (f *fakeResources) CustomerInTenant(_ context.Context, customerID, tenantID string) (bool, error) {
	return f.customers[customerID+"/"+tenantID], nil
}

func (f *fakeResources) ChatSessionInTenant(_ context.Context, sessionID, tenantID string) (bool, error) {
	return f.sessions[sessionID+"/"+tenantID], nil
}

func newTestHub(resources ResourceChecker) *Hub {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHub(NewMemoryRegistry(), resources, logger, HubConfig{})
}

func newTestConn(id, userID, tenantID, role string) *Connection {
	return NewConnection(id, userID, tenantID, role, nil, 32)
}

// receivedEvents drains and decodes every frame queued on the
// connection's send channel.
func receivedEvents(t *testing.T, conn *Connection) []Envelope {
	t.Helper()

	var envs []Envelope
	for {
		select {
		case frame := <-conn.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			envs = append(envs, env)
		default:
			return envs
		}
	}
}

func eventNames(envs []Envelope) []string {
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Event
	}
	return names
}

func TestHub_Register(t *testing.T) {
	hub := newTestHub(newFakeResources())

	existing := newTestConn("conn-1", "user-1", "tenant-1", "owner")
	hub.Register(existing)
	receivedEvents(t, existing) // drain the registration traffic

	arrival := newTestConn("conn-2", "user-2", "tenant-1", "employee")
	hub.Register(arrival)

	// The new arrival gets the confirmation but not its own presence
	// announcement.
	envs := receivedEvents(t, arrival)
	require.Len(t, envs, 1)
	assert.Equal(t, EventConnectionConfirmed, envs[0].Event)

	var confirmed struct {
		ConnectionID string   `json:"connectionId"`
		Rooms        []string `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(envs[0].Data, &confirmed))
	assert.Equal(t, "conn-2", confirmed.ConnectionID)
	assert.ElementsMatch(t, []string{
		TenantRoom("tenant-1"),
		UserRoom("user-2"),
		RoleRoom("tenant-1", "employee"),
	}, confirmed.Rooms)

	// The existing tenant member sees the presence announcement.
	envs = receivedEvents(t, existing)
	require.Len(t, envs, 1)
	assert.Equal(t, EventUserOnline, envs[0].Event)
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(newFakeResources())

	c1 := newTestConn("conn-1", "user-1", "tenant-1", "owner")
	c2 := newTestConn("conn-2", "user-2", "tenant-1", "employee")
	hub.Register(c1)
	hub.Register(c2)
	receivedEvents(t, c1)
	receivedEvents(t, c2)

	hub.Unregister(c2)

	assert.False(t, hub.IsUserOnline("user-2"))
	envs := receivedEvents(t, c1)
	require.Len(t, envs, 1)
	assert.Equal(t, EventUserOffline, envs[0].Event)
}

func TestHub_ToTenant_Isolation(t *testing.T) {
	hub := newTestHub(newFakeResources())

	insider := newTestConn("conn-1", "user-1", "tenant-1", "employee")
	outsider := newTestConn("conn-2", "user-2", "tenant-2", "employee")
	hub.Register(insider)
	hub.Register(outsider)
	receivedEvents(t, insider)
	receivedEvents(t, outsider)

	hub.ToTenant("tenant-1", EventJobStatusChanged, map[string]string{"jobId": "job-1"})

	assert.Equal(t, []string{EventJobStatusChanged}, eventNames(receivedEvents(t, insider)))
	assert.Empty(t, receivedEvents(t, outsider))
}

func TestHub_ToUser_AllConnections(t *testing.T) {
	hub := newTestHub(newFakeResources())

	tab1 := newTestConn("conn-1", "user-1", "tenant-1", "employee")
	tab2 := newTestConn("conn-2", "user-1", "tenant-1", "employee")
	other := newTestConn("conn-3", "user-2", "tenant-1", "employee")
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)
	receivedEvents(t, tab1)
	receivedEvents(t, tab2)
	receivedEvents(t, other)

	hub.ToUser("user-1", EventNotificationNew, map[string]string{"id": "n-1"})

	assert.Equal(t, []string{EventNotificationNew}, eventNames(receivedEvents(t, tab1)))
	assert.Equal(t, []string{EventNotificationNew}, eventNames(receivedEvents(t, tab2)))
	assert.Empty(t, receivedEvents(t, other))
}

func TestHub_ToRole(t *testing.T) {
	hub := newTestHub(newFakeResources())

	owner := newTestConn("conn-1", "user-1", "tenant-1", "owner")
	employee := newTestConn("conn-2", "user-2", "tenant-1", "employee")
	foreignOwner := newTestConn("conn-3", "user-3", "tenant-2", "owner")
	hub.Register(owner)
	hub.Register(employee)
	hub.Register(foreignOwner)
	receivedEvents(t, owner)
	receivedEvents(t, employee)
	receivedEvents(t, foreignOwner)

	hub.ToRole("tenant-1", "owner", EventCustomerNewMessage, map[string]string{"customerId": "cust-1"})

	assert.Equal(t, []string{EventCustomerNewMessage}, eventNames(receivedEvents(t, owner)))
	assert.Empty(t, receivedEvents(t, employee))
	assert.Empty(t, receivedEvents(t, foreignOwner))
}

func TestHub_OnlineUsers(t *testing.T) {
	hub := newTestHub(newFakeResources())

	hub.Register(newTestConn("conn-1", "user-1", "tenant-1", "owner"))
	hub.Register(newTestConn("conn-2", "user-1", "tenant-1", "owner"))
	hub.Register(newTestConn("conn-3", "user-2", "tenant-1", "employee"))

	assert.ElementsMatch(t, []string{"user-1", "user-2"}, hub.OnlineUsers("tenant-1"))
	assert.True(t, hub.IsUserOnline("user-1"))
	assert.False(t, hub.IsUserOnline("user-404"))
}

func TestHub_CanJoinRoom(t *testing.T) {
	resources := newFakeResources()
	resources.jobs["job-1/tenant-1"] = true
	resources.sessions["sess-1/tenant-1"] = true

	hub := newTestHub(resources)
	conn := newTestConn("conn-1", "user-1", "tenant-1", "employee")

	tests := []struct {
		name    string
		room    string
		allowed bool
	}{
		{name: "own tenant room", room: TenantRoom("tenant-1"), allowed: true},
		{name: "foreign tenant room", room: TenantRoom("tenant-2"), allowed: false},
		{name: "own user room", room: UserRoom("user-1"), allowed: true},
		{name: "another user's room", room: UserRoom("user-2"), allowed: false},
		{name: "role room in own tenant", room: RoleRoom("tenant-1", "employee"), allowed: true},
		{name: "role room in foreign tenant", room: RoleRoom("tenant-2", "employee"), allowed: false},
		{name: "job room owned by tenant", room: JobRoom("job-1"), allowed: true},
		{name: "job room outside tenant", room: JobRoom("job-2"), allowed: false},
		{name: "chat room owned by tenant", room: ChatRoom("sess-1"), allowed: true},
		{name: "chat room outside tenant", room: ChatRoom("sess-2"), allowed: false},
		{name: "unknown room scheme", room: "garbage", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, hub.CanJoinRoom(context.Background(), conn, tt.room))
		})
	}
}

package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRegistry_AddRemove(t *testing.T) {
	r := NewMemoryRegistry()

	c1 := NewConnection("conn-1", "user-1", "tenant-1", "employee", nil, 8)
	c2 := NewConnection("conn-2", "user-1", "tenant-1", "employee", nil, 8)
	c3 := NewConnection("conn-3", "user-2", "tenant-2", "owner", nil, 8)

	r.Add(c1)
	r.Add(c2)
	r.Add(c3)

	assert.Len(t, r.All(), 3)
	assert.Len(t, r.ByUser("user-1"), 2)
	assert.Len(t, r.ByTenant("tenant-1"), 2)
	assert.Len(t, r.ByTenant("tenant-2"), 1)
	assert.True(t, r.IsOnline("user-1"))

	// One tab closes; the user stays online through the other.
	r.Remove("conn-1")
	assert.Len(t, r.ByUser("user-1"), 1)
	assert.True(t, r.IsOnline("user-1"))

	r.Remove("conn-2")
	assert.False(t, r.IsOnline("user-1"))
	assert.Empty(t, r.ByTenant("tenant-1"))

	// Removing an unknown id is a no-op.
	r.Remove("conn-404")
	assert.Len(t, r.All(), 1)
}

func TestMemoryRegistry_OnlineUsers(t *testing.T) {
	r := NewMemoryRegistry()

	r.Add(NewConnection("conn-1", "user-1", "tenant-1", "employee", nil, 8))
	r.Add(NewConnection("conn-2", "user-1", "tenant-1", "employee", nil, 8))
	r.Add(NewConnection("conn-3", "user-2", "tenant-1", "admin", nil, 8))
	r.Add(NewConnection("conn-4", "user-3", "tenant-2", "owner", nil, 8))

	users := r.OnlineUsers("tenant-1")
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, users)

	assert.ElementsMatch(t, []string{"user-3"}, r.OnlineUsers("tenant-2"))
	assert.Empty(t, r.OnlineUsers("tenant-3"))
}

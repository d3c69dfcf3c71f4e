package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoom(t *testing.T) {
	tests := []struct {
		room string
		kind RoomKind
		id   string
	}{
		{room: "tenant:t-1", kind: RoomKindTenant, id: "t-1"},
		{room: "tenant:t-1/role:admin", kind: RoomKindRole, id: "t-1/admin"},
		{room: "user:u-1", kind: RoomKindUser, id: "u-1"},
		{room: "job:j-1", kind: RoomKindJob, id: "j-1"},
		{room: "chat:s-1", kind: RoomKindChat, id: "s-1"},
		{room: "queue:q-1", kind: RoomKindUnknown, id: ""},
		{room: "", kind: RoomKindUnknown, id: ""},
	}

	for _, tt := range tests {
		t.Run(tt.room, func(t *testing.T) {
			kind, id := ParseRoom(tt.room)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestRoomConstructorsRoundTrip(t *testing.T) {
	kind, id := ParseRoom(RoleRoom("t-1", "owner"))
	assert.Equal(t, RoomKindRole, kind)
	assert.Equal(t, "t-1/owner", id)

	kind, id = ParseRoom(TenantRoom("t-1"))
	assert.Equal(t, RoomKindTenant, kind)
	assert.Equal(t, "t-1", id)
}

func TestMarshalEnvelope(t *testing.T) {
	frame, err := marshalEnvelope(EventRoomJoined, map[string]string{"room": "job:j-1"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventRoomJoined, env.Event)

	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "job:j-1", data["room"])
}

func TestMarshalEnvelope_NilPayload(t *testing.T) {
	frame, err := marshalEnvelope(EventUserOffline, nil)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserOffline, env.Event)
	assert.Empty(t, env.Data)
}

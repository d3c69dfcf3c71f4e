package storage

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCursorRoundTrip(t *testing.T) {
	cursor := JobCursor{
		CreatedAt: time.Date(2026, 2, 14, 11, 30, 0, 123456789, time.UTC),
		JobID:     "7f6c2a1e-9c3d-4b2f-8a5e-1d2c3b4a5f6e",
	}

	token := cursor.Encode()
	require.NotEmpty(t, token)

	decoded, err := ParseJobCursor(token)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.CreatedAt.Equal(cursor.CreatedAt))
	assert.Equal(t, cursor.JobID, decoded.JobID)
}

func TestParseJobCursor(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
		wantNil bool
	}{
		{
			name:    "empty token means first page",
			token:   "",
			wantNil: true,
		},
		{
			name:    "not base64",
			token:   "!!!not-base64!!!",
			wantErr: true,
		},
		{
			name:    "missing separator",
			token:   base64.StdEncoding.EncodeToString([]byte("1234567890")),
			wantErr: true,
		},
		{
			name:    "empty job id",
			token:   base64.StdEncoding.EncodeToString([]byte("1234567890|")),
			wantErr: true,
		},
		{
			name:    "non-numeric timestamp",
			token:   base64.StdEncoding.EncodeToString([]byte("abc|job-1")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := ParseJobCursor(tt.token)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, decoded)
			}
		})
	}
}

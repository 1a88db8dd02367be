package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_String(t *testing.T) {
	assert.Equal(t, "<none>", Credential("").String())
	assert.Equal(t, "<redacted>", Credential("tok-123").String())
	assert.Equal(t, "tok-123", Credential("tok-123").Token())
}

func TestSessionState(t *testing.T) {
	assert.True(t, Authenticated("xyz").IsAuthenticated())
	assert.False(t, Authenticated("").IsAuthenticated())
	assert.False(t, Unauthenticated().IsAuthenticated())

	failed := Failed("invalid username or password", errors.New("boom"))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "failed: invalid username or password", failed.String())
	assert.Equal(t, "authenticating", Authenticating().String())
}

func TestUserProfile_Unmarshal(t *testing.T) {
	t.Run("string id with company", func(t *testing.T) {
		var u UserProfile
		err := json.Unmarshal([]byte(`{"id":"u-1","email":"a@b.com","full_name":"Ada","company":"PLB","is_active":true}`), &u)
		require.NoError(t, err)
		assert.Equal(t, ID("u-1"), u.ID)
		assert.Equal(t, "PLB", u.CompanyName())
		assert.True(t, u.IsActive)
	})

	t.Run("numeric id without company", func(t *testing.T) {
		var u UserProfile
		err := json.Unmarshal([]byte(`{"id":42,"email":"a@b.com","full_name":"Ada","is_active":false}`), &u)
		require.NoError(t, err)
		assert.Equal(t, ID("42"), u.ID)
		assert.Empty(t, u.CompanyName())
	})

	t.Run("null id", func(t *testing.T) {
		var u UserProfile
		err := json.Unmarshal([]byte(`{"id":null}`), &u)
		require.Error(t, err)
	})
}

func TestLocalTime_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc3339",
			input: `"2024-05-01T10:00:00Z"`,
			want:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "naive",
			input: `"2024-05-01T10:30:00"`,
			want:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local),
		},
		{
			name:  "naive with fraction",
			input: `"2024-05-01T10:30:00.250"`,
			want:  time.Date(2024, 5, 1, 10, 30, 0, 250_000_000, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lt LocalTime
			require.NoError(t, json.Unmarshal([]byte(tt.input), &lt))
			assert.True(t, tt.want.Equal(lt.Time), "got %s", lt.Time)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		var lt LocalTime
		require.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &lt))
		require.Error(t, json.Unmarshal([]byte(`12`), &lt))
	})
}

func TestMeeting_Duration(t *testing.T) {
	var m Meeting
	err := json.Unmarshal([]byte(`{
		"id": "m-1",
		"title": "Keynote",
		"start_time": "2024-05-01T09:00:00",
		"end_time": "2024-05-01T10:15:00",
		"room_name": "Hall A",
		"hosts": ["Ada", "Grace"],
		"status": "scheduled"
	}`), &m)
	require.NoError(t, err)
	assert.Equal(t, 75*time.Minute, m.Duration())
	assert.Equal(t, []string{"Ada", "Grace"}, m.Hosts)
}

func TestValidate(t *testing.T) {
	t.Run("profile", func(t *testing.T) {
		require.NoError(t, UserProfile{ID: "1", Email: "a@b.com", FullName: "Ada"}.Validate())
		require.Error(t, UserProfile{}.Validate())
		require.Error(t, UserProfile{ID: "1", FullName: "Ada"}.Validate())
		require.Error(t, UserProfile{ID: "1", Email: "a@b.com"}.Validate())
	})

	t.Run("meeting", func(t *testing.T) {
		start := LocalTime{Time: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)}
		require.NoError(t, Meeting{ID: "m-1", Title: "Keynote", StartTime: start}.Validate())
		require.Error(t, Meeting{}.Validate())
		require.Error(t, Meeting{ID: "m-1", StartTime: start}.Validate())
		require.Error(t, Meeting{ID: "m-1", Title: "Keynote"}.Validate())
	})
}

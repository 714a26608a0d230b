package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		sessionID string
		want      Identity
	}{
		{name: "user wins", userID: "u1", sessionID: "s1", want: Identity{Kind: User, ID: "u1"}},
		{name: "user only", userID: "u1", want: Identity{Kind: User, ID: "u1"}},
		{name: "session fallback", sessionID: "s1", want: Identity{Kind: Session, ID: "s1"}},
		{name: "anonymous", want: Identity{Kind: Anonymous}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.userID, tt.sessionID))
		})
	}
}

func TestUserID(t *testing.T) {
	assert.Equal(t, "u1", Identity{Kind: User, ID: "u1"}.UserID())
	assert.Empty(t, Identity{Kind: Session, ID: "s1"}.UserID(), "orders are never keyed by session id")
	assert.Empty(t, Identity{Kind: Anonymous}.UserID())
}

func TestIsAnonymous(t *testing.T) {
	assert.True(t, Resolve("", "").IsAnonymous())
	assert.False(t, Resolve("", "s1").IsAnonymous())
	assert.False(t, Resolve("u1", "").IsAnonymous())
}

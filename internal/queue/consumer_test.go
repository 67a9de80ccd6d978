package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsAuditLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", AuditFile)

	activated, err := json.Marshal(AccountActivatedEvent{
		UserID: 3, VoterID: "1234", Email: "a@gmail.com", BranchName: "North", ActivatedAt: "2026-01-02T03:04:05Z",
	})
	require.NoError(t, err)
	registered, err := json.Marshal(VoterRegisteredEvent{
		UserID: 4, VoterID: "5678", Email: "b@gmail.com", BranchName: "South", RegisteredBy: 1, RegisteredAt: "2026-01-02T03:04:06Z",
	})
	require.NoError(t, err)

	require.NoError(t, handleMessage(AccountActivatedQueue, activated, path))
	require.NoError(t, handleMessage(VoterRegisteredQueue, registered, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2026-01-02T03:04:05Z] Account activated | user_id=3 | voter_id=1234 | email=a@gmail.com | branch="North"`, lines[0])
	assert.Equal(t, `[2026-01-02T03:04:06Z] Voter registered | user_id=4 | voter_id=5678 | email=b@gmail.com | branch="South" | by=1`, lines[1])
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), AuditFile)

	assert.Error(t, handleMessage(AccountActivatedQueue, []byte("{not json"), path))
	assert.Error(t, handleMessage("booking.confirmed", []byte("{}"), path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is written for rejected messages")
}

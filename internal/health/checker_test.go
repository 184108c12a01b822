package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fentz26/mcphub/internal/credentials"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// script writes an executable shell script and returns its path.
func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "server.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCheck_MissingCommand(t *testing.T) {
	for _, mode := range []Mode{ModeHandshake, ModeVersion} {
		c := NewChecker(mode, 0, nil)
		start := time.Now()
		got := c.Check(context.Background(), models.Server{ID: "s1", Command: "__does_not_exist__"})

		assert.Equal(t, models.HealthError, got.Status, mode)
		assert.Contains(t, got.ErrorMessage, "Failed to execute command", mode)
		assert.Equal(t, "s1", got.ServerID)
		assert.False(t, got.LastChecked.IsZero())
		assert.Less(t, time.Since(start), DefaultTimeout)
	}
}

func TestCheck_VersionMode(t *testing.T) {
	ok := script(t, "exit 0")
	failing := script(t, "exit 3")
	c := NewChecker(ModeVersion, 2*time.Second, nil)

	got := c.Check(context.Background(), models.Server{Command: ok})
	assert.Equal(t, models.HealthHealthy, got.Status)
	assert.Empty(t, got.ErrorMessage)

	got = c.Check(context.Background(), models.Server{Command: failing})
	assert.Equal(t, models.HealthUnknown, got.Status)
	assert.Equal(t, "Command exited with code 3", got.ErrorMessage)
}

func TestCheck_Timeout(t *testing.T) {
	slow := script(t, "exec sleep 10")
	for _, mode := range []Mode{ModeHandshake, ModeVersion} {
		c := NewChecker(mode, 200*time.Millisecond, nil)
		start := time.Now()
		got := c.Check(context.Background(), models.Server{Command: slow})

		assert.Equal(t, models.HealthError, got.Status, mode)
		assert.Equal(t, TimeoutMessage, got.ErrorMessage, mode)
		assert.Less(t, time.Since(start), 5*time.Second, mode)
	}
}

func TestCheck_HandshakeAgainstNonServer(t *testing.T) {
	quits := script(t, "exit 0")
	c := NewChecker(ModeHandshake, 2*time.Second, nil)

	got := c.Check(context.Background(), models.Server{Command: quits})
	assert.NotEqual(t, models.HealthHealthy, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestCheck_ResolvesCredentials(t *testing.T) {
	keyring.MockInit()
	creds := credentials.NewKeyring()
	require.NoError(t, creds.Store(credentials.Key("s1", "HUB_TOKEN"), "s3cret"))

	probe := script(t, `[ "$HUB_TOKEN" = "s3cret" ] && [ "$PLAIN" = "value" ]`)
	c := NewChecker(ModeVersion, 2*time.Second, creds)

	got := c.Check(context.Background(), models.Server{
		ID:      "s1",
		Command: probe,
		Env:     map[string]string{"HUB_TOKEN": "", "PLAIN": "value"},
	})
	assert.Equal(t, models.HealthHealthy, got.Status, got.ErrorMessage)
}

func TestCheckAll_PreservesOrder(t *testing.T) {
	ok := script(t, "exit 0")
	servers := []models.Server{
		{ID: "a", Command: "__does_not_exist__"},
		{ID: "b", Command: ok},
		{ID: "c", Command: "__also_missing__"},
	}
	c := NewChecker(ModeVersion, 2*time.Second, nil)

	results := c.CheckAll(context.Background(), servers, 2)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].ServerID, results[1].ServerID, results[2].ServerID})
	assert.Equal(t, models.HealthError, results[0].Status)
	assert.Equal(t, models.HealthHealthy, results[1].Status)
	assert.Equal(t, models.HealthError, results[2].Status)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeHandshake, m)
	m, err = ParseMode("version")
	require.NoError(t, err)
	assert.Equal(t, ModeVersion, m)
	_, err = ParseMode("ping")
	assert.Error(t, err)
}

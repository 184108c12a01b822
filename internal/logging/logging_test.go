package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, "error": LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)
	t.Cleanup(Discard)

	Debug("Test", "hidden %d", 1)
	Info("Projector", "synced %s", "work")
	Error("Mirror", errors.New("disk full"), "write failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"synced work\"")
	assert.Contains(t, out, "subsystem=Projector")
	assert.Contains(t, out, "error=\"disk full\"")
	assert.Contains(t, out, "level=ERROR")
}

package credentials

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyring_RoundTrip(t *testing.T) {
	keyring.MockInit()
	k := NewKeyring()
	require.True(t, k.Available())

	key := Key("srv-1", "API_KEY")
	assert.Equal(t, "server:srv-1:env:API_KEY", key)

	_, ok, err := k.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, k.Store(key, "sk-123"))
	v, ok, err := k.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-123", v)

	require.NoError(t, k.Store(key, "sk-456"))
	v, _, err = k.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "sk-456", v)

	require.NoError(t, k.Delete(key))
	_, ok, err = k.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, k.Delete(key), "deleting a missing key succeeds")
}

func TestKeyring_Unavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus"))
	t.Cleanup(keyring.MockInit)
	k := NewKeyring()

	assert.False(t, k.Available())
	_, _, err := k.Get(Key("s", "TOKEN"))
	assert.Error(t, err)
	assert.Error(t, k.Store(Key("s", "TOKEN"), "x"))
}

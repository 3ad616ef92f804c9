package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("k3y")
	require.NoError(t, err)
	require.NoError(t, Verify(hash, "k3y"))
	require.ErrorIs(t, Verify(hash, "nope"), ErrMismatch)
}

func TestVerifyOpenMode(t *testing.T) {
	require.NoError(t, Verify("", "anything"))
	_, err := Hash("")
	require.Error(t, err)
}

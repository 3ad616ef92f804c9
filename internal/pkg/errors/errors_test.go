package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsKindAndCause(t *testing.T) {
	err := Wrap(ErrExtraction, io.ErrUnexpectedEOF)
	require.True(t, errors.Is(err, ErrExtraction))
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	require.True(t, IsExtraction(err))
	require.False(t, errors.Is(err, ErrGeneration))
}

func TestWrapNilCause(t *testing.T) {
	require.Equal(t, ErrGeneration, Wrap(ErrGeneration, nil))
}

func TestWrapAlreadyTagged(t *testing.T) {
	inner := Wrap(ErrModelUnavailable, io.EOF)
	require.Equal(t, inner, Wrap(ErrModelUnavailable, inner))
}

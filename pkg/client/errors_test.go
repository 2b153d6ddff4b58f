package client

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolErrorFormat(t *testing.T) {
	a := assert.New(t)

	a.Equal(
		"tusc: protocol error: Expected HEADER 'Tus-Resumable'",
		NewProtocolError("Expected HEADER 'Tus-Resumable'", 0).Error(),
	)
	a.Equal(
		"tusc: protocol error: unexpected response status (status 500)",
		errUnexpectedStatus(500).Error(),
	)
	a.Equal(
		"tusc: protocol error: offset mismatch: server=6, expected=8",
		errOffsetMismatch(6, 8).Error(),
	)
}

func TestProtocolErrorIs(t *testing.T) {
	a := assert.New(t)

	err := fmt.Errorf("upload failed: %w", ErrMissingUploadURL)
	a.True(errors.Is(err, ErrMissingUploadURL))
	a.False(errors.Is(err, ErrMissingOffsetHeader))
}

func TestErrorClassification(t *testing.T) {
	a := assert.New(t)

	var protoErr ProtocolError
	var transportErr TransportError
	var ioErr IOError
	var storeErr StoreError

	err := error(errUnexpectedStatus(404))
	a.True(errors.As(err, &protoErr))
	a.Equal(404, protoErr.StatusCode)
	a.False(errors.As(err, &transportErr))

	err = TransportError{Err: errors.New("connection refused")}
	a.True(errors.As(err, &transportErr))
	a.EqualError(transportErr.Err, "connection refused")

	err = IOError{Path: "/tmp/gone", Err: fs.ErrNotExist}
	a.True(errors.As(err, &ioErr))
	a.True(errors.Is(err, fs.ErrNotExist))

	err = StoreError{Op: "put", Err: errors.New("disk full")}
	a.True(errors.As(err, &storeErr))
	a.Equal("put", storeErr.Op)
	a.EqualError(err, "tusc: store put failed: disk full")
}

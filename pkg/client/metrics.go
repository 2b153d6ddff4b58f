package client

import (
	"sync/atomic"
)

// Metrics provides numbers about the usage of upload clients. Since these may
// be shared between sessions running in multiple goroutines, they must be
// read and modified atomically using the functions exposed in the sync/atomic
// package, such as atomic.LoadUint64.
type Metrics struct {
	// UploadsCreated counts the uploads newly created on a server.
	UploadsCreated *uint64
	// UploadsResumed counts the sessions that adopted an upload URL from
	// the store instead of creating a new upload.
	UploadsResumed *uint64
	// UploadsFinished counts the uploads whose final byte was acknowledged.
	UploadsFinished *uint64
	// UploadsTerminated counts the uploads cancelled by the caller.
	UploadsTerminated *uint64
	// BytesSent counts the bytes acknowledged by servers across all
	// sessions.
	BytesSent *uint64
	// RetriesTotal counts the chunk retries handed to retry hooks.
	RetriesTotal *uint64
}

// NewMetrics initializes all counters at zero.
func NewMetrics() Metrics {
	return Metrics{
		UploadsCreated:    new(uint64),
		UploadsResumed:    new(uint64),
		UploadsFinished:   new(uint64),
		UploadsTerminated: new(uint64),
		BytesSent:         new(uint64),
		RetriesTotal:      new(uint64),
	}
}

func (m Metrics) incUploadsCreated() {
	atomic.AddUint64(m.UploadsCreated, 1)
}

func (m Metrics) incUploadsResumed() {
	atomic.AddUint64(m.UploadsResumed, 1)
}

func (m Metrics) incUploadsFinished() {
	atomic.AddUint64(m.UploadsFinished, 1)
}

func (m Metrics) incUploadsTerminated() {
	atomic.AddUint64(m.UploadsTerminated, 1)
}

func (m Metrics) incBytesSent(delta uint64) {
	atomic.AddUint64(m.BytesSent, delta)
}

func (m Metrics) incRetriesTotal() {
	atomic.AddUint64(m.RetriesTotal, 1)
}

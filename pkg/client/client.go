// Package client implements the client side of the tus resumable upload
// protocol (https://tus.io). A Client drives a single file through creation,
// offset probing and sequential PATCH requests, and can pause, cancel and
// resume the transfer. With a URLStore configured, resumption also works
// across process restarts: the upload URL is persisted against a stable
// fingerprint of the file.
package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"
)

// ProtocolVersion is the tus protocol version spoken by this client. It is
// sent as the Tus-Resumable header on every request.
const ProtocolVersion = "1.0.0"

const (
	// DefaultChunkSize limits a single PATCH request body to 6 MiB unless
	// configured otherwise.
	DefaultChunkSize int64 = 6 * 1024 * 1024
	// DefaultMaxRetries bounds how often a failed chunk is handed to the
	// retry hook before the error becomes fatal.
	DefaultMaxRetries = 5
)

// SpeedProbe measures the upstream bandwidth in megabits per second. It is
// consulted once per upload when UploadOptions.MeasureSpeed is set; any error
// leaves the measured speed unset and only affects ETA estimates.
type SpeedProbe interface {
	Measure(ctx context.Context) (mbps float64, err error)
}

// Config provides a way to configure the Client depending on your needs.
type Config struct {
	// Store persists upload URLs against file fingerprints, enabling
	// resumption across process restarts. May be nil, in which case every
	// Upload call creates a new upload on the server.
	Store URLStore
	// MaxChunkSize is the maximum number of bytes sent in one PATCH
	// request. Defaults to DefaultChunkSize.
	MaxChunkSize int64
	// MaxRetries bounds the retries per upload before a chunk failure
	// becomes fatal. Zero selects DefaultMaxRetries; a negative value
	// disables retrying entirely.
	MaxRetries int
	// Retry computes the cooldown handed to the retry hook between
	// attempts. A zero value selects exponential backoff with no base
	// cooldown and the default jitter.
	Retry RetrySchedule
	// HTTPClient issues all requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger is the logger to use internally. Defaults to discarding.
	Logger *slog.Logger
	// Fingerprint derives the stable identifier used as the store key for
	// a file path. Defaults to the package-level Fingerprint.
	Fingerprint func(path string) string
	// Metrics receives counters about this client's activity. Pass the
	// same Metrics value to several clients to aggregate across them.
	Metrics Metrics
	// StrictCreateStatus rejects a 404 response to the create request.
	// By default a 404 carrying a Location header is accepted, which some
	// legacy servers emit on create.
	StrictCreateStatus bool
	// KeepEntryOnComplete leaves the store entry in place after the final
	// byte is acknowledged. By default the entry is removed best-effort.
	KeepEntryOnComplete bool
}

func (config *Config) validate() error {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultChunkSize
	}

	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}

	if config.Retry == (RetrySchedule{}) {
		config.Retry = RetrySchedule{
			Scale:  ExponentialBackoff,
			Jitter: DefaultJitter,
		}
	}

	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	if config.Fingerprint == nil {
		config.Fingerprint = Fingerprint
	}

	if config.Metrics.UploadsCreated == nil {
		config.Metrics = NewMetrics()
	}

	return nil
}

// UploadOptions carries the per-upload parameters of Client.Upload. All
// fields are optional.
type UploadOptions struct {
	// Metadata is sent in the Upload-Metadata header of the create
	// request. A filename entry is derived from the file path when absent.
	Metadata map[string]string
	// Headers are merged into every request. Protocol headers take
	// precedence over entries with the same name.
	Headers http.Header
	// OnStart fires once the server offset is known, before the first
	// chunk. hasETA is false when no bandwidth measurement is available.
	OnStart func(eta time.Duration, hasETA bool)
	// OnProgress fires once per acknowledged chunk.
	OnProgress func(percent float64, eta time.Duration)
	// OnComplete fires exactly once, after the final byte is acknowledged.
	OnComplete func()
	// RetryHook owns the cooldown between attempts: it is expected to wait
	// for the given duration and then call resume, returning its result.
	// Without a hook any chunk failure is fatal.
	RetryHook func(wait time.Duration, resume func() error) error
	// MeasureSpeed probes the upstream bandwidth before the transfer to
	// seed the ETA estimate. Probe failures are ignored.
	MeasureSpeed bool
	// Probe overrides the bandwidth probe used when MeasureSpeed is set.
	Probe SpeedProbe
}

// Client uploads a single file to a tus server. It is created once per file
// and may drive several Upload calls over its lifetime, e.g. after a pause.
// Pause, Cancel, Offset and IsResumable may be called concurrently with a
// running Upload; everything else must stay on one goroutine.
type Client struct {
	config      Config
	file        FileSource
	fingerprint string
	logger      *slog.Logger

	paused atomic.Bool

	mutex     sync.RWMutex
	uploadURL string
	fileSize  int64
	offset    int64
}

// NewClient creates a client for uploading the given file.
func NewClient(file FileSource, config Config) (*Client, error) {
	if file == nil {
		return nil, errors.New("tusc: file must not be nil")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Client{
		config:      config,
		file:        file,
		fingerprint: config.Fingerprint(file.Path()),
		logger:      config.Logger,
	}, nil
}

// Fingerprint returns the identifier under which this client's upload URL is
// stored.
func (c *Client) Fingerprint() string {
	return c.fingerprint
}

// UploadURL returns the URL the server assigned for this upload, or an empty
// string before one is known.
func (c *Client) UploadURL() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.uploadURL
}

// Offset returns the number of bytes the server has acknowledged so far.
func (c *Client) Offset() int64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.offset
}

// IsResumable reports whether a store is configured and holds an upload URL
// for this client's fingerprint.
func (c *Client) IsResumable() bool {
	if c.config.Store == nil {
		return false
	}
	_, ok, err := c.config.Store.Get(c.fingerprint)
	if err != nil {
		c.logger.Error("StoreGetError", "fingerprint", c.fingerprint, "error", err.Error())
		return false
	}
	return ok
}

// Pause stops the transfer at the next chunk boundary. The chunk in flight
// completes its response cycle first. Pause reports whether it changed the
// state; pausing an already paused client is a no-op. A subsequent Upload
// call resumes from the server-held offset.
func (c *Client) Pause() bool {
	if c.paused.Swap(true) {
		return false
	}
	c.logger.Info("UploadPauseRequested", "fingerprint", c.fingerprint)
	return true
}

// Cancel stops the transfer like Pause and additionally removes the store
// entry, so a later Upload call starts from scratch. Cancelling when the
// store holds no entry is a no-op. Cancel reports whether the entry removal
// succeeded.
func (c *Client) Cancel() bool {
	c.paused.Store(true)

	if c.config.Store != nil {
		if err := c.config.Store.Delete(c.fingerprint); err != nil {
			c.logger.Error("StoreDeleteError", "fingerprint", c.fingerprint, "error", err.Error())
			return false
		}
	}

	c.config.Metrics.incUploadsTerminated()
	c.logger.Info("UploadTerminated", "fingerprint", c.fingerprint)
	return true
}

func (c *Client) setUploadURL(url string) {
	c.mutex.Lock()
	c.uploadURL = url
	c.mutex.Unlock()
}

func (c *Client) setOffset(offset int64) {
	c.mutex.Lock()
	c.offset = offset
	c.mutex.Unlock()
}

func (c *Client) setFileSize(size int64) {
	c.mutex.Lock()
	c.fileSize = size
	c.mutex.Unlock()
}

func (c *Client) size() int64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.fileSize
}

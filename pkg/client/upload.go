package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tus/tusc/pkg/speedprobe"
)

// Upload transfers the file to the server at endpoint, creating a new upload
// or resuming a stored one. It returns nil once the final byte has been
// acknowledged or when the transfer was paused or cancelled. Otherwise it
// returns the error that ended the transfer: a fatal error at once, any error
// at once when no RetryHook is set, or the last error once the retry budget
// is exhausted.
func (c *Client) Upload(ctx context.Context, endpoint string, opts UploadOptions) error {
	session, err := c.newSession(endpoint, opts)
	if err != nil {
		return err
	}

	c.paused.Store(false)

	if opts.MeasureSpeed {
		session.measureSpeed(ctx)
	}

	if err := session.ensureUploadURL(ctx); err != nil {
		return err
	}

	return session.run(ctx)
}

// CreateUpload drives only the create step: it establishes an upload URL on
// the server (or adopts a stored one) and persists it, without sending any
// file content. A subsequent Upload call picks the URL up from the store.
func (c *Client) CreateUpload(ctx context.Context, endpoint string, opts UploadOptions) error {
	session, err := c.newSession(endpoint, opts)
	if err != nil {
		return err
	}

	return session.ensureUploadURL(ctx)
}

// uploadSession holds the per-Upload state that must survive re-entry
// through the retry hook's resume function.
type uploadSession struct {
	client          *Client
	endpoint        string
	opts            UploadOptions
	encodedMetadata string

	attempt    int
	started    bool
	completed  bool
	speedMbps  float64
	bytesAcked int64
	startedAt  time.Time
}

func (c *Client) newSession(endpoint string, opts UploadOptions) (*uploadSession, error) {
	size, err := c.file.Size()
	if err != nil {
		return nil, IOError{Path: c.file.Path(), Err: err}
	}
	c.setFileSize(size)

	return &uploadSession{
		client:          c,
		endpoint:        endpoint,
		opts:            opts,
		encodedMetadata: uploadMetadata(opts.Metadata, c.file.Path()),
	}, nil
}

// uploadMetadata encodes the caller metadata, injecting a filename entry
// derived from the file path when the caller supplied none.
func uploadMetadata(meta map[string]string, path string) string {
	merged := make(map[string]string, len(meta)+1)
	for key, value := range meta {
		merged[key] = value
	}
	if _, ok := merged["filename"]; !ok && path != "" {
		merged["filename"] = filepath.Base(path)
	}
	return EncodeMetadata(merged)
}

func (s *uploadSession) measureSpeed(ctx context.Context) {
	probe := s.opts.Probe
	if probe == nil {
		probe = speedprobe.New()
	}

	mbps, err := probe.Measure(ctx)
	if err != nil {
		s.client.logger.Debug("SpeedProbeFailed", "error", err.Error())
		return
	}
	s.speedMbps = mbps
}

// ensureUploadURL adopts an upload URL from the store or creates a new
// upload on the server and persists its URL.
func (s *uploadSession) ensureUploadURL(ctx context.Context) error {
	c := s.client

	if c.config.Store != nil {
		uploadURL, ok, err := c.config.Store.Get(c.fingerprint)
		if err != nil {
			return StoreError{Op: "get", Err: err}
		}
		if ok {
			c.setUploadURL(uploadURL)
			c.config.Metrics.incUploadsResumed()
			c.logger.Info("UploadResumed", "fingerprint", c.fingerprint, "url", uploadURL)
			return nil
		}
	}

	return s.createUpload(ctx)
}

func (s *uploadSession) createUpload(ctx context.Context) error {
	c := s.client

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, nil)
	if err != nil {
		return TransportError{Err: err}
	}
	s.applyHeaders(req)
	req.Header.Set("Upload-Length", strconv.FormatInt(c.size(), 10))
	if s.encodedMetadata != "" {
		req.Header.Set("Upload-Metadata", s.encodedMetadata)
	}

	res, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return TransportError{Err: err}
	}
	defer drainBody(res)

	// Some legacy servers answer the create request with a 404 that still
	// carries a valid Location header.
	accepted := res.StatusCode >= 200 && res.StatusCode < 300
	if res.StatusCode == http.StatusNotFound && !c.config.StrictCreateStatus {
		accepted = true
	}
	if !accepted {
		return errUnexpectedStatus(res.StatusCode)
	}

	uploadURL, err := resolveUploadURL(s.endpoint, res.Header.Get("Location"))
	if err != nil {
		return err
	}
	c.setUploadURL(uploadURL)

	if c.config.Store != nil {
		if err := c.config.Store.Put(c.fingerprint, uploadURL); err != nil {
			return StoreError{Op: "put", Err: err}
		}
	}

	c.config.Metrics.incUploadsCreated()
	c.logger.Info("UploadCreated", "fingerprint", c.fingerprint, "size", c.size(), "url", uploadURL)
	return nil
}

// resolveUploadURL interprets the Location header of a create response
// against the endpoint it was requested from. A missing host inherits host
// and port from the endpoint, a missing scheme inherits the scheme. Values
// containing a comma are truncated at the first one, as proxies may fold
// duplicate headers into a single line.
func resolveUploadURL(endpoint, location string) (string, error) {
	if i := strings.IndexByte(location, ','); i >= 0 {
		location = location[:i]
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ErrMissingUploadURL
	}

	loc, err := url.Parse(location)
	if err != nil {
		return "", NewProtocolError("invalid Location header: "+err.Error(), 0)
	}

	if loc.Host == "" || loc.Scheme == "" {
		base, err := url.Parse(endpoint)
		if err != nil {
			return "", NewProtocolError("invalid endpoint: "+err.Error(), 0)
		}
		if loc.Host == "" {
			loc.Host = base.Host
		}
		if loc.Scheme == "" {
			loc.Scheme = base.Scheme
		}
	}

	return loc.String(), nil
}

// run performs the transfer and owns the retry budget. On a retryable error
// it computes the cooldown and hands control to the caller's retry hook,
// whose resume function re-enters run with the attempt counter preserved.
func (s *uploadSession) run(ctx context.Context) error {
	err := s.perform(ctx)
	if err == nil {
		return nil
	}
	if !retryable(err) {
		return err
	}

	c := s.client
	maxRetries := c.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if s.attempt >= maxRetries {
		c.logger.Error("UploadFailed", "fingerprint", c.fingerprint, "attempts", s.attempt, "error", err.Error())
		return err
	}

	wait := c.config.Retry.Interval(s.attempt)
	s.attempt++

	if s.opts.RetryHook == nil {
		return err
	}

	c.config.Metrics.incRetriesTotal()
	c.logger.Info("UploadRetry", "fingerprint", c.fingerprint, "attempt", s.attempt, "wait", wait, "error", err.Error())
	return s.opts.RetryHook(wait, func() error {
		return s.run(ctx)
	})
}

// retryable reports whether an error may be handed to the retry hook.
// Local I/O faults, store faults and context cancellation are fatal.
func retryable(err error) bool {
	var ioErr IOError
	if errors.As(err, &ioErr) {
		return false
	}
	var storeErr StoreError
	if errors.As(err, &storeErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// perform synchronizes the offset with the server and sends chunks until the
// file is exhausted, the client is paused, or an error is raised.
func (s *uploadSession) perform(ctx context.Context) error {
	c := s.client

	offset, err := s.probeOffset(ctx)
	if err != nil {
		return err
	}
	c.setOffset(offset)
	c.logger.Info("OffsetProbed", "fingerprint", c.fingerprint, "offset", offset)

	s.startedAt = time.Now()
	s.bytesAcked = 0

	if !s.started {
		s.started = true
		if s.opts.OnStart != nil {
			eta, hasETA := s.startETA()
			s.opts.OnStart(eta, hasETA)
		}
	}

	for {
		if c.paused.Load() {
			c.logger.Info("UploadPaused", "fingerprint", c.fingerprint, "offset", c.Offset())
			return nil
		}

		offset := c.Offset()
		size := c.size()
		if offset >= size {
			break
		}

		chunk, err := readChunk(c.file, offset, c.config.MaxChunkSize, size)
		if err != nil {
			return err
		}

		if err := s.sendChunk(ctx, offset, chunk); err != nil {
			return err
		}
	}

	s.complete()
	return nil
}

// probeOffset asks the server for the authoritative offset of the upload.
func (s *uploadSession) probeOffset(ctx context.Context) (int64, error) {
	c := s.client

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.UploadURL(), nil)
	if err != nil {
		return 0, TransportError{Err: err}
	}
	s.applyHeaders(req)

	res, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return 0, TransportError{Err: err}
	}
	defer drainBody(res)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return 0, errUnexpectedStatus(res.StatusCode)
	}

	return parseOffsetHeader(res.Header)
}

func (s *uploadSession) sendChunk(ctx context.Context, offset int64, chunk []byte) error {
	c := s.client
	c.logger.Info("ChunkSendStart", "fingerprint", c.fingerprint, "offset", offset, "size", len(chunk))

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.UploadURL(), bytes.NewReader(chunk))
	if err != nil {
		return TransportError{Err: err}
	}
	s.applyHeaders(req)
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))
	req.Header.Set("Content-Type", "application/offset+octet-stream")

	res, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return TransportError{Err: err}
	}
	defer drainBody(res)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errUnexpectedStatus(res.StatusCode)
	}

	serverOffset, err := parseOffsetHeader(res.Header)
	if err != nil {
		return err
	}

	expected := offset + int64(len(chunk))
	if serverOffset != expected {
		return errOffsetMismatch(serverOffset, expected)
	}

	// The acknowledgement is forward progress, so the retry budget starts
	// over.
	s.attempt = 0

	c.setOffset(serverOffset)
	s.bytesAcked += int64(len(chunk))
	c.config.Metrics.incBytesSent(uint64(len(chunk)))
	c.logger.Info("ChunkSendComplete", "fingerprint", c.fingerprint, "offset", serverOffset)

	s.notifyProgress(serverOffset)
	return nil
}

// complete finishes the session. The store entry is removed best-effort and
// OnComplete fires at most once, even if the session is re-entered.
func (s *uploadSession) complete() {
	if s.completed {
		return
	}
	s.completed = true

	c := s.client
	if c.config.Store != nil && !c.config.KeepEntryOnComplete {
		if err := c.config.Store.Delete(c.fingerprint); err != nil {
			c.logger.Error("StoreDeleteError", "fingerprint", c.fingerprint, "error", err.Error())
		}
	}

	c.config.Metrics.incUploadsFinished()
	c.logger.Info("UploadFinished", "fingerprint", c.fingerprint, "size", c.size())

	if s.opts.OnComplete != nil {
		s.opts.OnComplete()
	}
}

// applyHeaders merges the caller headers into the request and stamps the
// protocol version on top.
func (s *uploadSession) applyHeaders(req *http.Request) {
	for name, values := range s.opts.Headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	req.Header.Set("Tus-Resumable", ProtocolVersion)
}

// parseOffsetHeader extracts the Upload-Offset value from a response.
// Values containing a comma are truncated at the first one.
func parseOffsetHeader(header http.Header) (int64, error) {
	value := header.Get("Upload-Offset")
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, ErrMissingOffsetHeader
	}

	offset, err := strconv.ParseInt(value, 10, 64)
	if err != nil || offset < 0 {
		return 0, ErrMissingOffsetHeader
	}
	return offset, nil
}

func (s *uploadSession) startETA() (time.Duration, bool) {
	if s.speedMbps <= 0 {
		return 0, false
	}
	seconds := float64(s.client.size()) / (s.speedMbps * 1e6)
	return time.Duration(seconds * float64(time.Second)), true
}

func (s *uploadSession) notifyProgress(offset int64) {
	if s.opts.OnProgress == nil {
		return
	}

	size := s.client.size()
	percent := 100.0
	if size > 0 {
		percent = 100 * float64(offset) / float64(size)
	}
	if percent > 100 {
		percent = 100
	}

	s.opts.OnProgress(percent, s.estimateETA(offset))
}

// estimateETA projects the remaining transfer time from the measured
// bandwidth if available, otherwise from the throughput observed since the
// session (re-)entered the transfer loop.
func (s *uploadSession) estimateETA(offset int64) time.Duration {
	remaining := s.client.size() - offset
	if remaining <= 0 {
		return 0
	}

	if s.speedMbps > 0 {
		seconds := float64(remaining) / (s.speedMbps * 1e6)
		return time.Duration(seconds * float64(time.Second))
	}

	elapsedMs := float64(time.Since(s.startedAt).Milliseconds())
	if elapsedMs <= 0 {
		elapsedMs = 1
	}
	rate := float64(s.bytesAcked) / elapsedMs
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/rate) * time.Millisecond
}

func drainBody(res *http.Response) {
	io.Copy(io.Discard, res.Body)
	res.Body.Close()
}

// Package speedprobe measures the available upstream bandwidth by posting a
// payload of random bytes to one or more measurement endpoints. The result
// is only used to seed upload ETA estimates, so all failures are soft: the
// caller is expected to carry on without a measurement.
package speedprobe

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sethgrid/pester"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"github.com/tus/tusc/internal/semaphore"
)

var defaultEndpoints = []string{
	"https://speed.cloudflare.com/__up",
}

const (
	defaultPayloadSize = 2 << 20
	defaultConcurrency = 2
)

// Probe measures upstream throughput against a set of endpoints.
type Probe struct {
	endpoints   []string
	httpClient  *http.Client
	payloadSize int
	concurrency int
	logger      *slog.Logger
}

// Option configures a Probe.
type Option func(p *Probe)

// WithEndpoints replaces the default measurement endpoints. Each endpoint
// must accept a POST request with an arbitrary body.
func WithEndpoints(endpoints ...string) Option {
	return func(p *Probe) {
		p.endpoints = endpoints
	}
}

// WithHTTPClient replaces the HTTP client used for measurement requests.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Probe) {
		p.httpClient = client
	}
}

// WithPayloadSize sets the number of random bytes posted per endpoint.
func WithPayloadSize(size int) Option {
	return func(p *Probe) {
		p.payloadSize = size
	}
}

// WithLogger replaces the probe's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Probe) {
		p.logger = logger
	}
}

// New creates a probe. Without options it posts 2 MiB to the default
// endpoints using http.DefaultClient.
func New(options ...Option) *Probe {
	probe := &Probe{
		endpoints:   defaultEndpoints,
		httpClient:  http.DefaultClient,
		payloadSize: defaultPayloadSize,
		concurrency: defaultConcurrency,
	}
	for _, option := range options {
		option(probe)
	}

	if probe.logger == nil {
		probe.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}

	return probe
}

// Measure posts the payload to every endpoint and returns the best observed
// upstream rate in megabits per second. It fails only when no endpoint
// produced a measurement.
func (p *Probe) Measure(ctx context.Context) (float64, error) {
	payload := make([]byte, p.payloadSize)
	if _, err := io.ReadFull(rand.Reader, payload); err != nil {
		return 0, err
	}

	var (
		mutex   sync.Mutex
		best    float64
		lastErr error
	)

	sem := semaphore.New(p.concurrency)
	var group errgroup.Group
	for _, endpoint := range p.endpoints {
		endpoint := endpoint
		group.Go(func() error {
			sem.Acquire()
			defer sem.Release()

			mbps, err := p.measureEndpoint(ctx, endpoint, payload)

			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				lastErr = err
				p.logger.Debug("ProbeEndpointFailed", "endpoint", endpoint, "error", err.Error())
				return nil
			}
			if mbps > best {
				best = mbps
			}
			return nil
		})
	}
	group.Wait()

	if best <= 0 {
		if lastErr == nil {
			lastErr = errors.New("speedprobe: no endpoints configured")
		}
		return 0, lastErr
	}

	return best, nil
}

func (p *Probe) measureEndpoint(ctx context.Context, endpoint string, payload []byte) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	client := pester.NewExtendedClient(p.httpClient)
	client.Concurrency = 1
	client.MaxRetries = 2
	client.Backoff = pester.ExponentialBackoff

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()
	elapsed := time.Since(start)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return 0, fmt.Errorf("speedprobe: unexpected status %d from %s", res.StatusCode, endpoint)
	}

	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	bits := float64(len(payload)) * 8
	return bits / elapsed.Seconds() / 1e6, nil
}

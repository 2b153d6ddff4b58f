package speedprobe

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/h2non/gock.v1"
)

func TestMeasure(t *testing.T) {
	a := assert.New(t)
	defer gock.Off()

	gock.New("https://probe.example.com").
		Post("/up").
		Reply(200)

	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)

	probe := New(
		WithEndpoints("https://probe.example.com/up"),
		WithHTTPClient(httpClient),
		WithPayloadSize(1024),
	)

	mbps, err := probe.Measure(context.Background())
	a.NoError(err)
	a.Greater(mbps, 0.0)
}

func TestMeasurePicksBestEndpoint(t *testing.T) {
	a := assert.New(t)
	defer gock.Off()

	gock.New("https://fast.example.com").
		Post("/up").
		Reply(200)
	gock.New("https://down.example.com").
		Post("/up").
		Persist().
		Reply(503)

	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)

	probe := New(
		WithEndpoints("https://fast.example.com/up", "https://down.example.com/up"),
		WithHTTPClient(httpClient),
		WithPayloadSize(1024),
	)

	// One failing endpoint must not spoil the measurement.
	mbps, err := probe.Measure(context.Background())
	a.NoError(err)
	a.Greater(mbps, 0.0)
}

func TestMeasureAllEndpointsFail(t *testing.T) {
	a := assert.New(t)
	defer gock.Off()

	gock.New("https://probe.example.com").
		Post("/up").
		Persist().
		Reply(500)

	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)

	probe := New(
		WithEndpoints("https://probe.example.com/up"),
		WithHTTPClient(httpClient),
		WithPayloadSize(16),
	)

	_, err := probe.Measure(context.Background())
	a.Error(err)
}

func TestMeasureNoEndpoints(t *testing.T) {
	a := assert.New(t)

	probe := New(WithEndpoints(), WithPayloadSize(16))

	_, err := probe.Measure(context.Background())
	a.Error(err)
}

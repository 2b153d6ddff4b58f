package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"

	"github.com/tus/tusc/pkg/client"
	"github.com/tus/tusc/pkg/filestore"
	"github.com/tus/tusc/pkg/memorystore"
	"github.com/tus/tusc/pkg/redisstore"
)

func Run() {
	ParseFlags()
	SetupLogging()

	store, err := buildStore()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to set up upload URL store")
	}

	metrics := client.NewMetrics()
	ExposeMetrics(metrics)

	// Files are uploaded strictly one after another.
	for _, path := range files {
		if err := uploadFile(path, store, metrics); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("upload failed")
		}
	}
}

func buildStore() (client.URLStore, error) {
	switch {
	case Flags.RedisURI != "":
		return redisstore.New(Flags.RedisURI)
	case Flags.StoreDir != "":
		if err := os.MkdirAll(Flags.StoreDir, os.FileMode(0775)); err != nil {
			return nil, err
		}
		return filestore.New(Flags.StoreDir), nil
	default:
		// Without a configured store, interrupted uploads can only be
		// resumed within this invocation.
		return memorystore.New(), nil
	}
}

func parseMetadataFlag() map[string]string {
	meta := make(map[string]string)
	if Flags.Metadata == "" {
		return meta
	}

	for _, pair := range strings.Split(Flags.Metadata, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			log.Warn().Str("entry", pair).Msg("ignoring malformed -metadata entry")
			continue
		}
		meta[key] = value
	}
	return meta
}

func uploadFile(path string, store client.URLStore, metrics client.Metrics) error {
	file, err := client.NewFileSource(path)
	if err != nil {
		return err
	}
	defer file.Close()

	c, err := client.NewClient(file, client.Config{
		Store:        store,
		MaxChunkSize: Flags.chunkSizeBytes,
		MaxRetries:   Flags.MaxRetries,
		Retry: client.RetrySchedule{
			Base:   Flags.RetryCooldown,
			Scale:  Flags.retryScale,
			Jitter: client.DefaultJitter,
		},
		Logger:  libraryLogger(),
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	size, err := file.Size()
	if err != nil {
		return err
	}

	if c.IsResumable() {
		log.Info().Str("file", path).Msg("resuming upload")
	}

	return c.Upload(context.Background(), Flags.Endpoint, client.UploadOptions{
		Metadata:     parseMetadataFlag(),
		MeasureSpeed: Flags.MeasureSpeed,
		OnStart: func(eta time.Duration, hasETA bool) {
			ev := log.Info().Str("file", path).Str("size", units.BytesSize(float64(size)))
			if hasETA {
				ev = ev.Dur("eta", eta)
			}
			ev.Msg("upload started")
		},
		OnProgress: func(percent float64, eta time.Duration) {
			log.Info().Str("file", path).Float64("percent", percent).Dur("eta", eta).Msg("uploading")
		},
		OnComplete: func() {
			log.Info().Str("file", path).Msg("upload finished")
		},
		RetryHook: func(wait time.Duration, resume func() error) error {
			log.Warn().Str("file", path).Dur("wait", wait).Msg("upload interrupted, retrying")
			time.Sleep(wait)
			return resume()
		},
	})
}

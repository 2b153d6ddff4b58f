package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/jnovack/flag"

	"github.com/tus/tusc/internal/grouped_flags"
	"github.com/tus/tusc/pkg/client"
)

var Flags struct {
	Endpoint       string
	ChunkSize      string
	Metadata       string
	MeasureSpeed   bool
	StoreDir       string
	RedisURI       string
	MaxRetries     int
	RetryCooldown  time.Duration
	RetryScaleName string
	MetricsAddr    string
	Verbose        bool
	ShowVersion    bool

	chunkSizeBytes int64
	retryScale     client.RetryScale
}

// files holds the non-flag arguments, the paths to upload.
var files []string

func ParseFlags() {
	fs := grouped_flags.NewFlagGroupSet(flag.ExitOnError)

	fs.AddGroup("Upload options", func(f *flag.FlagSet) {
		f.StringVar(&Flags.Endpoint, "endpoint", "", "URL of the upload creation endpoint, e.g. https://tusd.tusdemo.net/files/")
		f.StringVar(&Flags.ChunkSize, "chunk-size", "6MiB", "Maximum size of a single PATCH request body")
		f.StringVar(&Flags.Metadata, "metadata", "", "Additional upload metadata as comma-separated key=value pairs")
		f.BoolVar(&Flags.MeasureSpeed, "measure-speed", false, "Probe the upstream bandwidth before uploading to improve ETA estimates")
	})

	fs.AddGroup("Resumption options", func(f *flag.FlagSet) {
		f.StringVar(&Flags.StoreDir, "store", "", "Directory to persist upload URLs in, enabling resumption across restarts")
		f.StringVar(&Flags.RedisURI, "redis-store", "", "Redis URI to persist upload URLs in instead of the file system")
	})

	fs.AddGroup("Retry options", func(f *flag.FlagSet) {
		f.IntVar(&Flags.MaxRetries, "max-retries", client.DefaultMaxRetries, "Number of retries per upload before giving up")
		f.DurationVar(&Flags.RetryCooldown, "retry-cooldown", 0, "Cooldown before the first retry, e.g. 2s")
		f.StringVar(&Flags.RetryScaleName, "retry-scale", "exponential", "Growth of the cooldown between retries (constant, linear or exponential)")
	})

	fs.AddGroup("Program options", func(f *flag.FlagSet) {
		f.StringVar(&Flags.MetricsAddr, "expose-metrics", "", "Address to expose Prometheus metrics on while uploading, e.g. :8080")
		f.BoolVar(&Flags.Verbose, "verbose", false, "Enable debug logging")
		f.BoolVar(&Flags.ShowVersion, "version", false, "Print tusc version information")
	})

	fs.Parse()
	files = fs.Args()

	if Flags.ShowVersion {
		ShowVersion()
		os.Exit(0)
	}

	if Flags.Endpoint == "" || len(files) == 0 {
		fmt.Fprintln(os.Stderr, "tusc: an -endpoint and at least one file are required")
		fs.SetOutput(os.Stderr)
		fs.Usage()
		os.Exit(1)
	}

	chunkSize, err := units.RAMInBytes(Flags.ChunkSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tusc: invalid -chunk-size %q: %s\n", Flags.ChunkSize, err)
		os.Exit(1)
	}
	Flags.chunkSizeBytes = chunkSize

	switch Flags.RetryScaleName {
	case "constant":
		Flags.retryScale = client.ConstantBackoff
	case "linear":
		Flags.retryScale = client.LinearBackoff
	case "exponential":
		Flags.retryScale = client.ExponentialBackoff
	default:
		fmt.Fprintf(os.Stderr, "tusc: invalid -retry-scale %q\n", Flags.RetryScaleName)
		os.Exit(1)
	}
}

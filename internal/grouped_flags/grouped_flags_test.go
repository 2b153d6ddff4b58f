package grouped_flags

import (
	"os"
	"time"

	"github.com/jnovack/flag"
)

func ExampleNewFlagGroupSet() {
	os.Args = []string{"tusc", "-h"}

	fs := NewFlagGroupSet(flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var endpoint string
	var chunkSize string
	var measureSpeed bool
	var maxRetries int
	var retryCooldown time.Duration

	fs.AddGroup("Upload options", func(f *flag.FlagSet) {
		f.StringVar(&endpoint, "endpoint", "", "URL of the upload creation endpoint")
		f.StringVar(&chunkSize, "chunk-size", "6MiB", "Maximum size of a single PATCH request body")
		f.BoolVar(&measureSpeed, "measure-speed", false, "Probe the upstream bandwidth before uploading")
	})

	fs.AddGroup("Retry options", func(f *flag.FlagSet) {
		f.IntVar(&maxRetries, "max-retries", 5, "Number of retries per upload before giving up")
		f.DurationVar(&retryCooldown, "retry-cooldown", 2*time.Second, "Cooldown before the first retry")
	})

	fs.Parse()

	// Output:
	// Usage of tusc:
	//
	// Upload options:
	//   -chunk-size string
	//     	Maximum size of a single PATCH request body (default "6MiB")
	//   -endpoint string
	//     	URL of the upload creation endpoint
	//   -measure-speed
	//     	Probe the upstream bandwidth before uploading
	//
	// Retry options:
	//   -max-retries int
	//     	Number of retries per upload before giving up (default 5)
	//   -retry-cooldown duration
	//     	Cooldown before the first retry (default 2s)
	//
}

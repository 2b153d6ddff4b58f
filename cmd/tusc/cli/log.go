package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slog"
)

func SetupLogging() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if Flags.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// libraryLogger builds the slog logger handed to the upload client. Without
// -verbose the library stays silent and only the CLI's own progress lines
// are printed.
func libraryLogger() *slog.Logger {
	if !Flags.Verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

package client

import (
	"regexp"

	"github.com/tus/tusc/internal/uid"
)

var nonWordRun = regexp.MustCompile(`\W+`)

// Fingerprint derives the default stable identifier for a file from its
// path: every run of characters outside [A-Za-z0-9_] collapses into a single
// dot. The result is stable across runs for the same path; distinguishing
// files whose paths collide is the caller's concern.
//
// An empty path yields a random identifier that is only stable within the
// current process. Callers wanting resumption across restarts must supply
// pathed files or provide their own derivation via Config.Fingerprint.
func Fingerprint(path string) string {
	if path == "" {
		return uid.Uid()
	}

	return nonWordRun.ReplaceAllString(path, ".")
}

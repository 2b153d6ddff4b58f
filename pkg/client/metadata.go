package client

import (
	"encoding/base64"
	"strings"
)

// EncodeMetadata serializes a map of upload metadata into the value format of
// the Upload-Metadata header, where every entry is a key followed by its
// Base64 encoded value. Keys must not contain spaces or commas; this is the
// caller's responsibility. The order of entries is unspecified.
func EncodeMetadata(meta map[string]string) string {
	header := ""
	for key, value := range meta {
		valueBase64 := base64.StdEncoding.EncodeToString([]byte(value))
		header += key + " " + valueBase64 + ","
	}

	// Remove trailing comma
	if len(header) > 0 {
		header = header[:len(header)-1]
	}

	return header
}

// ParseMetadata decodes an Upload-Metadata header value into a map. Entries
// with malformed Base64 values are skipped.
func ParseMetadata(header string) map[string]string {
	meta := make(map[string]string)

	for _, element := range strings.Split(header, ",") {
		element := strings.TrimSpace(element)

		parts := strings.Split(element, " ")

		if len(parts) > 2 {
			continue
		}

		key := parts[0]
		if key == "" {
			continue
		}

		value := ""
		if len(parts) == 2 {
			dec, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				continue
			}

			value = string(dec)
		}

		meta[key] = value
	}

	return meta
}

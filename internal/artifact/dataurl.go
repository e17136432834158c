package artifact

import (
	"strings"
	"unicode/utf8"

	"github.com/hbomb79/Resonance/pkg/logger"
)

const base64Marker = ";base64"

// StripDataURL extracts the base64 payload from a data URL of the form
// 'data:<mime>;base64,<payload>'. An empty value yields false.
//
// Values which do not look like a data URL are returned unchanged (with a
// warning) on the assumption they may already be raw base64; any problem
// with them surfaces when decoding.
func StripDataURL(value string, log logger.Logger) (string, bool) {
	if value == "" {
		return "", false
	}

	if header, payload, found := strings.Cut(value, ","); found && strings.Contains(header, base64Marker) {
		return payload, true
	}

	log.Emit(logger.WARNING, "Value (%s) does not look like a base64 data URL, treating it as raw base64\n", preview(value))
	return value, true
}

const previewLength = 50

// preview returns at most the first 50 bytes of the value, for use in
// log lines. The cut never splits a multi-byte rune.
func preview(value string) string {
	if len(value) <= previewLength {
		return value
	}

	end := previewLength
	for end > 0 && !utf8.RuneStart(value[end]) {
		end--
	}

	return value[:end] + "..."
}

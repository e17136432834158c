package helpers

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/hbomb79/Resonance/internal/artifact"
	"github.com/labstack/gommon/random"
	"gotest.tools/v3/assert"
)

var mimeTypes = map[artifact.Kind]string{
	artifact.JSON:  "application/json",
	artifact.Image: "image/png",
	artifact.Audio: "audio/wav",
}

// DataURL wraps the content provided as a base64 data URL.
func DataURL(mime string, content []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// AnalysisDocument is the JSON document used as the analyzer_result
// of generated bundles.
func AnalysisDocument() map[string]any {
	return map[string]any{
		"bpm":      128.5,
		"key":      "A minor",
		"segments": []any{map[string]any{"start": 0.0, "label": "intro"}, map[string]any{"start": 12.25, "label": "verse"}},
		"notes":    "rock & <roll>",
	}
}

// FullBundle returns a bundle with every catalog field populated with a
// valid data URL, along with the raw content of each field keyed by
// field name.
func FullBundle(t *testing.T) (artifact.Bundle, map[string][]byte) {
	bundle := make(artifact.Bundle)
	contents := make(map[string][]byte)
	for _, field := range artifact.Catalog {
		var content []byte
		if field.Kind == artifact.JSON {
			encoded, err := json.Marshal(AnalysisDocument())
			assert.NilError(t, err)
			content = encoded
		} else {
			content = []byte(random.String(64))
		}

		contents[field.Name] = content
		bundle[field.Name] = DataURL(mimeTypes[field.Kind], content)
	}

	return bundle, contents
}

package artifact

import "github.com/samber/lo"

type Kind int

const (
	JSON Kind = iota
	Image
	Audio
)

func (k Kind) String() string {
	switch k {
	case JSON:
		return "json"
	case Image:
		return "image"
	case Audio:
		return "audio"
	default:
		return "unknown"
	}
}

// Field describes a single named artifact in the prediction output,
// and where its decoded content is written to.
type Field struct {
	Name     string
	Filename string
	Kind     Kind
}

// JSONErrorFilename is written in place of the JSON artifact when its
// payload cannot be decoded, so the malformed content can be inspected.
const JSONErrorFilename = "_error_analyzer_result_content.txt"

// Catalog is the fixed set of fields understood by the Persister. Fields
// not listed here are ignored.
var Catalog = []Field{
	{"analyzer_result", "analysis.json", JSON},
	{"visualization", "visualization.png", Image},
	{"demucs_bass", "demucs_bass.wav", Audio},
	{"demucs_drums", "demucs_drums.wav", Audio},
	{"demucs_guitar", "demucs_guitar.wav", Audio},
	{"demucs_other", "demucs_other.wav", Audio},
	{"demucs_piano", "demucs_piano.wav", Audio},
	{"demucs_vocals", "demucs_vocals.wav", Audio},
	{"mdx_instrumental", "mdx_instrumental.wav", Audio},
	{"mdx_other", "mdx_other.wav", Audio},
	{"mdx_vocals", "mdx_vocals.wav", Audio},
	{"sonification", "sonification.mp3", Audio},
}

// Lookup returns the catalog entry for the field name given.
func Lookup(name string) (Field, bool) {
	return lo.Find(Catalog, func(f Field) bool { return f.Name == name })
}

// Filenames returns the destination filename of every catalog field.
func Filenames() []string {
	return lo.Map(Catalog, func(f Field, _ int) string { return f.Filename })
}

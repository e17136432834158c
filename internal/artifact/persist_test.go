package artifact_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hbomb79/Resonance/internal/artifact"
	"github.com/hbomb79/Resonance/pkg/logger"
	"github.com/hbomb79/Resonance/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errWriteDenied = errors.New("test: write denied")

// failingFilesystem wraps the OS filesystem, failing any write to
// the file names provided after writing a partial file in its place.
type failingFilesystem struct {
	artifact.Filesystem
	mu       sync.Mutex
	failOn   map[string]bool
	panicOn  map[string]bool
	removed  []string
	mkdirErr error
}

func newFailingFilesystem(failOn ...string) *failingFilesystem {
	fs := &failingFilesystem{Filesystem: artifact.OSFilesystem(), failOn: make(map[string]bool), panicOn: make(map[string]bool)}
	for _, name := range failOn {
		fs.failOn[name] = true
	}

	return fs
}

func (fs *failingFilesystem) MkdirAll(path string, perm os.FileMode) error {
	if fs.mkdirErr != nil {
		return fs.mkdirErr
	}

	return fs.Filesystem.MkdirAll(path, perm)
}

func (fs *failingFilesystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if fs.panicOn[filepath.Base(name)] {
		_ = fs.Filesystem.WriteFile(name, data[:len(data)/2], perm)
		panic("disk driver failure")
	}
	if fs.failOn[filepath.Base(name)] {
		_ = fs.Filesystem.WriteFile(name, data[:len(data)/2], perm)
		return errWriteDenied
	}

	return fs.Filesystem.WriteFile(name, data, perm)
}

func (fs *failingFilesystem) Remove(name string) error {
	fs.mu.Lock()
	fs.removed = append(fs.removed, filepath.Base(name))
	fs.mu.Unlock()

	return fs.Filesystem.Remove(name)
}

func newTestPersister(fs artifact.Filesystem) (*artifact.Persister, *logger.Recorder) {
	rec := logger.NewRecorder()
	return artifact.NewPersister(fs, rec, 3), rec
}

func TestPersist_FullBundle(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "analysis_results")
	bundle, contents := helpers.FullBundle(t)
	bundle["unknown_field"] = helpers.DataURL("text/plain", []byte("ignored"))
	persister, rec := newTestPersister(nil)

	report := persister.Persist(bundle, dir)

	helpers.AssertDirContainsExactly(t, dir, artifact.Filenames())
	assert.Len(t, report.Written, len(artifact.Catalog))
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.Empty(t, rec.WithStatus(logger.ERROR))
	assert.True(t, rec.Contains(logger.DEBUG, "unknown_field"))

	for _, field := range artifact.Catalog {
		if field.Kind == artifact.JSON {
			continue
		}
		helpers.AssertFileContent(t, filepath.Join(dir, field.Filename), contents[field.Name])
	}

	raw, err := os.ReadFile(filepath.Join(dir, "analysis.json"))
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, helpers.AnalysisDocument(), parsed)
	assert.Contains(t, string(raw), "\n  \"bpm\": 128.5", "expected JSON to be re-indented")
	assert.Contains(t, string(raw), "rock & <roll>", "expected HTML characters to be preserved")
}

func TestPersist_IsIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bundle, _ := helpers.FullBundle(t)
	persister, _ := newTestPersister(nil)

	first := persister.Persist(bundle, dir)
	second := persister.Persist(bundle, dir)

	assert.Equal(t, first.Written, second.Written)
	assert.Empty(t, second.Failed)
	helpers.AssertDirContainsExactly(t, dir, artifact.Filenames())
}

func TestPersist_InvalidJSONBase64(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bundle, _ := helpers.FullBundle(t)
	bundle["analyzer_result"] = "data:application/json;base64,***not-base64***"
	persister, rec := newTestPersister(nil)

	report := persister.Persist(bundle, dir)

	expected := []string{artifact.JSONErrorFilename}
	for _, f := range artifact.Catalog {
		if f.Kind != artifact.JSON {
			expected = append(expected, f.Filename)
		}
	}
	helpers.AssertDirContainsExactly(t, dir, expected)
	helpers.AssertFileContent(t, filepath.Join(dir, artifact.JSONErrorFilename), []byte("***not-base64***"))

	require.Contains(t, report.Failed, "analyzer_result")
	var fieldErr *artifact.FieldError
	require.ErrorAs(t, report.Failed["analyzer_result"], &fieldErr)
	assert.Equal(t, artifact.StageDecode, fieldErr.Stage)
	assert.Len(t, report.Written, len(artifact.Catalog)-1)
	assert.True(t, rec.Contains(logger.ERROR, "analyzer_result"))
}

func TestPersist_MalformedJSONDocument(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content []byte
		stage   artifact.Stage
	}{
		{"truncated object", []byte(`{"bpm": 120, "key": `), artifact.StageJSON},
		{"trailing garbage", []byte(`{"bpm": 120} extra`), artifact.StageJSON},
		{"invalid utf8", []byte{'"', 0xff, 0xfe, '"'}, artifact.StageUTF8},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			persister, _ := newTestPersister(nil)

			report := persister.Persist(artifact.Bundle{"analyzer_result": helpers.DataURL("application/json", test.content)}, dir)

			assert.NoFileExists(t, filepath.Join(dir, "analysis.json"))
			helpers.AssertFileContent(t, filepath.Join(dir, artifact.JSONErrorFilename), test.content)

			var fieldErr *artifact.FieldError
			require.ErrorAs(t, report.Failed["analyzer_result"], &fieldErr)
			assert.Equal(t, test.stage, fieldErr.Stage)
		})
	}
}

func TestPersist_MissingAndEmptyFieldsAreSkipped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bundle, _ := helpers.FullBundle(t)
	delete(bundle, "demucs_piano")
	bundle["mdx_other"] = ""
	bundle["visualization"] = nil
	bundle["sonification"] = "data:audio/mpeg;base64,"
	persister, rec := newTestPersister(nil)

	report := persister.Persist(bundle, dir)

	assert.ElementsMatch(t, []string{"demucs_piano", "mdx_other", "visualization", "sonification"}, report.Skipped)
	assert.Empty(t, report.Failed)
	for _, name := range []string{"demucs_piano.wav", "mdx_other.wav", "visualization.png", "sonification.mp3"} {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
	assert.True(t, rec.Contains(logger.WARNING, "demucs_piano"))
	assert.Empty(t, rec.WithStatus(logger.ERROR))
}

func TestPersist_InvalidAudioIsCleanedUp(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	stale := filepath.Join(dir, "demucs_vocals.wav")
	require.NoError(t, os.WriteFile(stale, []byte("partial"), 0o644))

	bundle, _ := helpers.FullBundle(t)
	bundle["demucs_vocals"] = "data:audio/wav;base64,@@@@invalid-base64-content-which-is-quite-long-indeed-yes@@@@"
	persister, rec := newTestPersister(nil)

	report := persister.Persist(bundle, dir)

	assert.NoFileExists(t, stale)
	require.Contains(t, report.Failed, "demucs_vocals")
	assert.Len(t, report.Written, len(artifact.Catalog)-1)

	errs := rec.WithStatus(logger.ERROR)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "@@@@invalid-base64-content-which-is-quite-long-ind...")
}

func TestPersist_WriteFailureRemovesPartialFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := newFailingFilesystem("mdx_vocals.wav")
	bundle, _ := helpers.FullBundle(t)
	persister, _ := newTestPersister(fs)

	report := persister.Persist(bundle, dir)

	assert.NoFileExists(t, filepath.Join(dir, "mdx_vocals.wav"))
	assert.Contains(t, fs.removed, "mdx_vocals.wav")
	require.Contains(t, report.Failed, "mdx_vocals")
	assert.ErrorIs(t, report.Failed["mdx_vocals"], errWriteDenied)
	assert.Len(t, report.Written, len(artifact.Catalog)-1)
}

func TestPersist_PanicDuringWriteRemovesPartialFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := newFailingFilesystem()
	fs.panicOn["mdx_vocals.wav"] = true
	bundle, _ := helpers.FullBundle(t)
	persister, rec := newTestPersister(fs)

	report := persister.Persist(bundle, dir)

	assert.NoFileExists(t, filepath.Join(dir, "mdx_vocals.wav"))
	assert.Contains(t, fs.removed, "mdx_vocals.wav")
	require.Contains(t, report.Failed, "mdx_vocals")
	assert.ErrorContains(t, report.Failed["mdx_vocals"], "disk driver failure")
	assert.Len(t, report.Written, len(artifact.Catalog)-1)
	assert.True(t, rec.Contains(logger.ERROR, "Unexpected failure while saving mdx_vocals"))
}

func TestPersist_SuccessRemovesStaleDiagnostic(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	stale := filepath.Join(dir, artifact.JSONErrorFilename)
	require.NoError(t, os.WriteFile(stale, []byte("{not json"), 0o644))
	bundle, _ := helpers.FullBundle(t)
	persister, _ := newTestPersister(nil)

	report := persister.Persist(bundle, dir)

	assert.Empty(t, report.Failed)
	assert.NoFileExists(t, stale)
	helpers.AssertDirContainsExactly(t, dir, artifact.Filenames())
}

func TestPersist_DiagnosticWriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := newFailingFilesystem(artifact.JSONErrorFilename)
	persister, rec := newTestPersister(fs)

	report := persister.Persist(artifact.Bundle{"analyzer_result": "data:application/json;base64,e30"}, dir)

	require.Contains(t, report.Failed, "analyzer_result")
	assert.True(t, rec.Contains(logger.ERROR, "diagnostic"))
	assert.Len(t, report.Skipped, len(artifact.Catalog)-1)
}

func TestPersist_UnusableValueIsFieldFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bundle, _ := helpers.FullBundle(t)
	bundle["demucs_bass"] = map[string]any{"url": "https://example.com/bass.wav"}
	persister, _ := newTestPersister(nil)

	report := persister.Persist(bundle, dir)

	var fieldErr *artifact.FieldError
	require.ErrorAs(t, report.Failed["demucs_bass"], &fieldErr)
	assert.Equal(t, artifact.StageValue, fieldErr.Stage)
	assert.NoFileExists(t, filepath.Join(dir, "demucs_bass.wav"))
	assert.Len(t, report.Written, len(artifact.Catalog)-1)
}

func TestPersist_DirectoryFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := newFailingFilesystem()
	fs.mkdirErr = errWriteDenied
	bundle, _ := helpers.FullBundle(t)
	persister, rec := newTestPersister(fs)

	report := persister.Persist(bundle, filepath.Join(dir, "out"))

	assert.Len(t, report.Failed, len(artifact.Catalog))
	assert.Empty(t, report.Written)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
	assert.True(t, rec.Contains(logger.ERROR, "could not be prepared"))
}

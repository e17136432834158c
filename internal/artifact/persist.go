package artifact

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hbomb79/Resonance/pkg/logger"
	"github.com/hbomb79/Resonance/pkg/worker"
	"github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
)

const (
	DefaultConcurrency = 4

	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

var (
	ErrInvalidUTF8 = errors.New("decoded content is not valid UTF-8")
	ErrInvalidJSON = errors.New("decoded content is not valid JSON")
)

// Persister decodes the fields of a prediction output bundle and writes
// each to its own file. Failures are isolated to the field they occur in;
// Persist always processes every field in the Catalog.
type Persister struct {
	fs          Filesystem
	log         logger.Logger
	concurrency int
}

// NewPersister creates a Persister which writes through the filesystem
// provided, using up to 'concurrency' workers. A nil filesystem or logger
// selects the OS filesystem and the default 'Persister' logger.
func NewPersister(fs Filesystem, log logger.Logger, concurrency int) *Persister {
	if fs == nil {
		fs = OSFilesystem()
	}
	if log == nil {
		log = logger.Get("Persister")
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	return &Persister{fs: fs, log: log, concurrency: concurrency}
}

// Persist writes every artifact of the bundle in to outputDir, creating the
// directory if required. It never fails; the outcome of each field is
// recorded in the returned Report.
func (p *Persister) Persist(bundle Bundle, outputDir string) *Report {
	report := newReport()

	dir, err := p.prepareDirectory(outputDir)
	if err != nil {
		p.log.Emit(logger.ERROR, "Output directory %q could not be prepared, no artifacts will be saved: %v\n", outputDir, err)
		for _, field := range Catalog {
			report.failed(field.Name, newFieldError(field.Name, StageWrite, err))
		}
		return report
	}

	p.logUnknownFields(bundle)

	pending := append([]Field(nil), Catalog...)
	mu := &sync.Mutex{}
	claimField := func(_ worker.Worker) (bool, error) {
		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return false, nil
		}
		field := pending[0]
		pending = pending[1:]
		mu.Unlock()

		p.persistField(bundle, field, dir, report)
		return true, nil
	}

	pool := worker.NewTaskPool("persist-worker", min(p.concurrency, len(Catalog)), claimField)
	if err := pool.Run(); err != nil {
		p.log.Emit(logger.WARNING, "Persist worker pool failed to start (%v), processing artifacts sequentially\n", err)
		for {
			if didWork, _ := claimField(nil); !didWork {
				break
			}
		}
	}

	report.sortFields()
	p.log.Emit(logger.INFO, "Artifacts saved to %s: %d written, %d skipped, %d failed\n", dir, len(report.Written), len(report.Skipped), len(report.Failed))
	return report
}

func (p *Persister) logUnknownFields(bundle Bundle) {
	names := lo.Keys(bundle)
	sort.Strings(names)
	for _, name := range names {
		if _, ok := Lookup(name); !ok {
			p.log.Emit(logger.DEBUG, "Ignoring unknown output field %q\n", name)
		}
	}
}

func (p *Persister) prepareDirectory(outputDir string) (string, error) {
	dir, err := homedir.Expand(outputDir)
	if err != nil {
		return "", fmt.Errorf("failed to expand output directory: %w", err)
	}

	if err := p.fs.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	return dir, nil
}

// persistField processes a single field of the bundle. A panic while
// handling the field is recovered and recorded as a failure of that
// field alone.
func (p *Persister) persistField(bundle Bundle, field Field, dir string, report *Report) {
	target := filepath.Join(dir, field.Filename)
	defer func() {
		if r := recover(); r != nil {
			err := newFieldError(field.Name, StageWrite, fmt.Errorf("panic: %v", r))
			p.log.Emit(logger.ERROR, "Unexpected failure while saving %s: %v\n", field.Name, err)
			p.removePartial(target)
			report.failed(field.Name, err)
		}
	}()

	value, err := bundle.Value(field.Name)
	if err != nil {
		fieldErr := newFieldError(field.Name, StageValue, err)
		p.log.Emit(logger.ERROR, "Skipping %s: %v\n", field.Name, fieldErr)
		report.failed(field.Name, fieldErr)
		return
	}

	payload, ok := StripDataURL(value, p.log)
	if !ok || payload == "" {
		p.log.Emit(logger.WARNING, "No data found for %s, skipping\n", field.Name)
		report.skipped(field.Name)
		return
	}

	if field.Kind == JSON {
		err = p.persistJSON(field, payload, target)
	} else {
		err = p.persistBinary(field, payload, target)
	}

	if err != nil {
		report.failed(field.Name, err)
		return
	}

	report.written(field.Name)
}

// persistJSON decodes the payload and re-serialises it with stable
// indentation. If the payload cannot be understood, the best available
// form of it is written to the diagnostic file instead.
func (p *Persister) persistJSON(field Field, payload string, target string) error {
	decoded, err := decodeBase64(payload)
	if err != nil {
		return p.failJSON(field, target, []byte(payload), newFieldError(field.Name, StageDecode, err))
	}
	if !utf8.Valid(decoded) {
		return p.failJSON(field, target, decoded, newFieldError(field.Name, StageUTF8, ErrInvalidUTF8))
	}

	formatted, err := reindentJSON(decoded)
	if err != nil {
		return p.failJSON(field, target, decoded, newFieldError(field.Name, StageJSON, err))
	}

	if err := p.write(field, target, formatted, payload); err != nil {
		return err
	}

	p.removePartial(diagnosticPath(target))
	return nil
}

func diagnosticPath(target string) string {
	return filepath.Join(filepath.Dir(target), JSONErrorFilename)
}

func (p *Persister) failJSON(field Field, target string, content []byte, err *FieldError) error {
	p.log.Emit(logger.ERROR, "Failed to decode %s (%s): %v\n", field.Name, preview(string(content)), err.Err)
	p.removePartial(target)

	diagnostic := diagnosticPath(target)
	if writeErr := p.fs.WriteFile(diagnostic, content, filePerm); writeErr != nil {
		p.log.Emit(logger.ERROR, "Failed to write diagnostic content for %s to %s: %v\n", field.Name, diagnostic, writeErr)
	} else {
		p.log.Emit(logger.WARNING, "Raw content of %s saved to %s for inspection\n", field.Name, diagnostic)
	}

	return err
}

func (p *Persister) persistBinary(field Field, payload string, target string) error {
	decoded, err := decodeBase64(payload)
	if err != nil {
		p.log.Emit(logger.ERROR, "Failed to decode %s %s (%s): %v\n", field.Kind, field.Name, preview(payload), err)
		p.removePartial(target)
		return newFieldError(field.Name, StageDecode, err)
	}

	return p.write(field, target, decoded, payload)
}

func (p *Persister) write(field Field, target string, content []byte, payload string) error {
	if err := p.fs.WriteFile(target, content, filePerm); err != nil {
		p.log.Emit(logger.ERROR, "Failed to write %s to %s (%s): %v\n", field.Name, target, preview(payload), err)
		p.removePartial(target)
		return newFieldError(field.Name, StageWrite, err)
	}

	p.log.Emit(logger.SUCCESS, "Saved %s (%d bytes) to %s\n", field.Name, len(content), target)
	return nil
}

// removePartial deletes whatever may have been left at the path given. Failure
// to do so is logged and otherwise ignored.
func (p *Persister) removePartial(target string) {
	if err := p.fs.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.log.Emit(logger.WARNING, "Could not remove partial file %s: %v\n", target, err)
	}
}

func decodeBase64(payload string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
}

func reindentJSON(content []byte) ([]byte, error) {
	if !json.Valid(content) {
		return nil, ErrInvalidJSON
	}

	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()
	var parsed any
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(parsed); err != nil {
		return nil, fmt.Errorf("failed to re-encode JSON: %w", err)
	}

	return buf.Bytes(), nil
}

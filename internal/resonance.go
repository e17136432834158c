package internal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hbomb79/Resonance/internal/artifact"
	"github.com/hbomb79/Resonance/internal/http/prediction"
	"github.com/hbomb79/Resonance/pkg/logger"
)

// ErrMissingOutput is returned when the prediction succeeds at the
// transport level but carries no output bundle to persist.
var ErrMissingOutput = errors.New("prediction response carried no output")

type (
	Requester interface {
		Submit(context.Context, prediction.Request) (*prediction.Response, error)
	}

	Persister interface {
		Persist(artifact.Bundle, string) *artifact.Report
	}

	// Resonance is the top-level object which submits a single analysis
	// job and persists the artifacts it produces.
	Resonance struct {
		config    *ResonanceConfig
		requester Requester
		persister Persister
		log       logger.Logger
	}
)

// New constructs a Resonance using the default prediction client and
// persister, configured from the config provided.
func New(config *ResonanceConfig) *Resonance {
	return NewWithServices(
		config,
		prediction.NewClient(config.Prediction.clientConfig(), nil),
		artifact.NewPersister(artifact.OSFilesystem(), nil, config.Concurrency),
		nil,
	)
}

func NewWithServices(config *ResonanceConfig, requester Requester, persister Persister, log logger.Logger) *Resonance {
	if log == nil {
		log = logger.Get("Resonance")
	}

	return &Resonance{config: config, requester: requester, persister: persister, log: log}
}

// Run submits the music URL for analysis and saves the artifacts returned
// to the configured output directory. An error is returned only if the
// request failed (matching prediction.ErrTransport) or the response had no
// output (ErrMissingOutput); per-artifact failures are reported in the
// returned Report.
//
// The status of the prediction is advisory: output is persisted even if
// the API reports the prediction failed.
func (r *Resonance) Run(ctx context.Context, musicURL string) (*artifact.Report, error) {
	if musicURL == "" {
		musicURL = r.config.DefaultMusicURL
	}

	runID := uuid.New()
	r.log.Emit(logger.NEW, "Run %s: analysing %s\n", runID, musicURL)

	resp, err := r.requester.Submit(ctx, prediction.Request{
		MusicInputURL: musicURL,
		Visualize:     r.config.Visualize,
		Sonify:        r.config.Sonify,
	})
	if err != nil {
		r.log.Emit(logger.ERROR, "Run %s: no analysis data was obtained: %v\n", runID, err)
		return nil, err
	}

	if !resp.HasOutput() {
		r.log.Emit(logger.ERROR, "Run %s: prediction %s returned no output (status %q)\n", runID, resp.ID, resp.Status)
		return nil, ErrMissingOutput
	}

	if !resp.Succeeded() {
		r.log.Emit(logger.WARNING, "Run %s: prediction reported status %q, saving the output it returned regardless\n", runID, resp.Status)
	}

	report := r.persister.Persist(resp.Output, r.config.OutputDir)
	r.log.Emit(logger.STOP, "Run %s: finished (%d saved, %d skipped, %d failed)\n", runID, len(report.Written), len(report.Skipped), len(report.Failed))
	return report, nil
}

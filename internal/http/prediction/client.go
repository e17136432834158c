package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hbomb79/Resonance/pkg/logger"
)

type (
	Config struct {
		Endpoint   string
		ApiToken   string
		PreferWait bool
		Timeout    time.Duration
	}

	// Client submits analysis jobs to a Replicate-style prediction API.
	// Each call to Submit performs exactly one POST; there are no retries.
	Client struct {
		config Config
		http   *http.Client
		log    logger.Logger
	}
)

// NewClient creates a Client using the config provided. A nil logger selects
// the default 'Requester' logger.
func NewClient(config Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.Get("Requester")
	}

	return &Client{config: config, http: &http.Client{Timeout: config.Timeout}, log: log}
}

// Submit posts the request to the configured endpoint and returns the parsed response.
// An error is returned (matching ErrTransport) if:
//   - The request could not be performed
//   - The API responds with a non-2xx status
//   - The response body could not be read or parsed
//
// A response whose status is not 'succeeded' is NOT an error, a warning is
// logged and the response returned so the caller can decide what to do with it.
func (client *Client) Submit(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req.body())
	if err != nil {
		return nil, &UnknownRequestError{reason: "failed to encode request", err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, client.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &UnknownRequestError{reason: "failed to construct request", err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if client.config.ApiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+client.config.ApiToken)
	}
	if client.config.PreferWait {
		httpReq.Header.Set("Prefer", "wait")
	}

	client.log.Emit(logger.INFO, "Submitting analysis of %s (visualize=%v, sonify=%v)\n", req.MusicInputURL, req.Visualize, req.Sonify)
	resp, err := client.http.Do(httpReq)
	if err != nil {
		client.log.Emit(logger.ERROR, "Failed to perform POST(%s): %v\n", client.config.Endpoint, err)
		return nil, &UnknownRequestError{reason: "failed to perform POST to " + client.config.Endpoint, err: err}
	}

	defer resp.Body.Close()
	respBody, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := strings.TrimSpace(string(respBody))
		client.log.Emit(logger.ERROR, "Prediction request failed with HTTP %d: %s\n", resp.StatusCode, body)
		return nil, &FailedRequestError{StatusCode: resp.StatusCode, Body: body}
	}

	if readErr != nil {
		client.log.Emit(logger.ERROR, "Failed to read prediction response body: %v\n", readErr)
		return nil, &UnknownRequestError{reason: "failed to read response body", err: readErr}
	}

	prediction, err := parseResponse(respBody)
	if err != nil {
		client.log.Emit(logger.ERROR, "Prediction response could not be parsed: %v\n", err)
		return nil, &UnknownRequestError{reason: "response JSON could not be unmarshalled", err: err}
	}

	if !prediction.Succeeded() {
		client.log.Emit(logger.WARNING, "Prediction %s finished with status %q\n", prediction.ID, prediction.Status)
		if prediction.Error != "" {
			client.log.Emit(logger.WARNING, "Prediction error: %s\n", prediction.Error)
		}
	} else {
		client.log.Emit(logger.SUCCESS, "Prediction %s completed\n", prediction.ID)
	}

	return prediction, nil
}

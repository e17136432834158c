package prediction

import (
	"encoding/json"
	"fmt"

	"github.com/hbomb79/Resonance/internal/artifact"
	"github.com/tidwall/gjson"
)

const StatusSucceeded = "succeeded"

type (
	// Request describes the single analysis job submitted to the API.
	Request struct {
		MusicInputURL string
		Visualize     bool
		Sonify        bool
	}

	requestBody struct {
		Input requestInput `json:"input"`
	}

	requestInput struct {
		MusicInput string `json:"music_input"`
		Visualize  bool   `json:"visualize"`
		Sonify     bool   `json:"sonify"`
	}

	// Response is the parsed body of a successful prediction request. Output
	// is nil when the API did not return an output object.
	Response struct {
		ID     string          `json:"id"`
		Output artifact.Bundle `json:"-"`
		Logs   string          `json:"logs"`
		Status string          `json:"status"`
		Error  string          `json:"-"`
	}
)

func (req Request) body() requestBody {
	return requestBody{Input: requestInput{MusicInput: req.MusicInputURL, Visualize: req.Visualize, Sonify: req.Sonify}}
}

// HasOutput returns true if the response carried an output bundle.
func (resp *Response) HasOutput() bool { return resp.Output != nil }

// Succeeded returns true if the response carries no status, or the
// status reports success.
func (resp *Response) Succeeded() bool {
	return resp.Status == "" || resp.Status == StatusSucceeded
}

// parseResponse decodes a prediction body. The 'error' field is accepted
// either as a plain string or as an object of code/message/detail, and an
// 'output' which is not an object is treated as absent.
func parseResponse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	if output := gjson.GetBytes(body, "output"); output.IsObject() {
		bundle := make(artifact.Bundle)
		if err := json.Unmarshal([]byte(output.Raw), &bundle); err != nil {
			return nil, fmt.Errorf("output could not be decoded: %w", err)
		}
		resp.Output = bundle
	}

	resp.Error = errorMessage(gjson.GetBytes(body, "error"))
	return &resp, nil
}

func errorMessage(result gjson.Result) string {
	switch {
	case !result.Exists() || result.Type == gjson.Null:
		return ""
	case result.IsObject():
		for _, key := range []string{"message", "detail", "code"} {
			if v := result.Get(key).String(); v != "" {
				return v
			}
		}
		return result.Raw
	default:
		return result.String()
	}
}

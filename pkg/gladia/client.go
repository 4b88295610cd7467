// Package gladia fetches pre-recorded transcription results from the Gladia
// API. Transcripts are normally posted inline by the frontend; this client
// covers callers that only hold a Gladia result ID.
package gladia

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.gladia.io"

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-gladia-key", apiKey).
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &Client{http: httpClient}
}

// GetResult fetches a finished pre-recorded transcription result as raw JSON.
// The payload shape is owned by the transcript parser, not by this client.
func (c *Client) GetResult(ctx context.Context, resultID string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/v2/pre-recorded/" + resultID)
	if err != nil {
		return nil, fmt.Errorf("gladia request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gladia returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return json.RawMessage(resp.Body()), nil
}

package ack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client delivers acknowledgements straight to the remote endpoint with a
// single POST per event.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a direct acknowledgement client. A nil httpClient
// falls back to http.DefaultClient.
func NewClient(httpClient *http.Client, endpoint string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

func (c *Client) Acknowledge(ctx context.Context, a Ack) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrSendFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}

	return nil
}

var _ Dispatcher = (*Client)(nil)

package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrForwardFailed wraps transport failures and non-2xx responses from
// the collection endpoint.
var ErrForwardFailed = errors.New("event forward failed")

// Forwarder POSTs each event to the collection endpoint. One shot per
// event; a lost event is simply lost.
type Forwarder struct {
	httpClient *http.Client
	endpoint   string
}

// NewForwarder creates a forwarder. A nil httpClient falls back to
// http.DefaultClient.
func NewForwarder(httpClient *http.Client, endpoint string) *Forwarder {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Forwarder{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

func (f *Forwarder) Track(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrForwardFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrForwardFailed, resp.StatusCode)
	}

	return nil
}

var _ Sink = (*Forwarder)(nil)

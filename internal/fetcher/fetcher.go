// Package fetcher retrieves eligible notifications from the remote source
// and lands them in the visitor's record store.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/engagekit/onsite/internal/ack"
	"github.com/engagekit/onsite/internal/notification"
	"go.uber.org/zap"
)

// ErrFetchFailed wraps transport failures, non-200 responses, and
// undecodable bodies from the notification source.
var ErrFetchFailed = errors.New("notification fetch failed")

// Fetcher reads notifications for one identity from the remote source,
// upserts each into the store, and acknowledges each as delivered.
type Fetcher struct {
	httpClient *http.Client
	endpoint   string
	appID      string
	acks       ack.Dispatcher
	logger     *zap.Logger
}

// New creates a fetcher. A nil httpClient falls back to
// http.DefaultClient.
func New(httpClient *http.Client, endpoint, appID string, acks ack.Dispatcher, logger *zap.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Fetcher{
		httpClient: httpClient,
		endpoint:   endpoint,
		appID:      appID,
		acks:       acks,
		logger:     logger,
	}
}

type fetchResponse struct {
	Notifications []*notification.Record `json:"notifications"`
}

// Fetch pulls notifications for the given credentials into the store.
// Unrecognizable credentials skip the request entirely and return nil.
// Each record's upsert-then-acknowledge pair is isolated: a failure on
// one record is logged and the rest still land.
func (f *Fetcher) Fetch(ctx context.Context, store notification.Store, credentials string) error {
	param, ok := Classify(credentials)
	if !ok {
		f.logger.Debug("credentials not identifiable, skipping fetch")

		return nil
	}

	endpoint, err := url.Parse(f.endpoint)
	if err != nil {
		return fmt.Errorf("%w: endpoint: %v", ErrFetchFailed, err)
	}

	query := endpoint.Query()
	query.Set("appId", f.appID)
	query.Set(param, credentials)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var body fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrFetchFailed, err)
	}

	for _, record := range body.Notifications {
		if err := store.Upsert(ctx, record); err != nil {
			f.logger.Error("failed to store fetched notification",
				zap.String("commId", record.CommID),
				zap.Error(err),
			)

			continue
		}

		delivered := ack.Ack{CDID: record.CDID, CommID: record.CommID, Event: ack.EventDelivered}
		if err := f.acks.Acknowledge(ctx, delivered); err != nil {
			f.logger.Error("failed to acknowledge delivery",
				zap.String("commId", record.CommID),
				zap.Error(err),
			)
		}
	}

	f.logger.Debug("fetched notifications",
		zap.Int("count", len(body.Notifications)),
	)

	return nil
}

var _ notification.RemoteSource = (*Fetcher)(nil)

package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the SDK API surface.
func RegisterRoutes(api huma.API, sdk *SDKHandler) {
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/v1/sync",
		Summary:     "Sync a page view",
		Description: "Runs the notification lifecycle for one page load and returns the notification to render, if any.",
		Tags:        []string{"Notifications"},
	}, sdk.Sync)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/v1/prefetch",
		Summary:       "Prefetch notifications",
		Description:   "Asks the background worker to refresh the visitor's stored notifications.",
		Tags:          []string{"Notifications"},
		DefaultStatus: http.StatusAccepted,
	}, sdk.Prefetch)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/v1/events",
		Summary:       "Track an event",
		Description:   "Ingests one e-commerce lifecycle event. Fire-and-forget: accepted regardless of downstream outcome.",
		Tags:          []string{"Tracking"},
		DefaultStatus: http.StatusAccepted,
	}, sdk.TrackEvent)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/v1/interactions",
		Summary:       "Report a notification interaction",
		Description:   "Acknowledges a shown or clicked interaction with a rendered notification.",
		Tags:          []string{"Notifications"},
		DefaultStatus: http.StatusAccepted,
	}, sdk.RecordInteraction)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/v1/push/subscriptions",
		Summary:       "Register a push subscription",
		Tags:          []string{"Push"},
		DefaultStatus: http.StatusNoContent,
	}, sdk.RegisterPush)

	huma.Register(api, huma.Operation{
		Method:        http.MethodDelete,
		Path:          "/v1/push/subscriptions/{token}",
		Summary:       "Unregister a push subscription",
		Tags:          []string{"Push"},
		DefaultStatus: http.StatusNoContent,
	}, sdk.UnregisterPush)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/v1/logout",
		Summary:       "End a visitor session",
		Description:   "Discards the visitor's stored notifications and push subscriptions.",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusNoContent,
	}, sdk.Logout)
}

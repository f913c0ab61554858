package kumo

import (
	"context"

	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
)

// EventFetcher issues the long-poll request for a connection id.
type EventFetcher struct {
	device DeviceSession
}

// NewEventFetcher creates a fetcher on top of a DeviceSession.
func NewEventFetcher(device DeviceSession) *EventFetcher {
	return &EventFetcher{device: device}
}

// Fetch blocks until the router reports changes or the transport times out.
// A non-OK status is logged and yields an empty batch. Network-layer failures,
// the 417 signature included, are returned so the poll loop can track
// connectivity. Fetch never retries; the poll interval does.
func (f *EventFetcher) Fetch(ctx context.Context, cookie string, connectionID int) ([]ParameterEvent, error) {
	events, err := f.device.WaitForEvents(ctx, cookie, connectionID)
	if err == nil {
		if len(events) > 0 {
			logging.Debug("Polling event data",
				zap.Int("connection_id", connectionID),
				zap.Int("events", len(events)),
			)
		}
		return events, nil
	}

	if IsNetworkError(err) {
		return nil, err
	}
	if IsHTTPError(err) {
		logging.Error("Error getting events", zap.Error(err))
		return nil, nil
	}
	return nil, err
}

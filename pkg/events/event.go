package events

import (
	"time"

	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

// TypeSessionExpired marks an event emitted when the backend rejected the session.
const TypeSessionExpired = "session.expired"

// Event represents the payload published downstream.
type Event struct {
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSessionExpired constructs an Event from the client's expiry notification.
func NewSessionExpired(source string, evt httpclient.SessionExpired) Event {
	occurred := evt.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return Event{
		Type:       TypeSessionExpired,
		Source:     source,
		Method:     evt.Method,
		URL:        evt.URL,
		StatusCode: evt.StatusCode,
		OccurredAt: occurred.UTC(),
	}
}

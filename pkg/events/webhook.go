package events

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// webhookSink POSTs events as JSON. It uses a bare resty client so the
// session credential never reaches a third-party endpoint.
type webhookSink struct {
	name    string
	url     string
	headers map[string]string
	client  *resty.Client
	log     httpclient.Logger
}

func openWebhookSink(_ context.Context, cfg SinkConfig, log httpclient.Logger) (Sink, error) {
	return &webhookSink{
		name:    cfg.Name,
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  httpclient.NewRestyHTTPClient(cfg.Timeout),
		log:     log,
	}, nil
}

func (w *webhookSink) Name() string { return w.name }

func (w *webhookSink) Deliver(ctx context.Context, evt Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeaders(w.headers).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Event-Type", evt.Type).
		SetBody(evt).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if !resp.IsSuccess() {
		return &httpclient.StatusError{
			Method:     http.MethodPost,
			URL:        w.url,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Header:     resp.Header(),
			Body:       resp.Body(),
		}
	}
	w.log.DebugObj("session event delivered", "session_event_webhook", map[string]any{
		"sink":   w.name,
		"status": resp.StatusCode(),
	})
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

// pubsubSink publishes events to a Google Cloud Pub/Sub topic. It honours
// PUBSUB_EMULATOR_HOST, which is how tests reach an in-memory server.
type pubsubSink struct {
	name   string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    httpclient.Logger
}

func openPubSubSink(ctx context.Context, cfg SinkConfig, log httpclient.Logger) (Sink, error) {
	client, err := pubsub.NewClient(ctx, cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Topic)
	ok, err := topic.Exists(ctx)
	if err == nil && !ok {
		err = fmt.Errorf("topic %q does not exist in project %q", cfg.Topic, cfg.Project)
	}
	if err != nil {
		topic.Stop()
		_ = client.Close()
		return nil, err
	}

	return &pubsubSink{
		name:   cfg.Name,
		client: client,
		topic:  topic,
		log:    httpclient.LoggerOrDiscard(log),
	}, nil
}

func (p *pubsubSink) Name() string { return p.name }

// Deliver publishes evt and waits for the server acknowledgement.
func (p *pubsubSink) Deliver(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	id, err := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: eventAttributes(evt),
	}).Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub publish: %w", err)
	}
	p.log.DebugObj("session event published", "session_event_pubsub", map[string]any{
		"sink":       p.name,
		"message_id": id,
	})
	return nil
}

// Close flushes pending messages and releases the client.
func (p *pubsubSink) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

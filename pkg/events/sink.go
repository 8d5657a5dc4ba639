package events

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

// Sink kinds accepted in the "sinks" section of the config file.
const (
	KindLog     = "log"
	KindWebhook = "webhook"
	KindSQS     = "sqs"
	KindSNS     = "sns"
	KindPubSub  = "pubsub"
)

const defaultWebhookTimeout = 5 * time.Second

// Sink receives session events.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, evt Event) error
}

// SinkConfig declares one destination for session events. Only the fields of
// its Kind are read.
type SinkConfig struct {
	Name     string `mapstructure:"name"`
	Kind     string `mapstructure:"kind"`
	Disabled bool   `mapstructure:"disabled"`

	// webhook
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`

	// sqs, sns
	QueueURL string `mapstructure:"queue_url"`
	TopicARN string `mapstructure:"topic_arn"`
	Region   string `mapstructure:"region"`

	// pubsub
	Project string `mapstructure:"project"`
	Topic   string `mapstructure:"topic"`
}

type sinkKind struct {
	open     func(ctx context.Context, cfg SinkConfig, log httpclient.Logger) (Sink, error)
	required func(cfg SinkConfig) map[string]string
}

var sinkKinds = map[string]sinkKind{
	KindLog: {open: openLogSink},
	KindWebhook: {
		open:     openWebhookSink,
		required: func(c SinkConfig) map[string]string { return map[string]string{"url": c.URL} },
	},
	KindSQS: {
		open: openSQSSink,
		required: func(c SinkConfig) map[string]string {
			return map[string]string{"queue_url": c.QueueURL, "region": c.Region}
		},
	},
	KindSNS: {
		open: openSNSSink,
		required: func(c SinkConfig) map[string]string {
			return map[string]string{"topic_arn": c.TopicARN, "region": c.Region}
		},
	},
	KindPubSub: {
		open: openPubSubSink,
		required: func(c SinkConfig) map[string]string {
			return map[string]string{"project": c.Project, "topic": c.Topic}
		},
	},
}

// normalized trims the entry, fills defaults and checks the fields its kind needs.
func (c SinkConfig) normalized() (SinkConfig, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	c.URL = strings.TrimSpace(c.URL)
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.Project = strings.TrimSpace(c.Project)
	c.Topic = strings.TrimSpace(c.Topic)

	if c.Name == "" {
		return c, errors.New("sink name is required")
	}
	kind, ok := sinkKinds[c.Kind]
	if !ok {
		return c, fmt.Errorf("sink %q: unknown kind %q", c.Name, c.Kind)
	}
	if kind.required != nil {
		for field, value := range kind.required(c) {
			if value == "" {
				return c, fmt.Errorf("sink %q: %s is required for kind %s", c.Name, field, c.Kind)
			}
		}
	}

	if c.Kind == KindWebhook {
		if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return c, fmt.Errorf("sink %q: url %q must be absolute", c.Name, c.URL)
		}
		if c.Timeout <= 0 {
			c.Timeout = defaultWebhookTimeout
		}
	}
	return c, nil
}

// Open validates every entry and opens the enabled ones. Names must be unique
// across all entries, disabled ones included. On failure nothing stays open.
func Open(ctx context.Context, cfgs []SinkConfig, log httpclient.Logger) (*Fanout, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log = httpclient.LoggerOrDiscard(log)

	seen := make(map[string]bool, len(cfgs))
	active := make([]SinkConfig, 0, len(cfgs))
	for i, raw := range cfgs {
		cfg, err := raw.normalized()
		if err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if seen[cfg.Name] {
			return nil, fmt.Errorf("sinks[%d]: duplicate sink name %q", i, cfg.Name)
		}
		seen[cfg.Name] = true
		if !cfg.Disabled {
			active = append(active, cfg)
		}
	}

	fanout := NewFanout(nil)
	for _, cfg := range active {
		sink, err := sinkKinds[cfg.Kind].open(ctx, cfg, log)
		if err != nil {
			_ = fanout.Close()
			return nil, fmt.Errorf("open sink %q: %w", cfg.Name, err)
		}
		fanout.sinks = append(fanout.sinks, sink)
	}
	return fanout, nil
}

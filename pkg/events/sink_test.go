package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

func noLog() httpclient.Logger { return httpclient.LoggerOrDiscard(nil) }

func TestSinkConfigNormalized(t *testing.T) {
	cfg, err := SinkConfig{Name: " ops ", Kind: " Webhook ", URL: " https://hooks.example.com/x "}.normalized()
	if err != nil {
		t.Fatalf("normalized: %v", err)
	}
	if cfg.Name != "ops" || cfg.Kind != KindWebhook || cfg.URL != "https://hooks.example.com/x" {
		t.Fatalf("expected trimmed config, got %#v", cfg)
	}
	if cfg.Timeout != defaultWebhookTimeout {
		t.Fatalf("expected default timeout, got %s", cfg.Timeout)
	}

	cfg, err = SinkConfig{Name: "ops", Kind: KindWebhook, URL: "https://h.example.com", Timeout: 2 * time.Second}.normalized()
	if err != nil || cfg.Timeout != 2*time.Second {
		t.Fatalf("explicit timeout must be kept, got %s err=%v", cfg.Timeout, err)
	}
}

func TestSinkConfigRejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  SinkConfig
		want string
	}{
		{name: "missing name", cfg: SinkConfig{Kind: KindLog}, want: "name is required"},
		{name: "unknown kind", cfg: SinkConfig{Name: "k", Kind: "kafka"}, want: "unknown kind"},
		{name: "webhook without url", cfg: SinkConfig{Name: "w", Kind: KindWebhook}, want: "url is required"},
		{name: "relative webhook url", cfg: SinkConfig{Name: "w", Kind: KindWebhook, URL: "/hook"}, want: "must be absolute"},
		{name: "sqs without region", cfg: SinkConfig{Name: "q", Kind: KindSQS, QueueURL: "https://sqs/q"}, want: "region is required"},
		{name: "sns without topic", cfg: SinkConfig{Name: "n", Kind: KindSNS, Region: "eu-west-1"}, want: "topic_arn is required"},
		{name: "pubsub without topic", cfg: SinkConfig{Name: "g", Kind: KindPubSub, Project: "p"}, want: "topic is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.normalized()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestOpenSkipsDisabledSinks(t *testing.T) {
	fanout, err := Open(context.Background(), []SinkConfig{
		{Name: "audit", Kind: KindLog},
		{Name: "queue", Kind: KindSQS, Disabled: true, QueueURL: "https://sqs/q", Region: "eu-west-1"},
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if fanout.Size() != 1 {
		t.Fatalf("expected only the enabled sink, got %d", fanout.Size())
	}
}

func TestOpenRejectsDuplicateNames(t *testing.T) {
	_, err := Open(context.Background(), []SinkConfig{
		{Name: "audit", Kind: KindLog},
		{Name: "audit", Kind: KindLog, Disabled: true},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
}

func TestOpenWithoutSinks(t *testing.T) {
	fanout, err := Open(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n, err := fanout.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("empty fanout should be a no-op, got n=%d err=%v", n, err)
	}
}

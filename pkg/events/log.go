package events

import (
	"context"

	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

type logSink struct {
	name string
	log  httpclient.Logger
}

func openLogSink(_ context.Context, cfg SinkConfig, log httpclient.Logger) (Sink, error) {
	return &logSink{name: cfg.Name, log: log}, nil
}

func (l *logSink) Name() string { return l.name }

func (l *logSink) Deliver(_ context.Context, evt Event) error {
	l.log.WarnObj("session event", "session_event", evt)
	return nil
}

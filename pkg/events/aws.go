package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// loadAWS resolves credentials through the default chain (env, shared
// config, instance role) pinned to region.
func loadAWS(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// eventAttributes are set on every AWS message so subscribers can filter by
// event type and by console instance without decoding the body.
func eventAttributes(evt Event) map[string]string {
	return map[string]string{
		"event_type": evt.Type,
		"source":     evt.Source,
	}
}

// dedupID identifies one expiry so a retried send is dropped by FIFO queues.
func dedupID(evt Event) string {
	sum := sha256.Sum256([]byte(evt.Type + "|" + evt.Method + "|" + evt.URL + "|" + evt.OccurredAt.String()))
	return hex.EncodeToString(sum[:])
}

type sqsSink struct {
	name     string
	queueURL string
	fifo     bool
	client   sqsAPI
	log      httpclient.Logger
}

func openSQSSink(ctx context.Context, cfg SinkConfig, log httpclient.Logger) (Sink, error) {
	awsCfg, err := loadAWS(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return newSQSSink(cfg.Name, cfg.QueueURL, sqs.NewFromConfig(awsCfg), log), nil
}

func newSQSSink(name, queueURL string, client sqsAPI, log httpclient.Logger) *sqsSink {
	return &sqsSink{
		name:     name,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		client:   client,
		log:      httpclient.LoggerOrDiscard(log),
	}
}

func (s *sqsSink) Name() string { return s.name }

func (s *sqsSink) Deliver(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	attrs := make(map[string]sqstypes.MessageAttributeValue)
	for k, v := range eventAttributes(evt) {
		if v == "" {
			continue
		}
		attrs[k] = sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		// One group per console keeps its expiries ordered.
		in.MessageGroupId = aws.String(evt.Source)
		in.MessageDeduplicationId = aws.String(dedupID(evt))
	}

	out, err := s.client.SendMessage(ctx, in)
	if err != nil {
		return fmt.Errorf("sqs send: %w", err)
	}
	s.log.DebugObj("session event queued", "session_event_sqs", map[string]any{
		"sink":       s.name,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}

type snsSink struct {
	name     string
	topicARN string
	client   snsAPI
	log      httpclient.Logger
}

func openSNSSink(ctx context.Context, cfg SinkConfig, log httpclient.Logger) (Sink, error) {
	awsCfg, err := loadAWS(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return &snsSink{
		name:     cfg.Name,
		topicARN: cfg.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      httpclient.LoggerOrDiscard(log),
	}, nil
}

func (s *snsSink) Name() string { return s.name }

func (s *snsSink) Deliver(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	attrs := make(map[string]snstypes.MessageAttributeValue)
	for k, v := range eventAttributes(evt) {
		if v == "" {
			continue
		}
		attrs[k] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Subject:           aws.String("dutydesk " + evt.Type),
		Message:           aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	s.log.DebugObj("session event published", "session_event_sns", map[string]any{
		"sink":       s.name,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type recordingSQS struct {
	sent []*sqs.SendMessageInput
	err  error
}

func (r *recordingSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	r.sent = append(r.sent, in)
	if r.err != nil {
		return nil, r.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

type recordingSNS struct {
	in  *sns.PublishInput
	err error
}

func (r *recordingSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	r.in = in
	if r.err != nil {
		return nil, r.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-2")}, nil
}

func expiredAt(ts time.Time) Event {
	return Event{
		Type:       TypeSessionExpired,
		Source:     "console-a",
		Method:     "GET",
		URL:        "http://localhost/api/stats/yearly",
		StatusCode: 401,
		OccurredAt: ts,
	}
}

func TestSQSSinkStandardQueue(t *testing.T) {
	client := &recordingSQS{}
	sink := newSQSSink("audit", "https://sqs.eu-west-1.amazonaws.com/1/session-events", client, nil)

	if err := sink.Deliver(context.Background(), expiredAt(time.Now())); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	in := client.sent[0]
	if in.MessageGroupId != nil || in.MessageDeduplicationId != nil {
		t.Fatalf("standard queues take no group or dedup id: %#v", in)
	}
	if aws.ToString(in.MessageAttributes["event_type"].StringValue) != TypeSessionExpired {
		t.Fatalf("event_type attribute missing: %#v", in.MessageAttributes)
	}
	var body Event
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &body); err != nil || body.URL != "http://localhost/api/stats/yearly" {
		t.Fatalf("unexpected body %s (err=%v)", aws.ToString(in.MessageBody), err)
	}
}

func TestSQSSinkFIFOQueueGroupsBySource(t *testing.T) {
	client := &recordingSQS{}
	sink := newSQSSink("audit", "https://sqs.eu-west-1.amazonaws.com/1/session-events.fifo", client, nil)

	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if err := sink.Deliver(context.Background(), expiredAt(at)); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	if err := sink.Deliver(context.Background(), expiredAt(at.Add(time.Second))); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if got := aws.ToString(client.sent[0].MessageGroupId); got != "console-a" {
		t.Fatalf("MessageGroupId = %q", got)
	}
	first := aws.ToString(client.sent[0].MessageDeduplicationId)
	if first == "" || first != aws.ToString(client.sent[1].MessageDeduplicationId) {
		t.Fatalf("the same expiry must keep its dedup id")
	}
	if first == aws.ToString(client.sent[2].MessageDeduplicationId) {
		t.Fatalf("distinct expiries must not share a dedup id")
	}
}

func TestSQSSinkSendError(t *testing.T) {
	sink := newSQSSink("audit", "https://example.com/q", &recordingSQS{err: errors.New("throttled")}, nil)
	if err := sink.Deliver(context.Background(), Event{Type: TypeSessionExpired}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSNSSinkPublish(t *testing.T) {
	client := &recordingSNS{}
	sink := &snsSink{name: "topic", topicARN: "arn:aws:sns:eu-west-1:1:session-events", client: client, log: noLog()}

	if err := sink.Deliver(context.Background(), expiredAt(time.Now())); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if aws.ToString(client.in.TopicArn) != "arn:aws:sns:eu-west-1:1:session-events" {
		t.Fatalf("TopicArn = %s", aws.ToString(client.in.TopicArn))
	}
	if aws.ToString(client.in.Subject) != "dutydesk session.expired" {
		t.Fatalf("Subject = %s", aws.ToString(client.in.Subject))
	}
	if aws.ToString(client.in.MessageAttributes["source"].StringValue) != "console-a" {
		t.Fatalf("source attribute missing: %#v", client.in.MessageAttributes)
	}

	sink.client = &recordingSNS{err: errors.New("denied")}
	if err := sink.Deliver(context.Background(), expiredAt(time.Now())); err == nil {
		t.Fatalf("expected error")
	}
}

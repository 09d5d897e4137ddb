package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "topic-1"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:   "gcp",
		Type: TypePubSub,
		PubSub: &PubSubPublisherConfig{
			ProjectID: "test-project",
			Topic:     "topic-1",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	defer pub.(*pubsubPublisher).Close()

	err = pub.Publish(ctx, Event{
		Kind:       KindInvalidToken,
		EndpointID: "profile",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["kind"] != KindInvalidToken {
		t.Fatalf("unexpected attributes %#v", msgs[0].Attributes)
	}
	var evt Event
	if err := json.Unmarshal(msgs[0].Data, &evt); err != nil || evt.EndpointID != "profile" {
		t.Fatalf("unexpected payload %s err=%v", msgs[0].Data, err)
	}
}

func TestPubSubPublisherRequiresConfig(t *testing.T) {
	if _, err := newPubSubPublisher(context.Background(), PublisherConfig{ID: "gcp", Type: TypePubSub}, nil); err == nil {
		t.Fatalf("expected error for missing pubsub block")
	}
}

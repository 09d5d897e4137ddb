package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
		nil,
	})

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if fanout.Size() != 2 {
		t.Fatalf("nil publishers should be dropped, size=%d", fanout.Size())
	}
}

func TestFanoutCloseReachesWrappedPublishers(t *testing.T) {
	stub := &stubPublisher{id: "s", typ: "stub"}
	reg := NewRegistry(map[string]Builder{
		"stub": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return stub, nil },
	})
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "s", Type: "stub", Kinds: []string{KindInvalidToken}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}

	fanout := NewFanout(pubs)
	delivered, err := fanout.Publish(context.Background(), Event{Kind: KindBusinessFailure})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if stub.calls != 0 || delivered != 0 {
		t.Fatalf("filtered kind should not reach publisher, calls=%d delivered=%d", stub.calls, delivered)
	}
	delivered, err = fanout.Publish(context.Background(), Event{Kind: KindInvalidToken})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if stub.calls != 1 || delivered != 1 {
		t.Fatalf("expected subscribed kind delivered once, calls=%d delivered=%d", stub.calls, delivered)
	}

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !stub.closed {
		t.Fatalf("Close not forwarded through kind filter")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{{ID: "x", Type: "kafka"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

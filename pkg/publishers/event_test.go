package publishers

import (
	"net/http"
	"testing"

	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
)

func TestNewEventCopiesResponseFields(t *testing.T) {
	resp := &bizresp.Response{
		Label:      "orders",
		Method:     http.MethodPost,
		URL:        "https://api.example.com/orders",
		StatusCode: http.StatusOK,
		Data:       &bizresp.Envelope{ReturnCode: "ORDER_LOCKED"},
	}

	evt := NewEvent(KindBusinessFailure, "locked", resp)
	if evt.EndpointID != "orders" || evt.Code != "ORDER_LOCKED" || evt.Message != "locked" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.OccurredAt.IsZero() {
		t.Fatalf("OccurredAt not set")
	}
	if got := evt.DedupeKey(); got != "orders|business_failure|ORDER_LOCKED" {
		t.Fatalf("DedupeKey = %q", got)
	}
}

func TestDedupeKeyFallsBackToRequestAndProblem(t *testing.T) {
	evt := NewEvent(KindBusinessFailure, "", &bizresp.Response{
		Method:  http.MethodGet,
		URL:     "https://api.example.com/ping",
		Problem: "TIMEOUT_ERROR",
	})
	if got := evt.DedupeKey(); got != "GET https://api.example.com/ping|business_failure|TIMEOUT_ERROR" {
		t.Fatalf("DedupeKey = %q", got)
	}
	if evt := NewEvent(KindInvalidToken, "m", nil); evt.Kind != KindInvalidToken {
		t.Fatalf("nil response event %+v", evt)
	}
}

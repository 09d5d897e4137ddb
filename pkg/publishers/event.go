package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
)

// Event kinds.
const (
	KindBusinessFailure = "business_failure"
	KindInvalidToken    = "invalid_token"
)

// Event represents the payload published downstream.
type Event struct {
	Kind       string    `json:"kind"`
	EndpointID string    `json:"endpoint_id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	Problem    string    `json:"problem,omitempty"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event of kind from an interpreted response.
func NewEvent(kind, message string, resp *bizresp.Response) Event {
	evt := Event{
		Kind:       kind,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
	if resp == nil {
		return evt
	}
	evt.EndpointID = resp.Label
	evt.Method = resp.Method
	evt.URL = resp.URL
	evt.StatusCode = resp.StatusCode
	evt.Problem = resp.Problem
	if resp.Data != nil {
		evt.Code = resp.Data.ReturnCode
	}
	return evt
}

// DedupeKey identifies repeats of the same condition on the same endpoint.
func (e Event) DedupeKey() string {
	subject := e.EndpointID
	if subject == "" {
		subject = e.Method + " " + e.URL
	}
	reason := e.Code
	if reason == "" {
		reason = e.Problem
	}
	return subject + "|" + e.Kind + "|" + reason
}

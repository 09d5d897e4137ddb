// Package bizresp interprets business envelopes carried by HTTP responses
// and dispatches invalid-token and failure hooks.
package bizresp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ReturnCodeSuccess is the business status code reported by a successful call.
const ReturnCodeSuccess = "SUCCESS"

// Envelope is the business wrapper every backend response body carries.
type Envelope struct {
	ReturnCode string          `json:"returnCode"`
	ReturnDes  string          `json:"returnDes"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Response is a transport result augmented with business-level fields.
// Transforms read OK and Data and fill Success, Code and Msg.
type Response struct {
	// OK reports transport-level success: no transport error and a 2xx status.
	OK         bool
	StatusCode int
	// Problem is the low-level failure class; empty when OK.
	Problem string
	Header  http.Header
	Body    []byte
	// Data is the decoded envelope, nil when the body is empty or not an envelope.
	// HasPayload also covers JSON bodies in other shapes.
	Data *Envelope

	Method string
	URL    string
	Label  string

	Success bool
	Code    string
	Msg     string

	ctx context.Context
}

// Context returns the context of the request that produced the response.
func (r *Response) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r carrying ctx.
func (r *Response) WithContext(ctx context.Context) *Response {
	if r == nil {
		return nil
	}
	cp := *r
	cp.ctx = ctx
	return &cp
}

// DecodeEnvelope parses body as an Envelope. It returns nil for empty bodies,
// non-JSON payloads and JSON objects without a returnCode. Keys match
// exactly: "ReturnCode" or "RETURNCODE" do not make an envelope.
func DecodeEnvelope(body []byte) *Envelope {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(fields["returnCode"], &env.ReturnCode); err != nil {
		return nil
	}
	env.ReturnCode = strings.TrimSpace(env.ReturnCode)
	if env.ReturnCode == "" {
		return nil
	}
	if raw, ok := fields["returnDes"]; ok {
		_ = json.Unmarshal(raw, &env.ReturnDes)
	}
	if raw, ok := fields["data"]; ok && !bytes.Equal(raw, []byte("null")) {
		env.Data = raw
	}
	return &env
}

// HasPayload reports whether the response carries data: a decoded envelope
// or any other non-empty JSON body.
func (r *Response) HasPayload() bool {
	if r == nil {
		return false
	}
	if r.Data != nil {
		return true
	}
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) > 0 && json.Valid(trimmed)
}

// Decode unmarshals the envelope's data payload into out.
func (e *Envelope) Decode(out any) error {
	if e == nil || len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

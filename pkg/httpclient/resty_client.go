package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client   *resty.Client
	pipeline *bizresp.Pipeline
}

// Option customizes a RestyClient.
type Option func(*RestyClient)

// WithPipeline attaches the response-transform pipeline run by Execute.
func WithPipeline(p *bizresp.Pipeline) Option {
	return func(r *RestyClient) { r.pipeline = p }
}

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base string) Option {
	return func(r *RestyClient) {
		if base = strings.TrimSpace(base); base != "" {
			r.client.SetBaseURL(base)
		}
	}
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(r *RestyClient) {
		if len(headers) > 0 {
			r.client.SetHeaders(headers)
		}
	}
}

// WithTokenSource injects the session token into header on every request,
// prefixed by prefix (e.g. "Bearer ").
func WithTokenSource(src TokenSource, header, prefix string) Option {
	return func(r *RestyClient) {
		header = strings.TrimSpace(header)
		if src == nil || header == "" {
			return
		}
		r.client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if req.Header.Get(header) != "" {
				return nil
			}
			tok, err := src.Token()
			if err != nil {
				return fmt.Errorf("load session token: %w", err)
			}
			if tok != "" {
				req.SetHeader(header, prefix+tok)
			}
			return nil
		})
	}
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	r := &RestyClient{client: newRestyBaseClient(timeout)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// Execute performs req, decodes the business envelope and runs the attached
// pipeline. On transport failure both a non-OK response and the error are
// returned, after the pipeline has seen the response.
func (r *RestyClient) Execute(ctx context.Context, req Request) (*bizresp.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if len(req.Query) > 0 {
		rr.SetQueryParams(req.Query)
	}
	if req.Body != nil {
		rr.SetHeader("Content-Type", "application/json")
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(method, req.URL)

	out := &bizresp.Response{
		Method: method,
		URL:    req.URL,
		Label:  req.Label,
	}
	if resp != nil && resp.RawResponse != nil {
		out.StatusCode = resp.StatusCode()
		out.Header = resp.Header()
		out.Body = resp.Body()
		if resp.Request != nil && resp.Request.URL != "" {
			out.URL = resp.Request.URL
		}
	}
	out.Problem = ClassifyProblem(err, out.StatusCode)
	out.OK = err == nil && out.Problem == ProblemNone
	if err == nil {
		out.Data = bizresp.DecodeEnvelope(out.Body)
	}
	out = out.WithContext(ctx)

	r.pipeline.Apply(out)

	if err != nil {
		return out, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	return out, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

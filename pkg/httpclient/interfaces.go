package httpclient

import (
	"context"

	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// BusinessClient executes requests and interprets the business envelope of the reply.
type BusinessClient interface {
	Execute(ctx context.Context, req Request) (*bizresp.Response, error)
}

// TokenSource supplies the current session token. An empty token means
// the request goes out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// Request describes a single business call.
type Request struct {
	Label   string
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    any
}

package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
)

type staticToken struct {
	tok string
	err error
}

func (s staticToken) Token() (string, error) { return s.tok, s.err }

func TestExecuteDecodesEnvelopeAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page=2, got %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["order"] != "o-1" {
			t.Errorf("unexpected body %v err=%v", body, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"returnCode":"SUCCESS","returnDes":"ok","data":{"n":1}}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2*time.Second, WithPipeline(bizresp.New(bizresp.Options{})))
	resp, err := client.Execute(context.Background(), Request{
		Label:  "orders",
		Method: "post",
		URL:    srv.URL + "/orders",
		Query:  map[string]string{"page": "2"},
		Body:   map[string]string{"order": "o-1"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.OK || resp.Problem != ProblemNone {
		t.Fatalf("expected ok response, got ok=%v problem=%q", resp.OK, resp.Problem)
	}
	if !resp.Success || resp.Code != "SUCCESS" || resp.Msg != "ok" {
		t.Fatalf("unexpected normalized fields %+v", resp)
	}
	if resp.Method != http.MethodPost || resp.Label != "orders" {
		t.Fatalf("request metadata not carried: %+v", resp)
	}
}

func TestExecuteInvokesHooksForBusinessFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"returnCode":"TOKEN_INVALID","returnDes":"please log in"}`))
	}))
	defer srv.Close()

	var tokenHits int
	var failMsg string
	client := NewRestyClient(2*time.Second, WithPipeline(bizresp.New(bizresp.Options{
		OnInvalidToken: func(*bizresp.Response) { tokenHits++ },
		OnFail:         func(msg string, _ *bizresp.Response) { failMsg = msg },
	})))

	resp, err := client.Execute(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if tokenHits != 1 {
		t.Fatalf("expected invalid token hook once, got %d", tokenHits)
	}
	if failMsg != "please log in" {
		t.Fatalf("unexpected fail message %q", failMsg)
	}
	if resp.Success || resp.Code != "TOKEN_INVALID" {
		t.Fatalf("unexpected normalized fields %+v", resp)
	}
}

func TestExecuteCustomPredicateSeesGatewayBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"401","msg":"token invalid"}`))
	}))
	defer srv.Close()

	var hookCalls int
	pipeline := bizresp.New(bizresp.Options{
		OnInvalidToken: func(*bizresp.Response) { hookCalls++ },
		OnFail:         func(string, *bizresp.Response) {},
		IsInvalidToken: func(resp *bizresp.Response) bool {
			return strings.Contains(string(resp.Body), `"code":"401"`)
		},
	})
	client := NewRestyClient(2*time.Second, WithPipeline(pipeline))

	resp, err := client.Execute(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.OK || resp.Data != nil {
		t.Fatalf("expected ok response without envelope, got ok=%v data=%+v", resp.OK, resp.Data)
	}
	if hookCalls != 1 {
		t.Fatalf("expected invalid-token hook once, got %d", hookCalls)
	}
}

func TestExecuteClassifiesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><title>Upstream down</title></html>"))
	}))
	defer srv.Close()

	var msgs []string
	client := NewRestyClient(2*time.Second, WithPipeline(bizresp.New(bizresp.Options{
		OnFail: func(msg string, _ *bizresp.Response) { msgs = append(msgs, msg) },
	})))

	resp, err := client.Execute(context.Background(), Request{URL: srv.URL + "/missing"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.OK || resp.Problem != ProblemClient || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected client error, got ok=%v problem=%q status=%d", resp.OK, resp.Problem, resp.StatusCode)
	}

	resp, err = client.Execute(context.Background(), Request{URL: srv.URL + "/gw"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Problem != ProblemServer {
		t.Fatalf("expected server error, got %q", resp.Problem)
	}
	if len(msgs) != 2 || msgs[0] != ProblemClient || msgs[1] != "Upstream down" {
		t.Fatalf("unexpected fail messages %v", msgs)
	}
}

func TestExecuteTransportErrorRunsPipeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	var failed bool
	client := NewRestyClient(time.Second, WithPipeline(bizresp.New(bizresp.Options{
		OnFail: func(string, *bizresp.Response) { failed = true },
	})))

	resp, err := client.Execute(context.Background(), Request{URL: addr})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if resp == nil || resp.OK {
		t.Fatalf("expected non-ok response alongside error, got %+v", resp)
	}
	if resp.Problem != ProblemConnection {
		t.Fatalf("expected connection problem, got %q", resp.Problem)
	}
	if !failed {
		t.Fatalf("fail hook not invoked on transport error")
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"returnCode":"SUCCESS"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := NewRestyClient(time.Second).Execute(ctx, Request{URL: srv.URL})
	if err == nil {
		t.Fatalf("expected error on cancelled context")
	}
	if resp.Problem != ProblemCancel {
		t.Fatalf("expected cancel problem, got %q", resp.Problem)
	}
}

func TestTokenSourceInjectsHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"returnCode":"SUCCESS"}`))
	}))
	defer srv.Close()

	client := NewRestyClient(time.Second, WithTokenSource(staticToken{tok: "abc"}, "Authorization", "Bearer "))
	if _, err := client.Execute(context.Background(), Request{URL: srv.URL}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "Bearer abc" {
		t.Fatalf("expected bearer token header, got %q", got)
	}

	if _, err := client.Execute(context.Background(), Request{URL: srv.URL, Headers: map[string]string{"Authorization": "Basic x"}}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "Basic x" {
		t.Fatalf("explicit header should win, got %q", got)
	}
}

func TestTokenSourceErrorAbortsRequest(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	client := NewRestyClient(time.Second, WithTokenSource(staticToken{err: errors.New("store closed")}, "X-Token", ""))
	if _, err := client.Execute(context.Background(), Request{URL: srv.URL}); err == nil {
		t.Fatalf("expected token source error")
	}
	if called {
		t.Fatalf("request should not reach the server")
	}
}

func TestGetReturnsRawResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("missing header")
		}
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Get(context.Background(), srv.URL, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != "pong" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode(), resp.Body())
	}
}

func TestClassifyProblem(t *testing.T) {
	cases := []struct {
		err    error
		status int
		want   string
	}{
		{nil, 200, ProblemNone},
		{nil, 204, ProblemNone},
		{nil, 302, ProblemUnknown},
		{nil, 401, ProblemClient},
		{nil, 503, ProblemServer},
		{context.Canceled, 0, ProblemCancel},
		{context.DeadlineExceeded, 0, ProblemTimeout},
		{errors.New("weird"), 0, ProblemUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyProblem(tc.err, tc.status); got != tc.want {
			t.Fatalf("ClassifyProblem(%v, %d) = %q, want %q", tc.err, tc.status, got, tc.want)
		}
	}
}

package bizresp

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailMessagePrefersReturnDes(t *testing.T) {
	resp := &Response{
		OK:   true,
		Data: &Envelope{ReturnCode: "E1", ReturnDes: "  quota exceeded "},
		Body: []byte("<html><title>ignored</title></html>"),
	}
	require.Equal(t, "quota exceeded", FailMessage(resp))
}

func TestFailMessageReadsHTMLTitle(t *testing.T) {
	resp := &Response{
		OK:         false,
		StatusCode: http.StatusBadGateway,
		Problem:    "SERVER_ERROR",
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       []byte("<html><head><title>502 Bad\n  Gateway</title></head><body></body></html>"),
	}
	require.Equal(t, "502 Bad Gateway", FailMessage(resp))
}

func TestFailMessageFallsBackToHeading(t *testing.T) {
	resp := &Response{
		StatusCode: http.StatusServiceUnavailable,
		Body:       []byte("<!DOCTYPE html><html><body><h1>Maintenance</h1></body></html>"),
	}
	require.Equal(t, "Maintenance", FailMessage(resp))
}

func TestFailMessageFallsBackToProblemThenStatus(t *testing.T) {
	require.Equal(t, "TIMEOUT_ERROR", FailMessage(&Response{Problem: "TIMEOUT_ERROR"}))
	require.Equal(t, "Not Found", FailMessage(&Response{StatusCode: http.StatusNotFound, Body: []byte("plain")}))
	require.Equal(t, "E42", FailMessage(&Response{OK: true, Data: &Envelope{ReturnCode: "E42"}}))
	require.Empty(t, FailMessage(nil))
}

func TestDecodeEnvelope(t *testing.T) {
	env := DecodeEnvelope([]byte(`{"returnCode":" SUCCESS ","returnDes":"ok","data":{"id":7}}`))
	require.NotNil(t, env)
	require.Equal(t, ReturnCodeSuccess, env.ReturnCode)

	var payload struct {
		ID int `json:"id"`
	}
	require.NoError(t, env.Decode(&payload))
	require.Equal(t, 7, payload.ID)

	require.Nil(t, DecodeEnvelope(nil))
	require.Nil(t, DecodeEnvelope([]byte("<html></html>")))
	require.Nil(t, DecodeEnvelope([]byte(`{"status":"ok"}`)))
	require.Nil(t, DecodeEnvelope([]byte(`{"returnCode":`)))
	require.Nil(t, DecodeEnvelope([]byte(`{"returnCode":null}`)))
	require.Nil(t, DecodeEnvelope([]byte(`{"returnCode":7}`)))
}

func TestDecodeEnvelopeMatchesKeysExactly(t *testing.T) {
	require.Nil(t, DecodeEnvelope([]byte(`{"ReturnCode":"SUCCESS"}`)))
	require.Nil(t, DecodeEnvelope([]byte(`{"RETURNCODE":"SUCCESS","RETURNDES":"ok"}`)))

	env := DecodeEnvelope([]byte(`{"returnCode":"E1","ReturnDes":"ignored","data":null}`))
	require.NotNil(t, env)
	require.Empty(t, env.ReturnDes)
	require.Nil(t, env.Data)
}

func TestHasPayload(t *testing.T) {
	require.True(t, (&Response{Data: &Envelope{ReturnCode: "E1"}}).HasPayload())
	require.True(t, (&Response{Body: []byte(` {"code":"401"} `)}).HasPayload())
	require.False(t, (&Response{Body: []byte("<html></html>")}).HasPayload())
	require.False(t, (&Response{}).HasPayload())
	var nilResp *Response
	require.False(t, nilResp.HasPayload())
}

func TestFailMessageReadsTitleFromOversizedPage(t *testing.T) {
	body := "<html><head><title>Gateway Timeout</title></head><body>" +
		strings.Repeat("<p>padding</p>", 2*maxHTMLBodyBytes/len("<p>padding</p>")) +
		"</body></html>"
	require.Greater(t, len(body), maxHTMLBodyBytes)

	resp := &Response{
		StatusCode: http.StatusGatewayTimeout,
		Problem:    "SERVER_ERROR",
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(body),
	}
	require.Equal(t, "Gateway Timeout", FailMessage(resp))
}

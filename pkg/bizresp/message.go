package bizresp

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxHTMLBodyBytes = 256 << 10

// FailMessage picks the human-readable reason reported to the fail hook.
func FailMessage(resp *Response) string {
	if resp == nil {
		return ""
	}
	if resp.Data != nil {
		if des := strings.TrimSpace(resp.Data.ReturnDes); des != "" {
			return des
		}
	}
	if msg := htmlTitle(resp.Header, resp.Body); msg != "" {
		return msg
	}
	if resp.Problem != "" {
		return resp.Problem
	}
	if resp.Data != nil && resp.Data.ReturnCode != "" {
		return resp.Data.ReturnCode
	}
	if resp.StatusCode > 0 {
		return http.StatusText(resp.StatusCode)
	}
	return ""
}

// htmlTitle extracts the title of an HTML error page, as returned by gateways
// and proxies in front of the business backend.
func htmlTitle(header http.Header, body []byte) string {
	if len(body) == 0 || !looksLikeHTML(header, body) {
		return ""
	}
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return firstNonEmpty(
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	)
}

func looksLikeHTML(header http.Header, body []byte) bool {
	if header != nil && strings.Contains(strings.ToLower(header.Get("Content-Type")), "text/html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.Join(strings.Fields(v), " "); s != "" {
			return s
		}
	}
	return ""
}

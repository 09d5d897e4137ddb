package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/samvad-bizclient/pkg/httpclient"
)

// Package endpoints loads the business endpoints the prober calls.

// Endpoint is a single business call declared in the endpoints file.
type Endpoint struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Method         string            `json:"method" yaml:"method"`
	URL            string            `json:"url" yaml:"url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Query          map[string]string `json:"query" yaml:"query"`
	Body           map[string]any    `json:"body" yaml:"body"`
	RequestDelayMs int               `json:"request_delay_ms" yaml:"request_delay_ms"`
}

type fileFormat struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

const defaultRequestDelayMs = 250

// Registry holds the loaded endpoints in file order.
type Registry struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	idx       map[string]Endpoint
}

// LoadRegistry loads the endpoint registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	parsed, err := parseFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Endpoints)
}

// NewRegistry validates eps and builds a registry from them.
func NewRegistry(eps []Endpoint) (*Registry, error) {
	if len(eps) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}

	reg := &Registry{
		endpoints: make([]Endpoint, len(eps)),
		idx:       make(map[string]Endpoint, len(eps)),
	}
	for i := range eps {
		ep := sanitizeEndpoint(eps[i])
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if _, exists := reg.idx[ep.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		reg.endpoints[i] = ep
		reg.idx[ep.ID] = ep
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseFile(data []byte, ext string) (fileFormat, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out fileFormat
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}

	return fileFormat{}, errors.New("endpoints file format not recognized (expected YAML or JSON)")
}

func sanitizeEndpoint(ep Endpoint) Endpoint {
	ep.ID = strings.TrimSpace(ep.ID)
	ep.Name = strings.TrimSpace(ep.Name)
	ep.URL = strings.TrimSpace(ep.URL)
	ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
	if ep.Method == "" {
		ep.Method = http.MethodGet
	}
	if ep.Name == "" {
		ep.Name = ep.ID
	}
	ep.Headers = trimMap(ep.Headers)
	ep.Query = trimMap(ep.Query)
	if ep.RequestDelayMs <= 0 {
		ep.RequestDelayMs = defaultRequestDelayMs
	}
	return ep
}

func trimMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateEndpoint(ep Endpoint) error {
	if ep.ID == "" {
		return errors.New("id is required")
	}
	if ep.URL == "" {
		return fmt.Errorf("url is required for endpoint %q", ep.ID)
	}
	switch ep.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q for endpoint %q", ep.Method, ep.ID)
	}
	if ep.Method == http.MethodGet && len(ep.Body) > 0 {
		return fmt.Errorf("GET endpoint %q must not declare a body", ep.ID)
	}
	return nil
}

// ByID returns the endpoint by id.
func (r *Registry) ByID(id string) (Endpoint, bool) {
	if r == nil {
		return Endpoint{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Endpoint{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.idx[id]
	return ep, ok
}

// All returns all configured endpoints.
func (r *Registry) All() []Endpoint {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// RequestDelay returns the pause taken after calling the endpoint.
func (ep Endpoint) RequestDelay() time.Duration {
	if ep.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(ep.RequestDelayMs) * time.Millisecond
}

// Request converts the endpoint into a client request labelled with its id.
func (ep Endpoint) Request() httpclient.Request {
	req := httpclient.Request{
		Label:   ep.ID,
		Method:  ep.Method,
		URL:     ep.URL,
		Headers: ep.Headers,
		Query:   ep.Query,
	}
	if len(ep.Body) > 0 {
		req.Body = ep.Body
	}
	return req
}

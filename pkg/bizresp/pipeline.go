package bizresp

import (
	"strings"
)

// Transform inspects and may mutate a response in place.
type Transform func(resp *Response)

// Options configures the built-in transforms. The zero value enables
// token-check, fail-check and status normalization with no callbacks.
type Options struct {
	// OnInvalidToken runs when the session token is reported invalid.
	OnInvalidToken func(resp *Response)
	// OnFail runs for transport failures and non-success business codes.
	OnFail func(msg string, resp *Response)
	// IsInvalidToken replaces the default returnCode sentinel match. It runs
	// for every transport-OK response with a payload, so Data may be nil when
	// the body is JSON of another shape.
	IsInvalidToken func(resp *Response) bool

	DisableFailCheck bool
	DisableNormalize bool

	// SuccessCode defaults to ReturnCodeSuccess.
	SuccessCode string
	// InvalidTokenCodes defaults to DefaultInvalidTokenCodes.
	InvalidTokenCodes []string

	// Development enables logging when a hook is not configured.
	Development bool
	Logger      Logger
}

// DefaultInvalidTokenCodes lists the returnCode values that mean the session
// token was rejected.
var DefaultInvalidTokenCodes = []string{"TOKEN_INVALID", "TOKEN_EXPIRED", "INVALID_TOKEN"}

// Pipeline applies transforms to every response in registration order.
type Pipeline struct {
	transforms []Transform
}

// New registers token-check, then fail-check and status normalization unless
// disabled.
func New(opts Options) *Pipeline {
	opts = normalizeOptions(opts)

	p := &Pipeline{}
	p.Use(tokenCheck(opts))
	if !opts.DisableFailCheck {
		p.Use(failCheck(opts))
	}
	if !opts.DisableNormalize {
		p.Use(normalizeStatus(opts))
	}
	return p
}

// Use appends t after the already registered transforms.
func (p *Pipeline) Use(t Transform) {
	if p == nil || t == nil {
		return
	}
	p.transforms = append(p.transforms, t)
}

// Len returns the number of registered transforms.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.transforms)
}

// Apply runs every transform on resp.
func (p *Pipeline) Apply(resp *Response) {
	if p == nil || resp == nil {
		return
	}
	for _, t := range p.transforms {
		t(resp)
	}
}

func normalizeOptions(opts Options) Options {
	opts.SuccessCode = strings.TrimSpace(opts.SuccessCode)
	if opts.SuccessCode == "" {
		opts.SuccessCode = ReturnCodeSuccess
	}

	codes := make([]string, 0, len(opts.InvalidTokenCodes))
	for _, c := range opts.InvalidTokenCodes {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		codes = append(codes, DefaultInvalidTokenCodes...)
	}
	opts.InvalidTokenCodes = codes

	if opts.IsInvalidToken == nil {
		opts.IsInvalidToken = MatchReturnCodes(opts.InvalidTokenCodes...)
	}
	opts.Logger = ensureLogger(opts.Logger)
	return opts
}

// MatchReturnCodes builds a predicate that reports whether the response
// envelope carries one of codes.
func MatchReturnCodes(codes ...string) func(resp *Response) bool {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return func(resp *Response) bool {
		if resp == nil || resp.Data == nil {
			return false
		}
		_, ok := set[resp.Data.ReturnCode]
		return ok
	}
}

func tokenCheck(opts Options) Transform {
	return func(resp *Response) {
		if !resp.OK || !resp.HasPayload() {
			return
		}
		if !opts.IsInvalidToken(resp) {
			return
		}
		if opts.OnInvalidToken != nil {
			opts.OnInvalidToken(resp)
			return
		}
		if opts.Development {
			opts.Logger.WarnObj("session token invalid", "invalid_token", responseFields(resp))
		}
	}
}

func failCheck(opts Options) Transform {
	return func(resp *Response) {
		if resp.OK && resp.Data != nil && resp.Data.ReturnCode == opts.SuccessCode {
			return
		}
		msg := FailMessage(resp)
		if opts.OnFail != nil {
			opts.OnFail(msg, resp)
			return
		}
		if opts.Development {
			fields := responseFields(resp)
			fields["message"] = msg
			opts.Logger.WarnObj("business request failed", "business_failure", fields)
		}
	}
}

func normalizeStatus(opts Options) Transform {
	return func(resp *Response) {
		if resp.Data == nil {
			return
		}
		resp.Success = resp.Data.ReturnCode == opts.SuccessCode
		resp.Code = resp.Data.ReturnCode
		resp.Msg = resp.Data.ReturnDes
	}
}

func responseFields(resp *Response) map[string]any {
	fields := map[string]any{
		"method":      resp.Method,
		"url":         resp.URL,
		"status_code": resp.StatusCode,
		"ok":          resp.OK,
	}
	if resp.Label != "" {
		fields["label"] = resp.Label
	}
	if resp.Problem != "" {
		fields["problem"] = resp.Problem
	}
	if resp.Data != nil {
		fields["return_code"] = resp.Data.ReturnCode
	}
	return fields
}

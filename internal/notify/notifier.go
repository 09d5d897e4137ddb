package notify

import (
	"context"

	"github.com/samvad-hq/samvad-bizclient/internal/logger"
	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
	"github.com/samvad-hq/samvad-bizclient/pkg/publishers"
)

// Results recorded per handled event.
const (
	ResultPublished  = "published"
	ResultSuppressed = "suppressed"
	ResultFailed     = "failed"
	// ResultLogged means no sink took the event, so it was only logged.
	ResultLogged     = "logged"
)

// EventPublisher delivers events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers recently reported events.
type Deduper interface {
	SeenEvent(key string) (bool, error)
	MarkEvent(key string) error
}

// TokenResetter drops the stored session token.
type TokenResetter interface {
	ClearToken() error
}

// EventRecorder counts handled events.
type EventRecorder interface {
	ObserveEvent(kind, result string)
}

// Notifier turns pipeline hooks into published business events.
type Notifier struct {
	pub    EventPublisher
	dedupe Deduper
	tokens TokenResetter
	rec    EventRecorder
	log    logger.Logger
}

// New builds a Notifier. Every collaborator is optional.
func New(pub EventPublisher, dedupe Deduper, tokens TokenResetter, rec EventRecorder, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Notifier{
		pub:    pub,
		dedupe: dedupe,
		tokens: tokens,
		rec:    rec,
		log:    log,
	}
}

// Hooks returns opts with the notifier installed as the fail and
// invalid-token hooks.
func (n *Notifier) Hooks(opts bizresp.Options) bizresp.Options {
	opts.OnFail = n.OnFail
	opts.OnInvalidToken = n.OnInvalidToken
	return opts
}

// OnFail publishes a business_failure event for resp.
func (n *Notifier) OnFail(msg string, resp *bizresp.Response) {
	n.handle(resp.Context(), publishers.NewEvent(publishers.KindBusinessFailure, msg, resp))
}

// OnInvalidToken clears the stored session token and publishes an
// invalid_token event.
func (n *Notifier) OnInvalidToken(resp *bizresp.Response) {
	if n.tokens != nil {
		if err := n.tokens.ClearToken(); err != nil {
			n.log.ErrorObj("session token reset failed", "error", err.Error())
		}
	}
	msg := ""
	if resp != nil && resp.Data != nil {
		msg = resp.Data.ReturnDes
	}
	n.handle(resp.Context(), publishers.NewEvent(publishers.KindInvalidToken, msg, resp))
}

func (n *Notifier) handle(ctx context.Context, evt publishers.Event) {
	key := evt.DedupeKey()
	if n.dedupe != nil {
		seen, err := n.dedupe.SeenEvent(key)
		if err != nil {
			n.log.WarnObj("event dedupe lookup failed", "dedupe_error", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		} else if seen {
			n.log.DebugObj("event suppressed", "event_key", key)
			n.observe(evt.Kind, ResultSuppressed)
			return
		}
	}

	n.log.WarnObj("business event", evt.Kind, evt)

	if n.pub == nil {
		n.observe(evt.Kind, ResultLogged)
		return
	}
	delivered, err := n.pub.Publish(ctx, evt)
	if err != nil {
		n.log.ErrorObj("event publish failed", "publish_error", map[string]any{
			"key":       key,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
	if delivered == 0 {
		if err != nil {
			n.observe(evt.Kind, ResultFailed)
		} else {
			n.observe(evt.Kind, ResultLogged)
		}
		return
	}

	if n.dedupe != nil {
		if err := n.dedupe.MarkEvent(key); err != nil {
			n.log.WarnObj("event dedupe mark failed", "dedupe_error", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	n.observe(evt.Kind, ResultPublished)
}

func (n *Notifier) observe(kind, result string) {
	if n.rec != nil {
		n.rec.ObserveEvent(kind, result)
	}
}

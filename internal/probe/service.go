package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-bizclient/internal/logger"
	"github.com/samvad-hq/samvad-bizclient/internal/metrics"
	"github.com/samvad-hq/samvad-bizclient/pkg/bizresp"
	"github.com/samvad-hq/samvad-bizclient/pkg/endpoints"
)

// Classifier maps an interpreted response to a metrics outcome.
type Classifier struct {
	SuccessCode    string
	IsInvalidToken func(resp *bizresp.Response) bool
}

// Classify returns the outcome for resp; err is the transport error, if any.
func (c Classifier) Classify(resp *bizresp.Response, err error) metrics.Outcome {
	if err != nil || resp == nil || !resp.OK {
		return metrics.OutcomeTransportError
	}
	if c.IsInvalidToken != nil && c.IsInvalidToken(resp) {
		return metrics.OutcomeInvalidToken
	}
	success := c.SuccessCode
	if success == "" {
		success = bizresp.ReturnCodeSuccess
	}
	if resp.Data != nil && resp.Data.ReturnCode == success {
		return metrics.OutcomeSuccess
	}
	return metrics.OutcomeBusinessFailure
}

// Service probes business endpoints one after another.
type Service struct {
	client     Client
	classifier Classifier
	rec        ResponseRecorder
	log        logger.Logger
}

// NewService wires a prober around the interpreting client.
func NewService(client Client, classifier Classifier, rec ResponseRecorder, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		client:     client,
		classifier: classifier,
		rec:        rec,
		log:        log,
	}
}

// Run executes a probe pass over eps. Only transport failures are returned;
// business failures are reported by the pipeline hooks.
func (s *Service) Run(ctx context.Context, eps []endpoints.Endpoint) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("probe service is not initialized")
	}

	if len(eps) == 0 {
		return fmt.Errorf("no endpoints configured for probing")
	}

	errs := s.runAll(ctx, eps)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (s *Service) runAll(ctx context.Context, eps []endpoints.Endpoint) []error {
	errs := make([]error, 0, len(eps))

	for i, ep := range eps {
		select {
		case <-ctx.Done():
			return errs
		default:
		}

		if err := s.probe(ctx, ep); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("endpoint probe failed", "probe_error", map[string]any{
				"endpoint_id": ep.ID,
				"error":       err.Error(),
			})
		}

		if delay := ep.RequestDelay(); delay > 0 && i < len(eps)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errs
			case <-timer.C:
			}
		}
	}

	return errs
}

func (s *Service) probe(ctx context.Context, ep endpoints.Endpoint) error {
	start := time.Now()
	resp, err := s.client.Execute(ctx, ep.Request())
	elapsed := time.Since(start)

	outcome := s.classifier.Classify(resp, err)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if s.rec != nil {
		s.rec.ObserveResponse(ep.ID, outcome, status, elapsed)
	}

	if err != nil {
		return fmt.Errorf("probe endpoint %s: %w", ep.ID, err)
	}

	result := map[string]any{
		"endpoint_id": ep.ID,
		"outcome":     string(outcome),
		"status_code": status,
		"elapsed_ms":  elapsed.Milliseconds(),
	}
	if resp != nil && resp.Code != "" {
		result["code"] = resp.Code
	}
	s.log.InfoObj("endpoint probe completed", "probe_result", result)
	return nil
}

package probe

import (
	"time"

	"github.com/samvad-hq/samvad-bizclient/internal/metrics"
	"github.com/samvad-hq/samvad-bizclient/pkg/httpclient"
)

// Client executes business requests through the interpreting pipeline.
type Client = httpclient.BusinessClient

// ResponseRecorder records per-call outcomes.
type ResponseRecorder interface {
	ObserveResponse(endpoint string, outcome metrics.Outcome, statusCode int, duration time.Duration)
}

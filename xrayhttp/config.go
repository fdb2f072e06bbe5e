package xrayhttp

import (
	"fmt"
	"net/http"

	"github.com/jmktam/xraykit/xray"
	"github.com/jmktam/xraykit/xraymetrics"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// SamplingStrategy decides whether a trace rooted at the given inbound request
// should be sampled, when the inbound trace header carries no decision.
type SamplingStrategy func(*http.Request) bool

// FixedSamplingStrategy returns a strategy that always yields the given decision
func FixedSamplingStrategy(decision bool) SamplingStrategy {
	return func(*http.Request) bool {
		return decision
	}
}

// Option is a configuration option shared by NewHandler and NewRoundTripper
type Option func(*config)

// WithRecorder sets the recorder used to begin and end trace entities.
// If nil, a default recorder is used.
func WithRecorder(r *xray.Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger for instrumentation diagnostics.  If nil, the
// sallust default logger is used instead.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMeasures associates metrics with the middleware.  If nil, no metrics are recorded.
func WithMeasures(m *xraymetrics.Measures) Option {
	return func(c *config) {
		c.measures = m
	}
}

// WithRequestAttributes sets the collector used to describe requests on trace
// entities.  If nil, the default collector is used.
func WithRequestAttributes(collector RequestAttributesCollector) Option {
	return func(c *config) {
		if collector != nil {
			c.requestAttributes = collector
		}
	}
}

// WithResponseAttributes sets the collector used to describe responses on trace
// entities.  If nil, the default collector is used.  NewHandler ignores this
// option: the serverside segment records the response status inline, since no
// http.Response value exists on that side.
func WithResponseAttributes(collector ResponseAttributesCollector) Option {
	return func(c *config) {
		if collector != nil {
			c.responseAttributes = collector
		}
	}
}

// WithSampling sets the sampling strategy applied by NewHandler when the inbound
// trace header carries no decision.  NewRoundTripper ignores this option, as
// outbound calls always inherit the parent segment's decision.
func WithSampling(s SamplingStrategy) Option {
	return func(c *config) {
		if s != nil {
			c.sampling = s
		}
	}
}

// WithSegmentName sets a fixed name for segments begun by NewHandler, typically
// the service's own name.  If unset, the request host is used.  NewRoundTripper
// ignores this option.
func WithSegmentName(name string) Option {
	return func(c *config) {
		c.segmentName = name
	}
}

// config is the internal contextual type shared by the handler and round tripper decorators
type config struct {
	recorder           *xray.Recorder
	logger             *zap.Logger
	measures           *xraymetrics.Measures
	requestAttributes  RequestAttributesCollector
	responseAttributes ResponseAttributesCollector
	sampling           SamplingStrategy
	segmentName        string
}

func newConfig(o ...Option) *config {
	c := &config{
		logger:             sallust.Default(),
		requestAttributes:  DefaultRequestAttributes(),
		responseAttributes: DefaultResponseAttributes(),
		sampling:           FixedSamplingStrategy(true),
	}

	for _, option := range o {
		option(c)
	}

	if c.recorder == nil {
		c.recorder = xray.NewRecorder(
			xray.WithLogger(c.logger),
			xray.WithMeasures(c.measures),
		)
	}

	return c
}

// contain applies the fail-open discipline used at every instrumentation call site:
// the failure, whether an error return or a panic, is logged, counted, and attached
// to the entity, and control always returns normally so the underlying HTTP call
// is unaffected.
func (c *config) contain(e xray.Entity, span, stage string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			c.report(e, span, stage, fmt.Errorf("recovered panic: %v", p))
		}
	}()

	if err := fn(); err != nil {
		c.report(e, span, stage, err)
	}
}

func (c *config) report(e xray.Entity, span, stage string, err error) {
	c.logger.Warn("instrumentation failure",
		zap.String("span", span),
		zap.String("stage", stage),
		zap.Error(err),
	)

	if e != nil {
		e.AddException(err)
	}

	if c.measures != nil {
		c.measures.InstrumentationErrors.With(xraymetrics.StageLabel, stage).Add(1)
	}
}

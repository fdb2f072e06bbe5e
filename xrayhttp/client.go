package xrayhttp

import (
	"context"
	"net/http"

	"github.com/jmktam/xraykit/xray"
	"go.uber.org/zap"
)

// NewRoundTripper returns a decorator that records each outbound call made on a
// traced request context as a subsegment and propagates the trace header downstream.
//
// The decorated round tripper is transparent whenever tracing data is absent: if the
// request context carries no trace entity, or that entity's top-level segment is no
// longer in progress, the call proceeds untouched.  When a subsegment is begun, it is
// ended exactly once on every exit path, and the caller's context is never mutated,
// so the ambient trace entity observed by the caller after the call is always the one
// it had before.
func NewRoundTripper(o ...Option) func(http.RoundTripper) http.RoundTripper {
	c := newConfig(o...)

	return func(next http.RoundTripper) http.RoundTripper {
		if next == nil {
			next = http.DefaultTransport
		}

		return &roundTripper{
			config: c,
			next:   next,
		}
	}
}

// roundTripper is the outbound half of the middleware
type roundTripper struct {
	*config
	next http.RoundTripper
}

func (rt *roundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()

	entity, ok := rt.recorder.CurrentEntity(ctx)
	if !ok {
		rt.logger.Debug("no trace entity on outbound request context", zap.String("url", request.URL.String()))
		return rt.next.RoundTrip(request)
	}

	if _, ok := rt.recorder.CurrentSegment(ctx); !ok {
		rt.logger.Debug("no active segment for trace entity",
			zap.String("entity", entity.Name()),
			zap.String("url", request.URL.String()),
		)

		return rt.next.RoundTrip(request)
	}

	name := spanName(request)
	subCtx, subsegment := rt.initSubsegment(ctx, name)
	if subsegment == nil {
		// tracing is broken, but the call must still go out
		return rt.next.RoundTrip(request)
	}

	defer rt.closeSubsegment(subsegment)

	outbound := request.Clone(subCtx)
	rt.contain(subsegment, name, "configure request", func() error {
		return rt.configureRequest(subsegment, outbound)
	})

	response, err := rt.next.RoundTrip(outbound)
	if err != nil {
		subsegment.AddException(err)
		return response, err
	}

	rt.contain(subsegment, name, "populate response attributes", func() error {
		return rt.responseAttributes.PopulateWithResponse(subsegment, response)
	})

	return response, nil
}

// initSubsegment begins the subsegment for one outbound call.  A failure here is
// contained: the call proceeds with a nil subsegment and no propagation.
func (rt *roundTripper) initSubsegment(ctx context.Context, name string) (context.Context, *xray.Subsegment) {
	subCtx, subsegment, err := rt.recorder.BeginSubsegment(ctx, name)
	if err != nil {
		rt.contain(nil, name, "begin subsegment", func() error { return err })
		return ctx, nil
	}

	return subCtx, subsegment
}

// configureRequest injects the propagation header and records request attributes.
// The request passed here is always the private clone, never the caller's.
func (rt *roundTripper) configureRequest(subsegment *xray.Subsegment, request *http.Request) error {
	segment := subsegment.ParentSegment()

	header := xray.TraceHeader{
		Root:     segment.TraceID(),
		Decision: xray.DecisionNotSampled,
	}

	if segment.Sampled() {
		header.Parent = subsegment.ID()
		header.Decision = xray.DecisionSampled
	}

	request.Header.Set(xray.TraceHeaderName, header.String())

	attributes, err := rt.requestAttributes.RequestAttributes(request)
	if err != nil {
		return err
	}

	subsegment.PutHTTP("request", attributes)
	return nil
}

func (rt *roundTripper) closeSubsegment(subsegment *xray.Subsegment) {
	rt.contain(nil, subsegment.Name(), "end subsegment", func() error {
		return rt.recorder.EndSubsegment(subsegment)
	})
}

// spanName names the subsegment for an outbound call: the service id attribute
// when one is set on the request context, the request URL otherwise.
func spanName(request *http.Request) string {
	if serviceID, ok := ServiceID(request.Context()); ok {
		return serviceID
	}

	return request.URL.String()
}

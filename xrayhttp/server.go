package xrayhttp

import (
	"bufio"
	"errors"
	"net"
	"net/http"

	"github.com/jmktam/xraykit/xray"
	"go.uber.org/zap"
)

// NewHandler returns an Alice-style decorator that begins a segment for each
// inbound request, continuing the trace described by the inbound trace header when
// one is present.  The segment travels on the request context, which is how any
// outbound round tripper decorated by NewRoundTripper finds it.  The segment is
// ended exactly once on every exit path, including a panicking handler.
func NewHandler(o ...Option) func(http.Handler) http.Handler {
	c := newConfig(o...)

	return func(next http.Handler) http.Handler {
		return &handler{
			config: c,
			next:   next,
		}
	}
}

// handler is the inbound half of the middleware
type handler struct {
	*config
	next http.Handler
}

func (h *handler) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	var (
		inbound = xray.ParseTraceHeader(request.Header.Get(xray.TraceHeaderName))
		name    = h.segmentNameFor(request)

		ctx, segment = h.recorder.BeginSegment(
			request.Context(),
			name,
			xray.WithTraceID(h.traceIDFor(inbound)),
			xray.WithParentID(inbound.Parent),
			xray.WithSampling(h.sampledFor(inbound, request)),
		)
	)

	defer h.closeSegment(segment)

	h.contain(segment, name, "collect request attributes", func() error {
		attributes, err := h.requestAttributes.RequestAttributes(request)
		if err != nil {
			return err
		}

		segment.PutHTTP("request", attributes)
		return nil
	})

	writer := &statusWriter{ResponseWriter: response}
	h.next.ServeHTTP(writer, request.WithContext(ctx))

	h.contain(segment, name, "collect response attributes", func() error {
		segment.PutHTTP("response", map[string]interface{}{
			"status": writer.status(),
		})

		return nil
	})
}

func (h *handler) closeSegment(segment *xray.Segment) {
	h.contain(nil, segment.Name(), "end segment", func() error {
		return h.recorder.EndSegment(segment)
	})
}

// traceIDFor validates the inbound root.  A malformed root is discarded so that
// the new segment starts a fresh trace rather than propagating garbage downstream.
func (h *handler) traceIDFor(inbound xray.TraceHeader) xray.TraceID {
	if len(inbound.Root) == 0 {
		return ""
	}

	root, err := xray.ParseTraceID(inbound.Root.String())
	if err != nil {
		h.logger.Debug("discarding malformed inbound trace id", zap.Error(err))
		return ""
	}

	return root
}

func (h *handler) segmentNameFor(request *http.Request) string {
	if len(h.segmentName) > 0 {
		return h.segmentName
	}

	return request.Host
}

// sampledFor honors an explicit inbound decision and falls back to the configured
// strategy when the header carried none.
func (h *handler) sampledFor(inbound xray.TraceHeader, request *http.Request) bool {
	switch inbound.Decision {
	case xray.DecisionSampled:
		return true
	case xray.DecisionNotSampled:
		return false
	default:
		return h.sampling(request)
	}
}

// statusWriter captures the status code written by the decorated handler
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.code == 0 {
		sw.code = code
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.code == 0 {
		sw.code = http.StatusOK
	}

	return sw.ResponseWriter.Write(b)
}

func (sw *statusWriter) status() int {
	if sw.code == 0 {
		return http.StatusOK
	}

	return sw.code
}

// Flush forwards to the decorated writer, so streaming handlers keep working
// under the middleware
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack forwards to the decorated writer, so upgrading handlers keep working
// under the middleware
func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := sw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}

	return nil, nil, errors.New("the decorated response writer does not support hijacking")
}

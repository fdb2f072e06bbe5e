package xrayhttp

import (
	"net/http"

	"github.com/jmktam/xraykit/xray"
)

// RequestAttributesCollector produces the attribute mapping stored on a trace
// entity's metadata bag under the "request" key.  A collector error is contained
// by the middleware and never aborts the underlying call.
type RequestAttributesCollector interface {
	RequestAttributes(*http.Request) (map[string]interface{}, error)
}

// RequestAttributesCollectorFunc is a function adapter for RequestAttributesCollector
type RequestAttributesCollectorFunc func(*http.Request) (map[string]interface{}, error)

func (f RequestAttributesCollectorFunc) RequestAttributes(r *http.Request) (map[string]interface{}, error) {
	return f(r)
}

// ResponseAttributesCollector populates a trace entity with response metadata.
// A collector error is contained by the middleware; the response object itself is
// always returned to the caller unchanged.
type ResponseAttributesCollector interface {
	PopulateWithResponse(xray.Entity, *http.Response) error
}

// ResponseAttributesCollectorFunc is a function adapter for ResponseAttributesCollector
type ResponseAttributesCollectorFunc func(xray.Entity, *http.Response) error

func (f ResponseAttributesCollectorFunc) PopulateWithResponse(e xray.Entity, response *http.Response) error {
	return f(e, response)
}

// DefaultRequestAttributes returns the standard request collector, which records
// the method, the url stripped of its query and fragment, and the user agent.
func DefaultRequestAttributes() RequestAttributesCollector {
	return RequestAttributesCollectorFunc(func(r *http.Request) (map[string]interface{}, error) {
		url := *r.URL
		url.RawQuery = ""
		url.Fragment = ""

		return map[string]interface{}{
			"method":     r.Method,
			"url":        url.String(),
			"user_agent": r.UserAgent(),
		}, nil
	})
}

// DefaultResponseAttributes returns the standard response collector, which stores
// the status and content length under the entity's "response" key.
func DefaultResponseAttributes() ResponseAttributesCollector {
	return ResponseAttributesCollectorFunc(func(e xray.Entity, response *http.Response) error {
		e.PutHTTP("response", map[string]interface{}{
			"status":         response.StatusCode,
			"content_length": response.ContentLength,
		})

		return nil
	})
}

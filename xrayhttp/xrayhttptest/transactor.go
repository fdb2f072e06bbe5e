// Package xrayhttptest provides test doubles for exercising the tracing middleware
// against mocked HTTP transactions.
package xrayhttptest

import (
	"net/http"
	"strings"

	"github.com/jmktam/xraykit/xray"
	"github.com/stretchr/testify/mock"
)

// TransactCall is a stretchr mock Call with some extra behavior to make mocking
// out round trip behavior easier
type TransactCall struct {
	*mock.Call
}

// RespondWith is a convenience for setting a return of (response, nil)
func (tc *TransactCall) RespondWith(response *http.Response) *TransactCall {
	tc.Return(response, nil)
	return tc
}

// RespondWithError is a convenience for setting a return of (nil, err)
func (tc *TransactCall) RespondWithError(err error) *TransactCall {
	tc.Return((*http.Response)(nil), err)
	return tc
}

// MockTransactor is a stretchr mock for http.RoundTripper that also captures each
// request it observes, so tests can inspect the outbound request the middleware
// actually produced: its headers, its context, and the trace entity riding on it.
type MockTransactor struct {
	mock.Mock

	requests []*http.Request
}

var _ http.RoundTripper = (*MockTransactor)(nil)

// RoundTrip is a mocked HTTP transaction call.  Use OnRoundTrip to setup behaviors
// for this method.
func (mt *MockTransactor) RoundTrip(request *http.Request) (*http.Response, error) {
	mt.requests = append(mt.requests, request)

	arguments := mt.Called(request)
	response, _ := arguments.Get(0).(*http.Response)
	return response, arguments.Error(1)
}

// Requests returns every request observed by this transactor, in order
func (mt *MockTransactor) Requests() []*http.Request {
	return mt.requests
}

// LastRequest returns the most recent request observed by this transactor, or nil
func (mt *MockTransactor) LastRequest() *http.Request {
	if len(mt.requests) == 0 {
		return nil
	}

	return mt.requests[len(mt.requests)-1]
}

// OnRoundTrip sets an On("RoundTrip", ...) with the given matchers for a request.
// The returned Call has some augmented behavior for setting responses.
func (mt *MockTransactor) OnRoundTrip(matchers ...func(*http.Request) bool) *TransactCall {
	call := mt.On("RoundTrip", mock.MatchedBy(func(candidate *http.Request) bool {
		for _, matcher := range matchers {
			if !matcher(candidate) {
				return false
			}
		}

		return true
	}))

	return &TransactCall{call}
}

// MatchMethod returns a request matcher that verifies each request has a specific method
func MatchMethod(expected string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		return strings.EqualFold(expected, r.Method)
	}
}

// MatchURLString returns a request matcher that verifies the request's URL translates
// to the given string
func MatchURLString(expected string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if r.URL == nil {
			return len(expected) == 0
		}

		return expected == r.URL.String()
	}
}

// MatchNoTraceHeader returns a request matcher that verifies no trace propagation
// header is present on the request
func MatchNoTraceHeader() func(*http.Request) bool {
	return func(r *http.Request) bool {
		return r.Header == nil || len(r.Header.Get(xray.TraceHeaderName)) == 0
	}
}

// MatchTraceHeader returns a request matcher that parses the request's trace
// propagation header and applies the given predicate to it
func MatchTraceHeader(predicate func(xray.TraceHeader) bool) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if r.Header == nil {
			return false
		}

		value := r.Header.Get(xray.TraceHeaderName)
		if len(value) == 0 {
			return false
		}

		return predicate(xray.ParseTraceHeader(value))
	}
}

// MatchEntity returns a request matcher that applies the given predicate to the
// trace entity riding on the request context.  Requests without an entity never match.
func MatchEntity(predicate func(xray.Entity) bool) func(*http.Request) bool {
	return func(r *http.Request) bool {
		e, ok := xray.GetEntity(r.Context())
		return ok && predicate(e)
	}
}

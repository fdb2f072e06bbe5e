/*
Package xrayhttp glues the xray trace model to net/http.  NewHandler decorates an
http.Handler so that each inbound request runs under a fresh segment continued from
the inbound trace header, and NewRoundTripper decorates an http.RoundTripper so that
each outbound call made while serving a traced request is recorded as a subsegment
and propagates the trace header downstream.

When composing a transport out of several decorators, NewRoundTripper belongs
innermost: after any decorator that needs to observe the unmodified request, and
immediately before the round tripper that performs the network send.

Instrumentation in this package is strictly best-effort: any failure to begin,
configure, or end a trace entity is logged and recorded, never surfaced to the code
making the HTTP call.
*/
package xrayhttp

/*
Package xray provides the core trace model for X-Ray style distributed tracing:
trace identifiers, segments and subsegments, the propagation header, and a Recorder
that manages entity lifecycles.  The currently active trace entity is carried on a
context.Context rather than in any process-wide state, so concurrent requests can
never observe each other's trace context.
*/
package xray

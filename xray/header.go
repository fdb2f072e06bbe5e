package xray

import (
	"strings"
)

// TraceHeaderName is the canonical HTTP header under which trace context is propagated
const TraceHeaderName = "X-Amzn-Trace-Id"

// SampleDecision is the propagated sampling state of a trace
type SampleDecision int

const (
	// DecisionUnknown means the header carried no usable sampling field.  An
	// unknown decision is omitted when serializing.
	DecisionUnknown SampleDecision = iota

	// DecisionSampled means the trace is recorded in full detail downstream
	DecisionSampled

	// DecisionNotSampled means downstream services should not record this trace
	DecisionNotSampled
)

func (d SampleDecision) String() string {
	switch d {
	case DecisionSampled:
		return "Sampled=1"
	case DecisionNotSampled:
		return "Sampled=0"
	default:
		return ""
	}
}

// TraceHeader is the value object serialized into TraceHeaderName on outbound
// requests and parsed from inbound ones.  Empty fields are omitted on the wire.
type TraceHeader struct {
	// Root is the trace id shared by every service participating in the trace
	Root TraceID

	// Parent is the id of the entity the downstream service should link to.
	// It is only propagated for sampled traces.
	Parent string

	// Decision is the sampling decision being propagated
	Decision SampleDecision
}

// String serializes this header in the form "Root=...;Parent=...;Sampled=1",
// omitting absent fields.
func (th TraceHeader) String() string {
	var o strings.Builder

	if len(th.Root) > 0 {
		o.WriteString("Root=")
		o.WriteString(string(th.Root))
	}

	if len(th.Parent) > 0 {
		if o.Len() > 0 {
			o.WriteRune(';')
		}

		o.WriteString("Parent=")
		o.WriteString(th.Parent)
	}

	if d := th.Decision.String(); len(d) > 0 {
		if o.Len() > 0 {
			o.WriteRune(';')
		}

		o.WriteString(d)
	}

	return o.String()
}

// ParseTraceHeader interprets an inbound trace header value.  Parsing is lenient:
// unrecognized fields are skipped, absent fields are left at their zero values, and
// garbage input yields a zero TraceHeader rather than an error.
func ParseTraceHeader(value string) TraceHeader {
	var th TraceHeader

	for _, field := range strings.Split(value, ";") {
		key, fieldValue, found := strings.Cut(strings.TrimSpace(field), "=")
		if !found {
			continue
		}

		switch strings.ToLower(key) {
		case "root":
			th.Root = TraceID(fieldValue)

		case "parent":
			th.Parent = fieldValue

		case "sampled":
			switch fieldValue {
			case "1":
				th.Decision = DecisionSampled
			case "0":
				th.Decision = DecisionNotSampled
			}
		}
	}

	return th
}

package xrayhttp

import "context"

type attributeKey uint32

const serviceIDKey attributeKey = 1

// WithServiceID derives a context carrying the logical name of the downstream
// service an outbound request targets.  When present, this name is preferred
// over the request URL when naming the subsegment for the call.
func WithServiceID(parent context.Context, serviceID string) context.Context {
	if len(serviceID) == 0 {
		return parent
	}

	return context.WithValue(parent, serviceIDKey, serviceID)
}

// ServiceID retrieves the downstream service name associated with the context, if any
func ServiceID(ctx context.Context) (string, bool) {
	serviceID, ok := ctx.Value(serviceIDKey).(string)
	return serviceID, ok
}

package xrayhttp

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/spf13/viper"
)

const (
	// TracingKey is the Viper subkey under which tracing middleware configuration
	// should be stored.  FromViper *does not* assume this key.
	TracingKey = "xray"
)

// Options stores the externalized configuration of the tracing middleware
type Options struct {
	// Disabled turns the middleware off entirely.  Disabled middleware passes
	// requests through completely untouched.
	Disabled bool `json:"disabled"`

	// ServiceName is the name under which this service's segments are recorded.
	// If unset, segments are named after the request host.
	ServiceName string `json:"serviceName"`

	// Sampling is the default sampling decision applied when an inbound request
	// carries none.  If unset, traces are sampled.
	Sampling *bool `json:"sampling"`
}

func (o *Options) disabled() bool {
	return o != nil && o.Disabled
}

func (o *Options) serviceName() string {
	if o != nil {
		return o.ServiceName
	}

	return ""
}

func (o *Options) sampling() bool {
	if o != nil && o.Sampling != nil {
		return *o.Sampling
	}

	return true
}

// Sub returns the standard child Viper, using TracingKey, for this package.
// If passed nil, this function returns nil.
func Sub(v *viper.Viper) *viper.Viper {
	if v != nil {
		return v.Sub(TracingKey)
	}

	return nil
}

// FromViper produces an Options from a (possibly nil) Viper instance.
// Callers should use FromViper(Sub(v)) if the standard subkey is desired.
func FromViper(v *viper.Viper) (*Options, error) {
	o := new(Options)
	if v != nil {
		if err := v.Unmarshal(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// NewServerChain produces the serverside middleware chain described by these
// options.  A disabled Options yields an empty chain.
func (o *Options) NewServerChain(extra ...Option) alice.Chain {
	if o.disabled() {
		return alice.New()
	}

	options := []Option{
		WithSegmentName(o.serviceName()),
		WithSampling(FixedSamplingStrategy(o.sampling())),
	}

	return alice.New(
		alice.Constructor(NewHandler(append(options, extra...)...)),
	)
}

// NewRoundTripper produces the clientside decorator described by these options.
// A disabled Options yields an identity decorator.
func (o *Options) NewRoundTripper(extra ...Option) func(http.RoundTripper) http.RoundTripper {
	if o.disabled() {
		return func(next http.RoundTripper) http.RoundTripper {
			return next
		}
	}

	return NewRoundTripper(extra...)
}

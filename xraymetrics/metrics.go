package xraymetrics

import (
	"github.com/go-kit/kit/metrics"
	gokitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// Names for our metrics
const (
	EntityCounter                = "xray_entities"
	InstrumentationErrorsCounter = "xray_instrumentation_errors"
)

// labels
const (
	EntityLabel    = "entity"
	LifecycleLabel = "lifecycle"
	StageLabel     = "stage"
)

// label values
const (
	SegmentValue    = "segment"
	SubsegmentValue = "subsegment"
	StartedValue    = "started"
	EndedValue      = "ended"
)

// Measures describes the metrics used by the recorder and the HTTP middleware
type Measures struct {
	// Entities counts segments and subsegments begun and ended, labelled by
	// entity kind and lifecycle event
	Entities metrics.Counter

	// InstrumentationErrors counts contained instrumentation failures,
	// labelled by the pipeline stage that failed
	InstrumentationErrors metrics.Counter
}

// NewMeasures realizes the desired metrics on the given registerer
func NewMeasures(r prometheus.Registerer) *Measures {
	entities := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: EntityCounter,
			Help: "Counter for trace entities begun and ended",
		},
		[]string{EntityLabel, LifecycleLabel},
	)

	errors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: InstrumentationErrorsCounter,
			Help: "Counter for contained tracing instrumentation failures, by pipeline stage",
		},
		[]string{StageLabel},
	)

	r.MustRegister(entities, errors)

	return &Measures{
		Entities:              gokitprometheus.NewCounter(entities),
		InstrumentationErrors: gokitprometheus.NewCounter(errors),
	}
}

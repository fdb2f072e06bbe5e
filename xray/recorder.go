package xray

import (
	"context"
	"errors"
	"time"

	"github.com/jmktam/xraykit/xraymetrics"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

var (
	// ErrNoTraceEntity indicates that the context carried no active trace entity
	ErrNoTraceEntity = errors.New("no trace entity in context")

	// ErrNoActiveSegment indicates that the context's trace entity has no
	// in-progress top-level segment
	ErrNoActiveSegment = errors.New("no active segment for trace entity")

	// ErrAlreadyEnded indicates an attempt to end an entity a second time
	ErrAlreadyEnded = errors.New("entity has already been ended")
)

// RecorderOption is a configuration option for a Recorder
type RecorderOption func(*Recorder)

// WithLogger sets the logger used for recorder diagnostics.  If nil, the
// sallust default logger is used instead.
func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMeasures associates metrics with this recorder.  If nil, no metrics are recorded.
func WithMeasures(m *xraymetrics.Measures) RecorderOption {
	return func(r *Recorder) {
		r.measures = m
	}
}

// Now sets the now function used to timestamp entity starts.  If now is nil,
// this option does nothing.
func Now(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder constructs a Recorder from the given options
func NewRecorder(o ...RecorderOption) *Recorder {
	r := &Recorder{
		logger: sallust.Default(),
		now:    time.Now,
	}

	for _, option := range o {
		option(r)
	}

	return r
}

// Recorder creates and finalizes trace entities.  The "current" entity is never
// stored on the Recorder itself: it always travels on a context.Context, so a
// single Recorder is safe for use by any number of concurrent requests.
type Recorder struct {
	logger   *zap.Logger
	now      func() time.Time
	measures *xraymetrics.Measures
}

// CurrentEntity returns the trace entity carried by the context, if any
func (r *Recorder) CurrentEntity(ctx context.Context) (Entity, bool) {
	return GetEntity(ctx)
}

// CurrentSegment returns the in-progress top-level segment of the context's
// trace entity.  It returns false when there is no entity, the entity is
// orphaned, or its segment has already been ended.
func (r *Recorder) CurrentSegment(ctx context.Context) (*Segment, bool) {
	e, ok := GetEntity(ctx)
	if !ok {
		return nil, false
	}

	segment := e.ParentSegment()
	if segment == nil || !segment.InProgress() {
		return nil, false
	}

	return segment, true
}

// SegmentOption configures a segment at creation time
type SegmentOption func(*Segment)

// WithTraceID sets the trace id of a new segment, continuing an upstream trace.
// If the id is empty, this option does nothing and a fresh trace id is used.
func WithTraceID(id TraceID) SegmentOption {
	return func(s *Segment) {
		if len(id) > 0 {
			s.traceID = id
		}
	}
}

// WithParentID links a new segment to the upstream entity that propagated the trace
func WithParentID(id string) SegmentOption {
	return func(s *Segment) {
		s.parentID = id
	}
}

// WithSampling sets the sampling decision of a new segment.  Segments are sampled by default.
func WithSampling(sampled bool) SegmentOption {
	return func(s *Segment) {
		s.sampled = sampled
	}
}

// BeginSegment starts a new top-level segment and returns a derived context
// carrying it as the active trace entity.
func (r *Recorder) BeginSegment(ctx context.Context, name string, o ...SegmentOption) (context.Context, *Segment) {
	s := &Segment{
		entity: entity{
			name:  name,
			id:    NewEntityID(),
			start: r.now(),
		},
		sampled: true,
	}

	for _, option := range o {
		option(s)
	}

	if len(s.traceID) == 0 {
		s.traceID = NewTraceID(s.start)
	}

	r.count(xraymetrics.SegmentValue, xraymetrics.StartedValue)
	r.logger.Debug("segment begun",
		zap.String("name", name),
		zap.String("id", s.id),
		zap.String("traceID", string(s.traceID)),
		zap.Bool("sampled", s.sampled),
	)

	return WithEntity(ctx, s), s
}

// BeginSubsegment starts a child entity under the context's active trace entity.
// The returned context carries the subsegment as the new active entity; the supplied
// context is left untouched.  This method fails when the context has no entity or
// when that entity's top-level segment is absent or already ended.
func (r *Recorder) BeginSubsegment(ctx context.Context, name string) (context.Context, *Subsegment, error) {
	parent, ok := GetEntity(ctx)
	if !ok {
		return ctx, nil, ErrNoTraceEntity
	}

	if _, ok := r.CurrentSegment(ctx); !ok {
		return ctx, nil, ErrNoActiveSegment
	}

	s := &Subsegment{
		entity: entity{
			name:  name,
			id:    NewEntityID(),
			start: r.now(),
		},
		parent: parent,
	}

	r.count(xraymetrics.SubsegmentValue, xraymetrics.StartedValue)
	r.logger.Debug("subsegment begun",
		zap.String("name", name),
		zap.String("id", s.id),
		zap.String("parent", parent.ID()),
	)

	return WithEntity(ctx, s), s, nil
}

// EndSegment finalizes a segment.  Ending a segment twice is an error, but the
// segment's recorded state is unaffected by the second call.
func (r *Recorder) EndSegment(s *Segment) error {
	if !s.finish(r.now()) {
		return ErrAlreadyEnded
	}

	r.count(xraymetrics.SegmentValue, xraymetrics.EndedValue)
	r.logger.Debug("segment ended",
		zap.String("name", s.Name()),
		zap.String("id", s.ID()),
		zap.Duration("duration", s.EndTime().Sub(s.StartTime())),
	)

	return nil
}

// EndSubsegment finalizes a subsegment.  Ending a subsegment twice is an error.
func (r *Recorder) EndSubsegment(s *Subsegment) error {
	if !s.finish(r.now()) {
		return ErrAlreadyEnded
	}

	r.count(xraymetrics.SubsegmentValue, xraymetrics.EndedValue)
	r.logger.Debug("subsegment ended",
		zap.String("name", s.Name()),
		zap.String("id", s.ID()),
		zap.Duration("duration", s.EndTime().Sub(s.StartTime())),
	)

	return nil
}

func (r *Recorder) count(entityValue, lifecycleValue string) {
	if r.measures != nil {
		r.measures.Entities.With(
			xraymetrics.EntityLabel, entityValue,
			xraymetrics.LifecycleLabel, lifecycleValue,
		).Add(1)
	}
}

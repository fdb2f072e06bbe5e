package xray

import (
	// nolint: typecheck
	"sync"
	"sync/atomic"
	"time"
)

// Entity is a unit of work in a distributed trace: either a top-level Segment or a
// child Subsegment.  Entities are created by a Recorder and mutated only by the single
// logical call chain that owns them.  Ending an entity is idempotent.
type Entity interface {
	// Name is the name of the operation this entity represents
	Name() string

	// ID is the 16 hex digit identifier of this entity
	ID() string

	// StartTime is the time at which this entity was begun
	StartTime() time.Time

	// EndTime is the time at which this entity was ended.  The zero time
	// is returned while the entity is still in progress.
	EndTime() time.Time

	// InProgress indicates whether this entity has been ended yet
	InProgress() bool

	// Sampled indicates whether the trace this entity belongs to is recorded in full detail
	Sampled() bool

	// ParentSegment is the top-level segment this entity belongs to.  A Segment
	// returns itself.  This can be nil for an orphaned subsegment.
	ParentSegment() *Segment

	// AddException appends an error observed during this entity's unit of work.
	// The sequence of exceptions is append-only and preserves insertion order.
	AddException(err error)

	// Exceptions returns a copy of the exceptions recorded so far
	Exceptions() []error

	// PutHTTP stores an attribute mapping in this entity's metadata bag under
	// the given key, e.g. "request" or "response".  Later calls with the same
	// key overwrite earlier ones.
	PutHTTP(key string, info map[string]interface{})

	// HTTP returns the metadata bag entry for the given key, or nil
	HTTP(key string) map[string]interface{}
}

// entity holds the state common to segments and subsegments
type entity struct {
	name  string
	id    string
	start time.Time

	state uint32

	lock       sync.Mutex
	end        time.Time
	exceptions []error
	http       map[string]map[string]interface{}
}

func (e *entity) Name() string {
	return e.name
}

func (e *entity) ID() string {
	return e.id
}

func (e *entity) StartTime() time.Time {
	return e.start
}

func (e *entity) EndTime() time.Time {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.end
}

func (e *entity) InProgress() bool {
	return atomic.LoadUint32(&e.state) == 0
}

func (e *entity) AddException(err error) {
	if err == nil {
		return
	}

	e.lock.Lock()
	e.exceptions = append(e.exceptions, err)
	e.lock.Unlock()
}

func (e *entity) Exceptions() []error {
	e.lock.Lock()
	defer e.lock.Unlock()

	copyOf := make([]error, len(e.exceptions))
	copy(copyOf, e.exceptions)
	return copyOf
}

func (e *entity) PutHTTP(key string, info map[string]interface{}) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.http == nil {
		e.http = make(map[string]map[string]interface{})
	}

	e.http[key] = info
}

func (e *entity) HTTP(key string) map[string]interface{} {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.http[key]
}

// finish transitions this entity to the ended state.  Only the first call
// records the end time.
func (e *entity) finish(end time.Time) bool {
	if atomic.CompareAndSwapUint32(&e.state, 0, 1) {
		e.lock.Lock()
		e.end = end
		e.lock.Unlock()
		return true
	}

	return false
}

// Segment is the top-level unit of work in a trace, typically one inbound request.
// A Segment owns the trace id and the sampling decision that all of its subsegments share.
type Segment struct {
	entity

	traceID  TraceID
	parentID string
	sampled  bool
}

// TraceID is the identifier of the trace this segment belongs to
func (s *Segment) TraceID() TraceID {
	return s.traceID
}

// ParentID is the id of the upstream entity that propagated this trace,
// or empty if this segment is the trace root.
func (s *Segment) ParentID() string {
	return s.parentID
}

func (s *Segment) Sampled() bool {
	return s.sampled
}

func (s *Segment) ParentSegment() *Segment {
	return s
}

// Subsegment is a child unit of work nested under a segment or another subsegment,
// typically one outbound call.  A Subsegment is never reused across calls.
type Subsegment struct {
	entity

	parent Entity
}

// Parent is the entity this subsegment was begun under
func (s *Subsegment) Parent() Entity {
	return s.parent
}

func (s *Subsegment) ParentSegment() *Segment {
	if s.parent != nil {
		return s.parent.ParentSegment()
	}

	return nil
}

func (s *Subsegment) Sampled() bool {
	segment := s.ParentSegment()
	return segment != nil && segment.Sampled()
}

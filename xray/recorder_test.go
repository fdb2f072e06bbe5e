package xray

import (
	"context"
	"testing"
	"time"

	"github.com/jmktam/xraykit/xraymetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func timeAt(seconds int64) time.Time {
	return time.Unix(seconds, 0)
}

// stepClock is a now function that advances by one second per call
func stepClock(start int64) func() time.Time {
	current := start
	return func() time.Time {
		now := timeAt(current)
		current++
		return now
	}
}

// counterValue sums the samples of a counter family gathered from the registry,
// filtered by the given label values
func counterValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	families, err := g.Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}

		for _, metric := range family.GetMetric() {
			matched := true
			for _, pair := range metric.GetLabel() {
				if expected, ok := labels[pair.GetName()]; ok && expected != pair.GetValue() {
					matched = false
				}
			}

			if matched {
				total += metric.GetCounter().GetValue()
			}
		}
	}

	return total
}

func TestBeginSegmentDefaults(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		recorder = NewRecorder(Now(stepClock(100)), WithLogger(zap.NewNop()))
	)

	ctx, segment := recorder.BeginSegment(context.Background(), "inbound")
	require.NotNil(segment)

	assert.Equal(timeAt(100), segment.StartTime())
	assert.True(segment.Sampled())
	assert.Empty(segment.ParentID())

	e, ok := recorder.CurrentEntity(ctx)
	require.True(ok)
	assert.Equal(Entity(segment), e)

	current, ok := recorder.CurrentSegment(ctx)
	require.True(ok)
	assert.Equal(segment, current)
}

func TestBeginSegmentOptions(t *testing.T) {
	var (
		assert = assert.New(t)

		recorder = NewRecorder()
	)

	_, segment := recorder.BeginSegment(
		context.Background(),
		"inbound",
		WithTraceID("1-5e000001-8c3c0b92d3070e874477a255"),
		WithParentID("b9c7f6a4d8e5a2f1"),
		WithSampling(false),
	)

	assert.Equal(TraceID("1-5e000001-8c3c0b92d3070e874477a255"), segment.TraceID())
	assert.Equal("b9c7f6a4d8e5a2f1", segment.ParentID())
	assert.False(segment.Sampled())
}

func TestBeginSegmentEmptyTraceID(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	_, segment := NewRecorder().BeginSegment(context.Background(), "inbound", WithTraceID(""))

	_, err := ParseTraceID(segment.TraceID().String())
	require.NoError(err)
	assert.NotEmpty(segment.TraceID())
}

func TestBeginSubsegment(t *testing.T) {
	t.Run("NoEntity", func(t *testing.T) {
		assert := assert.New(t)

		ctx := context.Background()
		subCtx, subsegment, err := NewRecorder().BeginSubsegment(ctx, "outbound")

		assert.Equal(ctx, subCtx)
		assert.Nil(subsegment)
		assert.ErrorIs(err, ErrNoTraceEntity)
	})

	t.Run("SegmentEnded", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)

			recorder = NewRecorder()
		)

		ctx, segment := recorder.BeginSegment(context.Background(), "inbound")
		require.NoError(recorder.EndSegment(segment))

		_, subsegment, err := recorder.BeginSubsegment(ctx, "outbound")
		assert.Nil(subsegment)
		assert.ErrorIs(err, ErrNoActiveSegment)

		_, ok := recorder.CurrentSegment(ctx)
		assert.False(ok)
	})

	t.Run("Success", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)

			recorder = NewRecorder(Now(stepClock(100)))
		)

		ctx, segment := recorder.BeginSegment(context.Background(), "inbound")
		subCtx, subsegment, err := recorder.BeginSubsegment(ctx, "outbound")
		require.NoError(err)
		require.NotNil(subsegment)

		assert.Equal("outbound", subsegment.Name())
		assert.Len(subsegment.ID(), 16)
		assert.Equal(timeAt(101), subsegment.StartTime())
		assert.True(subsegment.InProgress())

		// the subsegment context carries the child; the parent context is untouched
		e, ok := recorder.CurrentEntity(subCtx)
		require.True(ok)
		assert.Equal(Entity(subsegment), e)

		e, ok = recorder.CurrentEntity(ctx)
		require.True(ok)
		assert.Equal(Entity(segment), e)
	})
}

func TestEndSegment(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		recorder = NewRecorder(Now(stepClock(100)))
	)

	_, segment := recorder.BeginSegment(context.Background(), "inbound")

	require.NoError(recorder.EndSegment(segment))
	assert.False(segment.InProgress())
	assert.Equal(timeAt(101), segment.EndTime())

	// ending twice is an error and does not disturb recorded state
	assert.ErrorIs(recorder.EndSegment(segment), ErrAlreadyEnded)
	assert.Equal(timeAt(101), segment.EndTime())
}

func TestEndSubsegment(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		recorder = NewRecorder(Now(stepClock(100)))
	)

	ctx, _ := recorder.BeginSegment(context.Background(), "inbound")
	_, subsegment, err := recorder.BeginSubsegment(ctx, "outbound")
	require.NoError(err)

	require.NoError(recorder.EndSubsegment(subsegment))
	assert.False(subsegment.InProgress())
	assert.Equal(timeAt(102), subsegment.EndTime())

	assert.ErrorIs(recorder.EndSubsegment(subsegment), ErrAlreadyEnded)
}

func TestRecorderMeasures(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		registry = prometheus.NewPedanticRegistry()
		measures = xraymetrics.NewMeasures(registry)
		recorder = NewRecorder(WithMeasures(measures))
	)

	ctx, segment := recorder.BeginSegment(context.Background(), "inbound")
	_, subsegment, err := recorder.BeginSubsegment(ctx, "outbound")
	require.NoError(err)
	require.NoError(recorder.EndSubsegment(subsegment))
	require.NoError(recorder.EndSegment(segment))

	assert.Equal(float64(1), counterValue(t, registry, xraymetrics.EntityCounter, map[string]string{
		xraymetrics.EntityLabel:    xraymetrics.SegmentValue,
		xraymetrics.LifecycleLabel: xraymetrics.StartedValue,
	}))

	assert.Equal(float64(1), counterValue(t, registry, xraymetrics.EntityCounter, map[string]string{
		xraymetrics.EntityLabel:    xraymetrics.SubsegmentValue,
		xraymetrics.LifecycleLabel: xraymetrics.EndedValue,
	}))

	assert.Equal(float64(4), counterValue(t, registry, xraymetrics.EntityCounter, nil))
}

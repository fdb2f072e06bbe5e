package xray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceHeaderString(t *testing.T) {
	testData := []struct {
		header   TraceHeader
		expected string
	}{
		{
			header:   TraceHeader{},
			expected: "",
		},
		{
			header:   TraceHeader{Root: "1-abc"},
			expected: "Root=1-abc",
		},
		{
			header: TraceHeader{
				Root:     "1-abc",
				Parent:   "s1",
				Decision: DecisionSampled,
			},
			expected: "Root=1-abc;Parent=s1;Sampled=1",
		},
		{
			header: TraceHeader{
				Root:     "1-abc",
				Decision: DecisionNotSampled,
			},
			expected: "Root=1-abc;Sampled=0",
		},
		{
			header:   TraceHeader{Parent: "s1", Decision: DecisionSampled},
			expected: "Parent=s1;Sampled=1",
		},
	}

	for _, record := range testData {
		t.Run(record.expected, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(record.expected, record.header.String())
		})
	}
}

func TestParseTraceHeader(t *testing.T) {
	testData := []struct {
		value    string
		expected TraceHeader
	}{
		{
			value:    "",
			expected: TraceHeader{},
		},
		{
			value:    "this is garbage",
			expected: TraceHeader{},
		},
		{
			value: "Root=1-abc;Parent=s1;Sampled=1",
			expected: TraceHeader{
				Root:     "1-abc",
				Parent:   "s1",
				Decision: DecisionSampled,
			},
		},
		{
			value: "Root=1-abc; Parent=s1; Sampled=0",
			expected: TraceHeader{
				Root:     "1-abc",
				Parent:   "s1",
				Decision: DecisionNotSampled,
			},
		},
		{
			value: "root=1-abc;sampled=1",
			expected: TraceHeader{
				Root:     "1-abc",
				Decision: DecisionSampled,
			},
		},
		{
			value: "Root=1-abc;Sampled=?",
			expected: TraceHeader{
				Root:     "1-abc",
				Decision: DecisionUnknown,
			},
		},
		{
			value: "Root=1-abc;Lineage=ignored;Self=also-ignored",
			expected: TraceHeader{
				Root: "1-abc",
			},
		},
	}

	for _, record := range testData {
		t.Run(record.value, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(record.expected, ParseTraceHeader(record.value))
		})
	}
}

func TestTraceHeaderRoundTrip(t *testing.T) {
	assert := assert.New(t)

	original := TraceHeader{
		Root:     NewTraceID(timeAt(1000)),
		Parent:   NewEntityID(),
		Decision: DecisionSampled,
	}

	assert.Equal(original, ParseTraceHeader(original.String()))
}

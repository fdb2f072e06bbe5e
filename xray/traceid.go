package xray

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// traceIDVersion is the only trace id version this package produces or accepts.
	traceIDVersion = "1"

	traceIDEpochLength  = 8
	traceIDRandomLength = 24
	entityIDLength      = 16
)

var (
	ErrInvalidTraceID = errors.New("invalid trace id")
)

// TraceID identifies one distributed trace across every service that participates in it.
// The wire form is "1-<8 hex digits of epoch seconds>-<24 hex random digits>".
type TraceID string

// NewTraceID generates a fresh TraceID whose epoch portion reflects the given time.
func NewTraceID(now time.Time) TraceID {
	return TraceID(fmt.Sprintf("%s-%08x-%s", traceIDVersion, now.Unix(), randomHex(traceIDRandomLength)))
}

// ParseTraceID validates the wire form of a trace id.
func ParseTraceID(value string) (TraceID, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTraceID, value)
	}

	if parts[0] != traceIDVersion {
		return "", fmt.Errorf("%w: unsupported version %q", ErrInvalidTraceID, parts[0])
	}

	if len(parts[1]) != traceIDEpochLength {
		return "", fmt.Errorf("%w: malformed epoch %q", ErrInvalidTraceID, parts[1])
	}

	if _, err := strconv.ParseUint(parts[1], 16, 32); err != nil {
		return "", fmt.Errorf("%w: malformed epoch %q", ErrInvalidTraceID, parts[1])
	}

	if len(parts[2]) != traceIDRandomLength || !isHex(parts[2]) {
		return "", fmt.Errorf("%w: malformed random portion %q", ErrInvalidTraceID, parts[2])
	}

	return TraceID(value), nil
}

func (id TraceID) String() string {
	return string(id)
}

// NewEntityID generates the 16 hex digit identifier used for segments and subsegments.
func NewEntityID() string {
	return randomHex(entityIDLength)
}

func randomHex(digits int) string {
	b := make([]byte, digits/2)

	// rand.Read is documented to always succeed on supported platforms
	rand.Read(b) // nolint: errcheck

	return hex.EncodeToString(b)
}

func isHex(value string) bool {
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}

	return true
}

package model

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	traceIDHexLength = 32
	spanIDHexLength  = 16
)

// ErrMalformedIdentifier is returned when a trace or span id cannot be
// parsed from its hex representation. Wrapped errors carry the offending
// input.
var ErrMalformedIdentifier = errors.New("malformed identifier")

// TraceID is a 128-bit trace identifier, rendered as 32 lowercase hex characters.
type TraceID [16]byte

// SpanID is a 64-bit span identifier, rendered as 16 lowercase hex characters.
type SpanID [8]byte

func TraceIDFromString(s string) (TraceID, error) {
	var id TraceID
	if len(s) != traceIDHexLength {
		return id, fmt.Errorf("%w: trace id must be %d hex characters, got %d", ErrMalformedIdentifier, traceIDHexLength, len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("%w: trace id %q is not valid hex", ErrMalformedIdentifier, s)
	}
	return id, nil
}

func TraceIDFromBytes(b []byte) (TraceID, error) {
	var id TraceID
	if len(b) != len(id) {
		return id, fmt.Errorf("%w: trace id must be %d bytes, got %d", ErrMalformedIdentifier, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

func (t TraceID) IsZero() bool {
	return t == TraceID{}
}

func (t TraceID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TraceID) UnmarshalJSON(data []byte) error {
	s, err := unquoteIdentifier(data)
	if err != nil {
		return err
	}
	id, err := TraceIDFromString(s)
	if err != nil {
		return err
	}
	*t = id
	return nil
}

func SpanIDFromString(s string) (SpanID, error) {
	var id SpanID
	if len(s) != spanIDHexLength {
		return id, fmt.Errorf("%w: span id must be %d hex characters, got %d", ErrMalformedIdentifier, spanIDHexLength, len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("%w: span id %q is not valid hex", ErrMalformedIdentifier, s)
	}
	return id, nil
}

func SpanIDFromBytes(b []byte) (SpanID, error) {
	var id SpanID
	if len(b) != len(id) {
		return id, fmt.Errorf("%w: span id must be %d bytes, got %d", ErrMalformedIdentifier, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

func (s SpanID) IsZero() bool {
	return s == SpanID{}
}

// Less imposes a total order on span ids, used to break sorting ties
// deterministically.
func (s SpanID) Less(other SpanID) bool {
	return bytes.Compare(s[:], other[:]) < 0
}

func (s SpanID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *SpanID) UnmarshalJSON(data []byte) error {
	str, err := unquoteIdentifier(data)
	if err != nil {
		return err
	}
	id, err := SpanIDFromString(str)
	if err != nil {
		return err
	}
	*s = id
	return nil
}

func unquoteIdentifier(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", fmt.Errorf("%w: identifier must be a quoted hex string", ErrMalformedIdentifier)
	}
	return string(data[1 : len(data)-1]), nil
}

package telemetry

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMaxEncoded is the Base64 output budget in bytes. It mirrors the
// firmware's fixed publish buffer; the cellular path cannot carry more.
const DefaultMaxEncoded = 2048

// formatValue renders a measurement value with its kind's fixed decimal
// width. The widths are wire contract: the dashboard parses them as-is.
func formatValue(m Measurement) (string, error) {
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return "", fmt.Errorf("%w: %s value is not finite", ErrInvalidReading, m.Name)
	}
	switch m.Kind {
	case KindDouble:
		return strconv.FormatFloat(m.Value, 'f', 3, 64), nil
	case KindPosition:
		return strconv.FormatFloat(m.Value, 'f', 6, 64), nil
	case KindInt:
		return strconv.FormatFloat(m.Value, 'f', 0, 64), nil
	}
	return "", fmt.Errorf("%w: unknown measurement kind %q", ErrInvalidReading, m.Kind)
}

// renderFragment builds the JSON fragment for one reading:
//
//	{"ID":"BME280","mes":[{"nm":"Tm","vl":27.780}, ...]}
//	{"ID":"MAXM10","err":"timeout"}
//
// The fragment is rendered into a fresh buffer so a failed reading never
// leaves partial bytes in the shared accumulator.
func renderFragment(r Reading) ([]byte, error) {
	if !knownStatus(r.Status) {
		return nil, fmt.Errorf("%w: unrecognized status %q", ErrInvalidReading, r.Status)
	}
	if len(r.Measurements) > MaxMeasurements {
		return nil, fmt.Errorf("%w: %d measurements exceeds limit %d", ErrInvalidReading, len(r.Measurements), MaxMeasurements)
	}

	var buf bytes.Buffer
	if r.Status != ReadOK {
		fmt.Fprintf(&buf, `{"ID":%q,"err":%q}`, string(r.Type), string(r.Status))
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, `{"ID":%q,"mes":[`, string(r.Type))
	for i, m := range r.Measurements {
		if m.Name == "" || strings.ContainsAny(m.Name, "\"\\") {
			return nil, fmt.Errorf("%w: bad channel name %q", ErrInvalidReading, m.Name)
		}
		v, err := formatValue(m)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"nm":%q,"vl":%s}`, m.Name, v)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// encodedFits reports whether rawLen bytes of JSON still fit the Base64
// output budget. The check runs before encoding so the codec fails closed
// instead of truncating.
func encodedFits(rawLen, maxEncoded int) bool {
	return base64.StdEncoding.EncodedLen(rawLen) <= maxEncoded
}

// encode Base64-encodes a finished document, verifying the output budget
// first.
func encode(raw []byte, maxEncoded int) ([]byte, error) {
	if !encodedFits(len(raw), maxEncoded) {
		return nil, fmt.Errorf("%w: %d raw bytes need %d encoded, budget %d",
			ErrBufferOverflow, len(raw), base64.StdEncoding.EncodedLen(len(raw)), maxEncoded)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

// EncodeReading renders a standalone per-sensor document and Base64-encodes
// it. Used in custom (per-sensor) mode where every sensor publishes to its
// own topic.
func EncodeReading(r Reading, maxEncoded int) ([]byte, error) {
	if !KnownSensor(r.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSensor, r.Type)
	}
	frag, err := renderFragment(r)
	if err != nil {
		return nil, err
	}
	return encode(frag, maxEncoded)
}

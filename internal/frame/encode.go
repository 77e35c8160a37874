package frame

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// EncodeSegment is one measurement series in physical units.
type EncodeSegment struct {
	Type   MeasurementType
	Values []float64
}

// EncodeInput describes a frame to build.
type EncodeInput struct {
	// PacketKind is the high nibble of the first byte (0x0-0xF).
	PacketKind uint8
	// EmissionWindow is the raw emission field in minutes. It is only
	// written when segments carry more than one sample.
	EmissionWindow uint16
	Segments       []EncodeSegment
}

// Encode builds the upper-case hex frame for in.
func Encode(in EncodeInput) (string, error) {
	if in.PacketKind > 0xF {
		return "", fmt.Errorf("packet kind %#x does not fit in a nibble", in.PacketKind)
	}
	if len(in.Segments) == 0 {
		return "", errors.New("at least one segment is required")
	}
	n := len(in.Segments[0].Values)
	if n < 1 || n > maxSampleCount {
		return "", fmt.Errorf("sample count %d out of range 1..%d", n, maxSampleCount)
	}

	var b strings.Builder
	b.WriteString(hex2(in.PacketKind<<4 | uint8(n-1)))
	if n > 1 {
		b.WriteString(Hex4(in.EmissionWindow))
	}
	for i, seg := range in.Segments {
		if _, ok := measurements[seg.Type]; !ok {
			return "", fmt.Errorf("segment %d: %v", i, seg.Type)
		}
		if len(seg.Values) != n {
			return "", fmt.Errorf("segment %d: %d values, want %d", i, len(seg.Values), n)
		}
		b.WriteString(seg.Type.Code())
		for _, v := range seg.Values {
			scaled := math.Round(v * seg.Type.Divisor())
			if scaled < 0 || scaled > math.MaxUint16 || math.IsNaN(scaled) {
				return "", fmt.Errorf("segment %d: %s value %g outside the encodable range", i, seg.Type, v)
			}
			b.WriteString(Hex4(uint16(scaled)))
		}
	}
	return b.String(), nil
}

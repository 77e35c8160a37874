package frame

// UnknownPolicy decides what happens when a segment carries a type code
// missing from the measurement table.
type UnknownPolicy int

const (
	// RejectUnknown fails the whole frame with ErrUnknownMeasurementType.
	RejectUnknown UnknownPolicy = iota
	// SentinelUnknown keeps the segment under UnknownLabel with raw,
	// undivided values.
	SentinelUnknown
)

// UnknownLabel is the label used by SentinelUnknown.
const UnknownLabel = "undefined"

// Labeler builds the output key for a measurement of a device.
type Labeler func(t MeasurementType, deviceID string) string

// DefaultLabeler produces keys like "Temperature:0A1B2C3D".
func DefaultLabeler(t MeasurementType, deviceID string) string {
	return t.String() + ":" + deviceID
}

type walkOptions struct {
	deviceID string
	labeler  Labeler
	unknown  UnknownPolicy
}

// walkSegments reads every segment after the header, in frame order.
func walkSegments(raw string, h Header, opts walkOptions) ([]Segment, error) {
	var segments []Segment
	cursor := h.bodyOffset()
	for cursor < len(raw) {
		start := cursor
		if cursor+typeCodeLen > len(raw) {
			return nil, newError(ErrTruncatedFrame, cursor, "dangling type code")
		}
		if _, err := hexNumber(raw, cursor, typeCodeLen); err != nil {
			return nil, err
		}
		code := raw[cursor : cursor+typeCodeLen]
		seg := Segment{Code: code, Values: make([]float64, 0, h.SampleCount)}

		divisor := 1.0
		if t, ok := LookupCode(code); ok {
			seg.Type = t
			seg.Label = opts.labeler(t, opts.deviceID)
			divisor = t.Divisor()
		} else if opts.unknown == SentinelUnknown {
			seg.Label = UnknownLabel
		} else {
			return nil, newError(ErrUnknownMeasurementType, cursor, "code %s", code)
		}

		cursor += typeCodeLen
		end := start + h.segmentLen()
		if end > len(raw) {
			return nil, newError(ErrTruncatedFrame, cursor, "segment %s needs %d hex characters, %d left", code, end-cursor, len(raw)-cursor)
		}
		for ; cursor < end; cursor += valueLen {
			v, err := hexNumber(raw, cursor, valueLen)
			if err != nil {
				return nil, err
			}
			seg.Values = append(seg.Values, float64(v)/divisor)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

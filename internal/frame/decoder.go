package frame

import (
	"strings"
	"time"
)

// Decoder turns raw hex frames into timestamped samples. It holds no
// mutable state and is safe for concurrent use.
type Decoder struct {
	now     func() time.Time
	labeler Labeler
	unknown UnknownPolicy
}

type Option func(*Decoder)

// WithClock overrides the source of the reference time.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

// WithLabeler sets how output keys are built.
func WithLabeler(l Labeler) Option {
	return func(d *Decoder) { d.labeler = l }
}

// WithUnknownPolicy sets the handling of unknown type codes.
func WithUnknownPolicy(p UnknownPolicy) Option {
	return func(d *Decoder) { d.unknown = p }
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		now:     time.Now,
		labeler: DefaultLabeler,
		unknown: RejectUnknown,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.labeler == nil {
		d.labeler = DefaultLabeler
	}
	return d
}

// Decode decodes raw using the current time as the reference.
func (d *Decoder) Decode(raw, deviceID string) ([]Message, error) {
	return d.DecodeAt(raw, deviceID, d.now())
}

// DecodeAt decodes raw and stamps the newest sample at ref.
// Decoding is all-or-nothing: on error no message is returned.
func (d *Decoder) DecodeAt(raw, deviceID string, ref time.Time) ([]Message, error) {
	h, segments, err := d.Segments(raw, deviceID)
	if err != nil {
		return nil, err
	}
	records := reassemble(segments, h.SampleCount)
	stamps := project(ref, h.EmissionFrequency, h.SampleCount)

	out := make([]Message, h.SampleCount)
	for i := range out {
		out[i] = Message{
			Timestamp: stamps[i],
			DeviceID:  deviceID,
			Record:    records[i],
		}
	}
	return out, nil
}

// Segments returns the header and raw segment view of a frame without
// building sample records.
func (d *Decoder) Segments(raw, deviceID string) (Header, []Segment, error) {
	raw = Normalize(raw)
	h, err := readHeader(raw)
	if err != nil {
		return Header{}, nil, err
	}
	segments, err := walkSegments(raw, h, walkOptions{
		deviceID: deviceID,
		labeler:  d.labeler,
		unknown:  d.unknown,
	})
	if err != nil {
		return Header{}, nil, err
	}
	return h, segments, nil
}

// Inspect reads only the header of raw.
func Inspect(raw string) (Header, error) {
	return readHeader(Normalize(raw))
}

// Normalize strips surrounding whitespace and upper-cases raw.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

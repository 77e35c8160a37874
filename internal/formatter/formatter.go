// Package formatter adapts uplinks from the network server to the
// envelope format consumed by the telemetry sink.
package formatter

import (
	"errors"
	"fmt"
	"time"

	"lorasense/internal/frame"
)

var (
	ErrMissingPayload = errors.New("uplink has no payload")
	ErrMissingDevice  = errors.New("uplink has no device address")
)

type Formatter struct {
	profile Profile
	decoder *frame.Decoder
	now     func() time.Time
}

type Options struct {
	Profile Profile
	// SuffixLen overrides Profile.SuffixLen when positive.
	SuffixLen     int
	UnknownPolicy frame.UnknownPolicy
	Now           func() time.Time
}

func New(opts Options) *Formatter {
	p := opts.Profile
	if p.Labeler == nil {
		p = DevAddrProfile
	}
	if opts.SuffixLen > 0 {
		p.SuffixLen = opts.SuffixLen
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Formatter{
		profile: p,
		decoder: frame.NewDecoder(
			frame.WithLabeler(p.Labeler),
			frame.WithUnknownPolicy(opts.UnknownPolicy),
		),
		now: now,
	}
}

// Profile returns the effective profile.
func (f *Formatter) Profile() Profile { return f.profile }

// DeviceID extracts the device id of u according to the profile.
func (f *Formatter) DeviceID(u Uplink) (string, error) {
	addr := u.RawData.DevAddr
	if f.profile.AddressField == "deveui" {
		addr = u.RawData.DevEUI
	}
	id := DeviceSuffix(addr, f.profile.SuffixLen)
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingDevice, f.profile.AddressField)
	}
	return id, nil
}

// Format decodes u using the current time as the reference.
func (f *Formatter) Format(u Uplink) ([]Envelope, error) {
	return f.FormatAt(u, f.now())
}

// FormatAt decodes u and builds one envelope per sample, oldest first.
func (f *Formatter) FormatAt(u Uplink, ref time.Time) ([]Envelope, error) {
	if u.Payload == "" {
		return nil, ErrMissingPayload
	}
	dev, err := f.DeviceID(u)
	if err != nil {
		return nil, err
	}
	msgs, err := f.decoder.DecodeAt(u.Payload, dev, ref)
	if err != nil {
		return nil, fmt.Errorf("decode frame from %s: %w", dev, err)
	}

	topic := ""
	if f.profile.PassTopic {
		topic = u.Topic
	}
	out := make([]Envelope, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewEnvelope(m, topic))
	}
	return out, nil
}

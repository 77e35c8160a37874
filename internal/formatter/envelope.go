package formatter

import (
	"lorasense/internal/frame"
)

// RawData carries the network server metadata of an uplink.
type RawData struct {
	DevEUI  string `json:"deveui,omitempty"`
	DevAddr string `json:"devaddr,omitempty"`
}

// Uplink is the message handed over by the integration layer.
type Uplink struct {
	Payload string  `json:"payload"`
	RawData RawData `json:"rawdata"`
	Topic   string  `json:"topic,omitempty"`
}

// Envelope is the message shape expected by the telemetry sink:
//
//	{"payload":{"d":{"<dev>":{"Val":{...}}},"ts":"..."},"topic":"..."}
type Envelope struct {
	Payload EnvelopePayload `json:"payload"`
	Topic   string          `json:"topic,omitempty"`
}

type EnvelopePayload struct {
	D  map[string]DeviceValues `json:"d"`
	TS string                  `json:"ts"`
}

type DeviceValues struct {
	Val frame.SampleRecord `json:"Val"`
}

// NewEnvelope wraps a decoded message.
func NewEnvelope(m frame.Message, topic string) Envelope {
	return Envelope{
		Payload: EnvelopePayload{
			D: map[string]DeviceValues{
				m.DeviceID: {Val: m.Record},
			},
			TS: frame.FormatTimestamp(m.Timestamp),
		},
		Topic: topic,
	}
}
